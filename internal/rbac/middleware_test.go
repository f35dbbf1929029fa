package rbac

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskhive/taskhive/internal/authz"
	"github.com/taskhive/taskhive/internal/shared"
)

type stubCatalog struct {
	perms map[int64][]string
	err   error
}

func (s stubCatalog) ListRoles(context.Context) ([]Role, error)             { return nil, nil }
func (s stubCatalog) GetRole(context.Context, int64) (Role, error)          { return Role{}, nil }
func (s stubCatalog) ListPermissions(context.Context) ([]Permission, error) { return nil, nil }
func (s stubCatalog) RolePermissions(_ context.Context, roleID int64) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.perms[roleID], nil
}

func serveWith(mw func(http.Handler) http.Handler, principal *authz.Principal) *httptest.ResponseRecorder {
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if principal != nil {
		req = req.WithContext(shared.ContextWithPrincipal(req.Context(), *principal))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRequireAnyGrantsOnMembership(t *testing.T) {
	mw := Middleware{Service: NewService(stubCatalog{perms: map[int64][]string{
		3: {"tasks.read", "tasks.create"},
	}})}
	p := &authz.Principal{ID: 20, RoleID: 3, Level: authz.LevelManager}

	rec := serveWith(mw.RequireAny("tasks.read", "users.view"), p)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireAllNeedsEveryPermission(t *testing.T) {
	mw := Middleware{Service: NewService(stubCatalog{perms: map[int64][]string{
		3: {"tasks.read"},
	}})}
	p := &authz.Principal{ID: 20, RoleID: 3, Level: authz.LevelManager}

	rec := serveWith(mw.RequireAll("tasks.read", "tasks.delete"), p)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRejectsUnauthenticated(t *testing.T) {
	mw := Middleware{Service: NewService(stubCatalog{})}

	rec := serveWith(mw.RequireAny("tasks.read"), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireFailsClosedOnStoreError(t *testing.T) {
	mw := Middleware{Service: NewService(stubCatalog{err: errors.New("connection refused")})}
	p := &authz.Principal{ID: 20, RoleID: 3, Level: authz.LevelManager}

	rec := serveWith(mw.RequireAny("tasks.read"), p)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequireNormalizesCase(t *testing.T) {
	mw := Middleware{Service: NewService(stubCatalog{perms: map[int64][]string{
		3: {"Tasks.Read"},
	}})}
	p := &authz.Principal{ID: 20, RoleID: 3, Level: authz.LevelManager}

	rec := serveWith(mw.RequireAny(" TASKS.READ "), p)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
