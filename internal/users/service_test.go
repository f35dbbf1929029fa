package users

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhive/taskhive/internal/authz"
	"github.com/taskhive/taskhive/internal/shared"
)

type stubStore struct {
	reports map[int64][]int64
	levels  map[int64]authz.Level
	perms   map[int64][]string
	err     error
}

func (s stubStore) DirectReportsOf(_ context.Context, managerID int64) ([]int64, error) {
	return s.reports[managerID], s.err
}

func (s stubStore) RoleLevelOf(_ context.Context, roleID int64) (authz.Level, error) {
	if s.err != nil {
		return 0, s.err
	}
	level, ok := s.levels[roleID]
	if !ok {
		return 0, authz.ErrUnknownRole
	}
	return level, nil
}

func (s stubStore) PermissionsOf(_ context.Context, roleID int64) ([]string, error) {
	return s.perms[roleID], s.err
}

type mockRepo struct {
	users     map[int64]*User
	lastScope authz.Predicate
	created   *User
	roleSet   map[int64]int64
	inactive  map[int64]bool
	deleted   map[int64]bool
	profiles  map[int64]string
}

func newMockRepo(users ...*User) *mockRepo {
	m := &mockRepo{
		users:    make(map[int64]*User),
		roleSet:  make(map[int64]int64),
		inactive: make(map[int64]bool),
		deleted:  make(map[int64]bool),
		profiles: make(map[int64]string),
	}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockRepo) List(_ context.Context, scope authz.Predicate, _, _ int) ([]User, int, error) {
	m.lastScope = scope
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (m *mockRepo) Get(_ context.Context, id int64) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (m *mockRepo) Create(_ context.Context, user User, _ string) (int64, error) {
	user.ID = int64(len(m.users) + 100)
	m.users[user.ID] = &user
	m.created = &user
	return user.ID, nil
}

func (m *mockRepo) UpdateProfile(_ context.Context, id int64, name string, _, _ *int64) error {
	m.profiles[id] = name
	return nil
}

func (m *mockRepo) UpdateRole(_ context.Context, id, roleID int64) error {
	m.roleSet[id] = roleID
	return nil
}

func (m *mockRepo) SetActive(_ context.Context, id int64, active bool) error {
	m.inactive[id] = !active
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id int64) error {
	m.deleted[id] = true
	return nil
}

func ptr(v int64) *int64 { return &v }

func adminPrincipal() authz.Principal {
	return authz.Principal{ID: 1, RoleID: 1, Level: authz.LevelAdmin}
}

func managerPrincipal() authz.Principal {
	return authz.Principal{ID: 30, RoleID: 3, Level: authz.LevelManager, DepartmentID: ptr(7)}
}

func employeeUser(id int64) *User {
	return &User{ID: id, Email: "emp@example.com", Name: "Emp", RoleID: 4, RoleLevel: int(authz.LevelEmployee), DepartmentID: ptr(7), IsActive: true}
}

func newService(repo Repository, store authz.Store) *Service {
	return NewService(repo, authz.NewResolver(store), nil, nil)
}

func TestGetDeniedForUnrelatedEmployee(t *testing.T) {
	target := employeeUser(55)
	repo := newMockRepo(target)
	svc := newService(repo, stubStore{})

	p := authz.Principal{ID: 90, RoleID: 4, Level: authz.LevelEmployee, DepartmentID: ptr(7)}
	_, err := svc.Get(context.Background(), p, 55)
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestGetAllowsManagerOfDirectReport(t *testing.T) {
	target := employeeUser(55)
	repo := newMockRepo(target)
	svc := newService(repo, stubStore{reports: map[int64][]int64{30: {55}}})

	got, err := svc.Get(context.Background(), managerPrincipal(), 55)
	require.NoError(t, err)
	assert.Equal(t, int64(55), got.ID)
}

func TestGetFailsClosedOnStoreError(t *testing.T) {
	target := employeeUser(55)
	repo := newMockRepo(target)
	svc := newService(repo, stubStore{err: errors.New("connection refused")})

	_, err := svc.Get(context.Background(), managerPrincipal(), 55)
	require.ErrorIs(t, err, authz.ErrStoreUnavailable)
}

func TestCreateManagerCannotProvision(t *testing.T) {
	repo := newMockRepo()
	svc := newService(repo, stubStore{levels: map[int64]authz.Level{4: authz.LevelEmployee}})

	_, err := svc.Create(context.Background(), managerPrincipal(), CreateUserInput{
		Email:    "NEW@Example.com",
		Name:     "New Hire",
		Password: "supersecret",
		RoleID:   4,
	})
	require.ErrorIs(t, err, shared.ErrForbidden)
	assert.Nil(t, repo.created)
}

func TestCreateNormalizesEmail(t *testing.T) {
	repo := newMockRepo()
	svc := newService(repo, stubStore{levels: map[int64]authz.Level{4: authz.LevelEmployee}})

	_, err := svc.Create(context.Background(), adminPrincipal(), CreateUserInput{
		Email:    "  NEW@Example.com ",
		Name:     "New Hire",
		Password: "supersecret",
		RoleID:   4,
	})
	require.NoError(t, err)
	require.NotNil(t, repo.created)
	assert.Equal(t, "new@example.com", repo.created.Email)
}

func TestCreateUnknownRoleRejected(t *testing.T) {
	repo := newMockRepo()
	svc := newService(repo, stubStore{levels: map[int64]authz.Level{}})

	_, err := svc.Create(context.Background(), adminPrincipal(), CreateUserInput{
		Email:    "new@example.com",
		Name:     "New Hire",
		Password: "supersecret",
		RoleID:   99,
	})
	require.ErrorIs(t, err, authz.ErrUnknownRole)
}

func TestChangeRoleAdminOnTarget(t *testing.T) {
	target := employeeUser(55)
	repo := newMockRepo(target)
	svc := newService(repo, stubStore{levels: map[int64]authz.Level{3: authz.LevelManager}})

	require.NoError(t, svc.ChangeRole(context.Background(), adminPrincipal(), 55, 3))
	assert.Equal(t, int64(3), repo.roleSet[55])
}

func TestChangeRoleManagerDenied(t *testing.T) {
	target := employeeUser(55)
	repo := newMockRepo(target)
	svc := newService(repo, stubStore{levels: map[int64]authz.Level{3: authz.LevelManager}})

	err := svc.ChangeRole(context.Background(), managerPrincipal(), 55, 3)
	require.ErrorIs(t, err, shared.ErrForbidden)
	assert.Empty(t, repo.roleSet)
}

func TestDeactivateSelfForbidden(t *testing.T) {
	admin := &User{ID: 1, RoleID: 1, RoleLevel: int(authz.LevelAdmin), IsActive: true}
	repo := newMockRepo(admin)
	svc := newService(repo, stubStore{})

	err := svc.Deactivate(context.Background(), adminPrincipal(), 1)
	require.ErrorIs(t, err, shared.ErrForbidden)
	assert.Contains(t, err.Error(), string(authz.ReasonSelfModificationForbidden))
}

func TestDeleteRequiresAdmin(t *testing.T) {
	target := employeeUser(55)
	repo := newMockRepo(target)
	svc := newService(repo, stubStore{})

	director := authz.Principal{ID: 2, RoleID: 2, Level: authz.LevelDirector}
	err := svc.Delete(context.Background(), director, 55)
	require.ErrorIs(t, err, shared.ErrForbidden)

	require.NoError(t, svc.Delete(context.Background(), adminPrincipal(), 55))
	assert.True(t, repo.deleted[55])
}

func TestUpdateProfileSelfAllowed(t *testing.T) {
	target := employeeUser(55)
	repo := newMockRepo(target)
	svc := newService(repo, stubStore{})

	p := authz.Principal{ID: 55, RoleID: 4, Level: authz.LevelEmployee, DepartmentID: ptr(7)}
	require.NoError(t, svc.UpdateProfile(context.Background(), p, 55, UpdateProfileInput{Name: " Renamed "}))
	assert.Equal(t, "Renamed", repo.profiles[55])
}

func TestUpdateProfilePeerDenied(t *testing.T) {
	target := employeeUser(55)
	repo := newMockRepo(target)
	svc := newService(repo, stubStore{})

	err := svc.UpdateProfile(context.Background(), managerPrincipal(), 55, UpdateProfileInput{Name: "X"})
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestListUsesResolverScope(t *testing.T) {
	repo := newMockRepo(employeeUser(55))
	svc := newService(repo, stubStore{})

	_, pagination, err := svc.List(context.Background(), adminPrincipal(), authz.UserFilter{}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, pagination.Total)

	clause, args := authz.CompileSQL(repo.lastScope, 1)
	assert.Equal(t, "TRUE", clause)
	assert.Empty(t, args)
}
