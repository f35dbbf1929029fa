package shared

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSRFTokenBoundToSession(t *testing.T) {
	m := NewCSRFManager("csrf-secret")
	sess := &Session{ID: "sess-1"}

	token := m.Token(sess)
	require.NotEmpty(t, token)
	assert.Equal(t, token, m.Token(sess), "token must be stable for a session")
	assert.NotEqual(t, token, m.Token(&Session{ID: "sess-2"}))

	require.NoError(t, m.Verify(sess, token))
	assert.ErrorIs(t, m.Verify(sess, "forged"), ErrCSRFTokenMismatch)
	assert.ErrorIs(t, m.Verify(sess, ""), ErrCSRFTokenMissing)
	assert.ErrorIs(t, m.Verify(nil, token), ErrCSRFTokenMissing)
}

func TestCSRFMiddlewareGuardsUnsafeMethods(t *testing.T) {
	m := NewCSRFManager("csrf-secret")
	sess := &Session{ID: "sess-1"}
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(method, token string) int {
		req := httptest.NewRequest(method, "/api/tasks", nil)
		req = req.WithContext(ContextWithSession(req.Context(), sess))
		if token != "" {
			req.Header.Set(CSRFHeader, token)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, do(http.MethodGet, ""))
	assert.Equal(t, http.StatusForbidden, do(http.MethodPost, ""))
	assert.Equal(t, http.StatusForbidden, do(http.MethodDelete, "forged"))
	assert.Equal(t, http.StatusNoContent, do(http.MethodPost, m.Token(sess)))
}
