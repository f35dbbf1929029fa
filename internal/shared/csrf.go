package shared

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
)

// CSRFHeader is the request header carrying the CSRF token.
const CSRFHeader = "X-CSRF-Token"

// CSRFManager issues and verifies per-session CSRF tokens for the JSON
// API. The token is an HMAC of the session id, so it needs no server
// side storage and rotates with the session.
type CSRFManager struct {
	secret []byte
}

// NewCSRFManager returns a CSRFManager using the provided secret key.
func NewCSRFManager(secret string) *CSRFManager {
	return &CSRFManager{secret: []byte(secret)}
}

// Token derives the CSRF token for the session. Empty when there is no
// usable session.
func (m *CSRFManager) Token(sess *Session) string {
	if m == nil || sess == nil || sess.ID == "" {
		return ""
	}
	mac := hmac.New(sha256.New, m.secret)
	_, _ = mac.Write([]byte("csrf|"))
	_, _ = mac.Write([]byte(sess.ID))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Verify compares the supplied token against the session's token.
func (m *CSRFManager) Verify(sess *Session, token string) error {
	if token == "" {
		return ErrCSRFTokenMissing
	}
	expected := m.Token(sess)
	if expected == "" {
		return ErrCSRFTokenMissing
	}
	if !hmac.Equal([]byte(expected), []byte(token)) {
		return ErrCSRFTokenMismatch
	}
	return nil
}

// Middleware rejects state-changing requests that do not carry the
// session's token in the CSRF header. Safe methods pass through.
func (m *CSRFManager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		sess := SessionFromContext(r.Context())
		if err := m.Verify(sess, r.Header.Get(CSRFHeader)); err != nil {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
