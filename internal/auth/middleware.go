package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/taskhive/taskhive/internal/authz"
	"github.com/taskhive/taskhive/internal/shared"
)

// PrincipalMiddleware resolves the session's user into an authz
// principal and stores it in the request context. Unauthenticated
// requests pass through without a principal; guarded route groups
// reject them downstream.
func PrincipalMiddleware(service *Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			if sess == nil {
				next.ServeHTTP(w, r)
				return
			}
			raw := strings.TrimSpace(sess.User())
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			userID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				logger.Error("parse session user id", slog.String("value", raw))
				next.ServeHTTP(w, r)
				return
			}
			principal, err := service.Principal(r.Context(), userID)
			if err != nil {
				switch {
				case errors.Is(err, shared.ErrNotFound), errors.Is(err, shared.ErrInvalidCredentials):
					// Deactivated or deleted mid-session: continue
					// unauthenticated.
					next.ServeHTTP(w, r)
				case errors.Is(err, authz.ErrUnknownRole):
					logger.Error("resolve principal", slog.Int64("user_id", userID), slog.Any("error", err))
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				default:
					// Store outage is not an auth answer. Fail the
					// request closed instead of telling the client to
					// re-login.
					logger.Error("principal lookup", slog.Int64("user_id", userID), slog.Any("error", err))
					http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
				}
				return
			}
			ctx := shared.ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests that carry no principal.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := shared.PrincipalFromContext(r.Context()); !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
