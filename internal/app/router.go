package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/taskhive/taskhive/internal/analytics"
	"github.com/taskhive/taskhive/internal/auth"
	"github.com/taskhive/taskhive/internal/observability"
	"github.com/taskhive/taskhive/internal/rbac"
	"github.com/taskhive/taskhive/internal/shared"
	"github.com/taskhive/taskhive/internal/tasks"
	"github.com/taskhive/taskhive/internal/users"
	"github.com/taskhive/taskhive/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Config         *Config
	SessionManager *shared.SessionManager
	AuthService    *auth.Service
	AuthHandler    *auth.Handler
	UsersHandler   *users.Handler
	TasksHandler   *tasks.Handler
	StatsHandler   *analytics.Handler
	CatalogHandler *rbac.PermissionsHandler
	JobHandler     *jobs.Handler
	CSRF           *shared.CSRFManager
	Metrics        *observability.Metrics
	Middleware     MiddlewareConfig
}

// NewRouter constructs the chi.Router with TaskHive defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(params.Middleware) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)
	r.Use(auth.PrincipalMiddleware(params.AuthService, params.Middleware.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", func(r chi.Router) {
		r.Use(httprate.Limit(
			params.Config.LoginRateLimit,
			params.Config.LoginRateWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
		))
		params.AuthHandler.MountRoutes(r)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth)
		if params.CSRF != nil {
			r.Use(params.CSRF.Middleware)
		}
		r.Route("/users", params.UsersHandler.MountRoutes)
		r.Route("/tasks", params.TasksHandler.MountRoutes)
		r.Route("/analytics", params.StatsHandler.MountRoutes)
		if params.CatalogHandler != nil {
			params.CatalogHandler.MountRoutes(r)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", func(r chi.Router) {
			if params.CSRF != nil {
				r.Use(params.CSRF.Middleware)
			}
			params.JobHandler.MountRoutes(r)
		})
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
