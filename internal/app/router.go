package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/wayfarer-labs/wayfarer/internal/auth"
	"github.com/wayfarer-labs/wayfarer/internal/collab"
	"github.com/wayfarer-labs/wayfarer/internal/journeys"
	"github.com/wayfarer-labs/wayfarer/internal/observability"
	"github.com/wayfarer-labs/wayfarer/internal/posts"
	"github.com/wayfarer-labs/wayfarer/internal/public"
	"github.com/wayfarer-labs/wayfarer/internal/rbac"
	"github.com/wayfarer-labs/wayfarer/internal/shared"
	"github.com/wayfarer-labs/wayfarer/internal/users"
	"github.com/wayfarer-labs/wayfarer/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	SessionManager     *shared.SessionManager
	CSRFManager        *shared.CSRFManager
	AuthMiddleware     auth.Middleware
	AuthHandler        *auth.Handler
	JourneysHandler    *journeys.Handler
	PostsHandler       *posts.Handler
	CollabHandler      *collab.Handler
	PublicHandler      *public.Handler
	RolesHandler       *rbac.Handler
	PermissionsHandler *rbac.PermissionsHandler
	UsersHandler       *users.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with Wayfarer defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Anonymous surface: shared journey links, no principal required.
	if params.PublicHandler != nil {
		r.Route("/p", params.PublicHandler.MountRoutes)
	}

	r.Route("/auth", params.AuthHandler.MountRoutes)

	// Everything below resolves a principal from the session and rejects
	// anonymous requests. Per-operation authorization happens in the
	// services through the decision engine.
	r.Group(func(r chi.Router) {
		r.Use(params.AuthMiddleware.Principal)
		r.Use(params.AuthMiddleware.RequirePrincipal)

		r.Route("/journeys", func(r chi.Router) {
			params.JourneysHandler.MountRoutes(r)
			r.Route("/{journeyID}/posts", params.PostsHandler.MountJourneyRoutes)
			if params.CollabHandler != nil {
				r.Route("/{journeyID}/collaborators", params.CollabHandler.MountRoutes)
			}
		})
		r.Route("/posts", params.PostsHandler.MountRoutes)
		if params.RolesHandler != nil {
			r.Route("/roles", params.RolesHandler.MountRoutes)
		}
		if params.PermissionsHandler != nil {
			r.Route("/permissions", params.PermissionsHandler.MountRoutes)
		}
		if params.UsersHandler != nil {
			r.Route("/users", params.UsersHandler.MountRoutes)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
