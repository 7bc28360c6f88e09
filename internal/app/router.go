package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/greenlight-hq/greenlight/internal/auth"
	"github.com/greenlight-hq/greenlight/internal/budget/approvals"
	"github.com/greenlight-hq/greenlight/internal/budget/reports"
	"github.com/greenlight-hq/greenlight/internal/budget/versions"
	"github.com/greenlight-hq/greenlight/internal/observability"
	"github.com/greenlight-hq/greenlight/internal/shared"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	SessionManager   *shared.SessionManager
	AuthHandler      *auth.Handler
	VersionsHandler  *versions.Handler
	ApprovalsHandler *approvals.Handler
	ReportsHandler   *reports.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with Greenlight defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
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

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireActor)

		r.Route("/projects/{projectID}/budget", func(r chi.Router) {
			params.VersionsHandler.MountProjectRoutes(r)
			params.ApprovalsHandler.MountProjectRoutes(r)
			params.ReportsHandler.MountProjectRoutes(r)
		})

		r.Route("/budget/versions", params.VersionsHandler.MountRoutes)
		r.Route("/budget/approvals", params.ApprovalsHandler.MountRoutes)
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
