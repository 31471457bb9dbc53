package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/atrium-hq/atrium/internal/auth"
	"github.com/atrium-hq/atrium/internal/authz"
	"github.com/atrium-hq/atrium/internal/observability"
	"github.com/atrium-hq/atrium/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	Pipeline          *authz.Pipeline
	AuthHandler       *auth.Handler
	CapabilityHandler *authz.CapabilityHandler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with Atrium defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:   params.Logger,
		Config:   params.Config,
		Pipeline: params.Pipeline,
		Metrics:  params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"app":"atrium"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	if params.CapabilityHandler != nil {
		r.Route("/permissions", params.CapabilityHandler.MountRoutes)
		r.Get("/orders", params.CapabilityHandler.Resource(authz.ResourceOrders))
		r.Get("/products", params.CapabilityHandler.Resource(authz.ResourceProducts))
		r.Get("/clients", params.CapabilityHandler.Resource(authz.ResourceClients))
		r.Get("/categories", params.CapabilityHandler.Resource(authz.ResourceCategories))
	}

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
