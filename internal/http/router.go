package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fs-organizer/internal/handlers"
	"fs-organizer/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	OrganizeService service.OrganizeService
	HealthChecks    map[string]handlers.HealthCheck
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(CORS)

	organizeHandler := handlers.NewOrganizeHandler(deps.OrganizeService)
	jobHandler := handlers.NewJobHandler(deps.OrganizeService)
	planHandler := handlers.NewPlanHandler(deps.OrganizeService)
	catalogHandler := handlers.NewCatalogHandler(deps.OrganizeService)
	applyHandler := handlers.NewApplyHandler(deps.OrganizeService)
	healthHandler := handlers.NewHealthHandler(deps.HealthChecks)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)
		r.Method(http.MethodGet, "/catalog", catalogHandler)
		r.Method(http.MethodGet, "/plan", planHandler)
		r.Method(http.MethodPost, "/organize", organizeHandler)
		r.Method(http.MethodGet, "/jobs/{id}", jobHandler)
		r.Method(http.MethodPost, "/apply", applyHandler)
	})

	return r
}
