package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// APIPrefix is the mount point of the authenticated REST surface.
const APIPrefix = "/api/v1"

// RouteModule is a module that exposes REST endpoints.
type RouteModule interface {
	RegisterRoutes(r chi.Router)
}

// Edge installs the middleware shared by every route and returns the
// authentication middleware for the API group.
type Edge interface {
	UseEdge(r chi.Router)
	Authenticate() func(http.Handler) http.Handler
}

// NewRouter builds the HTTP surface. /health and /metrics are public; every
// module route is mounted under APIPrefix behind authentication.
func NewRouter(reg *prometheus.Registry, edge Edge, modules ...RouteModule) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	edge.UseEdge(r)

	r.Get("/health", HealthHandler)
	r.Method(http.MethodGet, "/metrics", MetricsHandler(reg))

	r.Route(APIPrefix, func(api chi.Router) {
		api.Use(edge.Authenticate())
		for _, m := range modules {
			m.RegisterRoutes(api)
		}
	})
	return r
}

// NewOpsRouter serves only /health and /metrics, for processes without a
// REST surface.
func NewOpsRouter(reg *prometheus.Registry) chi.Router {
	r := chi.NewRouter()
	r.Get("/health", HealthHandler)
	r.Method(http.MethodGet, "/metrics", MetricsHandler(reg))
	return r
}
