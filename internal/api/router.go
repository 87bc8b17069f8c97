package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mocamara/se-atlas/internal/core/health"
	"github.com/mocamara/se-atlas/internal/core/middleware"
)

// Routes assembles the full HTTP surface: public health/metrics/login,
// session-guarded API, admin-guarded reload.
func (h *Handlers) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recover())
	r.Use(middleware.Logging(h.logger))
	r.Use(middleware.CORS())

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(h.snaps))
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Post("/api/login", instrument("/api/login", h.Login))

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(h.sessions))

		r.Post("/api/logout", instrument("/api/logout", h.Logout))
		r.Get("/api/session", instrument("/api/session", h.Session))

		r.Get("/api/filters/options", instrument("/api/filters/options", h.FilterOptions))
		r.Get("/api/boundaries", instrument("/api/boundaries", h.Boundaries))
		r.Get("/api/boundaries/stats", instrument("/api/boundaries/stats", h.BoundaryStats))

		r.Post("/api/shapes", instrument("/api/shapes", h.ShapeCreate))
		r.Get("/api/shapes", instrument("/api/shapes", h.ShapeList))
		r.Patch("/api/shapes/{id}", instrument("/api/shapes/{id}", h.ShapeRename))
		r.Delete("/api/shapes/{id}", instrument("/api/shapes/{id}", h.ShapeDelete))
		r.Post("/api/shapes/stats", instrument("/api/shapes/stats", h.ShapeStats))

		r.Get("/api/export/shapes.geojson", instrument("/api/export/shapes.geojson", h.ExportShapesGeoJSON))
		r.Get("/api/export/markers.csv", instrument("/api/export/markers.csv", h.ExportMarkersCSV))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin())
			r.Post("/api/admin/reload", instrument("/api/admin/reload", h.AdminReload))
		})
	})

	return r
}
