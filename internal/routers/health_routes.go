package routers

import (
	"net/http"

	"snake/backend/internal/handlers"
	"snake/backend/internal/metrics"

	"github.com/go-chi/chi/v5"
)

func HealthRoutes(r chi.Router, h *handlers.HealthHandler) {
	r.Get("/", h.RootHandler)
	r.Get("/healthz", h.LivenessHandler)
	r.Get("/health", h.ReadinessHandler)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
}
