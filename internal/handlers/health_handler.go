package handlers

import (
	"context"
	"net/http"
	"time"

	"snake/backend/internal/utils"

	"go.uber.org/zap"
)

const Version = "1.0.0"

type HealthHandler struct {
	Store  Pinger
	Logger *zap.Logger
}

func (h *HealthHandler) RootHandler(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]string{"message": "Snake Game API", "version": Version})
}

// LivenessHandler answers plain "ok" for orchestrator probes.
func (h *HealthHandler) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// ReadinessHandler pings the store when one is configured.
func (h *HealthHandler) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	if h.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.Store.Ping(ctx); err != nil {
			if h.Logger != nil {
				h.Logger.Warn("store ping failed", zap.Error(err))
			}
			utils.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
	}
	utils.JSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
