package routers

import (
	"snake/backend/internal/handlers"

	"github.com/go-chi/chi/v5"
)

func UserRoutes(r chi.Router, h *handlers.LeaderboardHandler) {
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Get("/{id}/scores", h.GetUserScoresHandler) // Score history, newest first
	})
}
