package routers

import (
	"snake/backend/internal/handlers"
	"snake/backend/internal/middleware"
	"snake/backend/internal/models"

	"github.com/go-chi/chi/v5"
)

func LeaderboardRoutes(r chi.Router, h *handlers.LeaderboardHandler, jwtSecret string) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/leaderboard", h.GetLeaderboardHandler)
		r.With(
			middleware.RequireAuth(jwtSecret),
			middleware.ValidateRequest[*models.ScoreSubmission](),
		).Post("/scores", h.SubmitScoreHandler)
		r.Get("/scores/{id}", h.GetScoreHandler)
		r.Get("/players/active", h.ActivePlayersHandler)
	})
}
