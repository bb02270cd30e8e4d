package routers

import (
	"snake/backend/internal/handlers"
	"snake/backend/internal/middleware"
	"snake/backend/internal/models"

	"github.com/go-chi/chi/v5"
)

func AuthRoutes(r chi.Router, authHandler *handlers.AuthHandler) {
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.ValidateRequest[*models.LoginRequest]()).Post("/login", authHandler.LoginHandler)    // User login
		r.With(middleware.ValidateRequest[*models.SignupRequest]()).Post("/signup", authHandler.SignupHandler) // User registration
		r.Post("/logout", authHandler.LogoutHandler)
		r.With(middleware.RequireAuth(authHandler.JWTSecret)).Get("/me", authHandler.MeHandler) // Current user
	})
}
