package handlers

import (
	"context"

	"snake/backend/internal/models"
)

// UserStore captures the credential operations required by the auth handlers.
type UserStore interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (uint, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

// LeaderboardService captures the score operations required by handlers.
type LeaderboardService interface {
	SubmitScore(ctx context.Context, userID uint, sub models.ScoreSubmission) (*models.LeaderboardEntry, error)
	Leaderboard(ctx context.Context, q models.LeaderboardQuery) ([]models.LeaderboardEntry, error)
	ActivePlayers(ctx context.Context) ([]models.ActivePlayer, error)
	UserScores(ctx context.Context, userID uint) ([]models.LeaderboardEntry, error)
	ScoreByID(ctx context.Context, id uint) (*models.LeaderboardEntry, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
