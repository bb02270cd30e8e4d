package repositories

import (
	"context"
	"time"

	"snake/backend/internal/models"
)

// Store is the persistence contract shared by the SQL and in-memory backends.
// Implementations must return identical error kinds and record shapes.
type Store interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (uint, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)

	// CreateScore stores a result. A zero timestamp means now.
	CreateScore(ctx context.Context, userID uint, score int, mode models.GameMode, timestamp time.Time) (uint, error)
	GetScoreByID(ctx context.Context, id uint) (*models.LeaderboardEntry, error)
	GetUserScores(ctx context.Context, userID uint) ([]models.LeaderboardEntry, error)
	GetScores(ctx context.Context, q models.LeaderboardQuery) ([]models.LeaderboardEntry, error)

	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*SQLStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

// validateScore applies the same input rules on both backends.
func validateScore(score int, mode models.GameMode) error {
	if score < 0 {
		return &models.ValidationError{Field: "score", Message: "score must be greater than or equal to 0"}
	}
	if !mode.Valid() {
		return &models.ValidationError{Field: "mode", Message: "mode must be one of: wall, pass"}
	}
	return nil
}

// normalizeTimestamp stores instants in UTC at the millisecond resolution used on the wire.
func normalizeTimestamp(ts time.Time, now func() time.Time) time.Time {
	if ts.IsZero() {
		ts = now()
	}
	return ts.UTC().Truncate(time.Millisecond)
}
