package services

import (
	"context"
	"time"

	"snake/backend/internal/metrics"
	"snake/backend/internal/models"
	"snake/backend/internal/repositories"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
	activePlayersLimit      = 3

	SourceAPI        = "api"
	SourceSubscriber = "subscriber"
)

// LeaderboardService sits between the HTTP handlers and the store. It owns
// cache invalidation on writes and read-through caching of ranked reads.
type LeaderboardService struct {
	store  repositories.Store
	cache  LeaderboardCache
	logger *zap.Logger
}

// NewLeaderboardService wires the service. cache may be nil to disable caching.
func NewLeaderboardService(store repositories.Store, cache LeaderboardCache, logger *zap.Logger) *LeaderboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaderboardService{store: store, cache: cache, logger: logger}
}

// SubmitScore records a finished game for userID at the current time.
func (s *LeaderboardService) SubmitScore(ctx context.Context, userID uint, sub models.ScoreSubmission) (*models.LeaderboardEntry, error) {
	return s.submit(ctx, userID, sub, time.Time{}, SourceAPI)
}

// RecordGameResult stores a result reported outside the HTTP API with the
// time the game ended. A zero endedAt means now.
func (s *LeaderboardService) RecordGameResult(ctx context.Context, userID uint, sub models.ScoreSubmission, endedAt time.Time) (*models.LeaderboardEntry, error) {
	return s.submit(ctx, userID, sub, endedAt, SourceSubscriber)
}

func (s *LeaderboardService) submit(ctx context.Context, userID uint, sub models.ScoreSubmission, at time.Time, source string) (*models.LeaderboardEntry, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	id, err := s.store.CreateScore(ctx, userID, *sub.Score, sub.Mode, at)
	if err != nil {
		return nil, err
	}
	entry, err := s.store.GetScoreByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	metrics.ScoreSubmitted(string(entry.Mode), source)
	s.logger.Info("score recorded",
		zap.Uint("scoreId", entry.ID),
		zap.Uint("userId", entry.UserID),
		zap.Int("score", entry.Score),
		zap.String("mode", string(entry.Mode)),
		zap.String("source", source),
	)
	return entry, nil
}

func (s *LeaderboardService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("leaderboard cache invalidation failed", zap.Error(err))
	}
}

// Leaderboard returns ranked entries, served from the cache when possible.
// Cache errors are logged and the store is queried instead.
func (s *LeaderboardService) Leaderboard(ctx context.Context, q models.LeaderboardQuery) ([]models.LeaderboardEntry, error) {
	if q.Mode != "" && !q.Mode.Valid() {
		return nil, &models.ValidationError{Field: "mode", Message: "mode must be one of: wall, pass"}
	}
	if q.Limit < 0 {
		return nil, &models.ValidationError{Field: "limit", Message: "limit must not be negative"}
	}

	if s.cache == nil {
		metrics.LeaderboardRead("bypass")
		return s.query(ctx, q)
	}

	entries, gen, hit, err := s.cache.Get(ctx, q)
	switch {
	case err != nil:
		s.logger.Warn("leaderboard cache read failed", zap.Error(err))
		metrics.LeaderboardRead("bypass")
		return s.query(ctx, q)
	case hit:
		metrics.LeaderboardRead("hit")
		return entries, nil
	}

	metrics.LeaderboardRead("miss")
	entries, err = s.query(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, gen, q, entries); err != nil {
		s.logger.Warn("leaderboard cache write failed", zap.Error(err))
	}
	return entries, nil
}

func (s *LeaderboardService) query(ctx context.Context, q models.LeaderboardQuery) ([]models.LeaderboardEntry, error) {
	start := time.Now()
	entries, err := s.store.GetScores(ctx, q)
	metrics.ObserveLeaderboardQuery(time.Since(start))
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}
	return entries, nil
}

// ActivePlayers projects the top of the unfiltered leaderboard.
func (s *LeaderboardService) ActivePlayers(ctx context.Context) ([]models.ActivePlayer, error) {
	entries, err := s.Leaderboard(ctx, models.LeaderboardQuery{Limit: activePlayersLimit})
	if err != nil {
		return nil, err
	}
	return lo.Map(entries, func(e models.LeaderboardEntry, _ int) models.ActivePlayer {
		return models.ActivePlayer{ID: e.UserID, Username: e.Username, Score: e.Score, Mode: e.Mode}
	}), nil
}

// UserScores lists a user's scores, newest first. Unknown users are a NotFoundError.
func (s *LeaderboardService) UserScores(ctx context.Context, userID uint) ([]models.LeaderboardEntry, error) {
	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	entries, err := s.store.GetUserScores(ctx, userID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}
	return entries, nil
}

func (s *LeaderboardService) ScoreByID(ctx context.Context, id uint) (*models.LeaderboardEntry, error) {
	return s.store.GetScoreByID(ctx, id)
}
