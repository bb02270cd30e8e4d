package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"snake/backend/internal/models"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// leaderboardReader is satisfied by services.LeaderboardService.
type leaderboardReader interface {
	Leaderboard(ctx context.Context, q models.LeaderboardQuery) ([]models.LeaderboardEntry, error)
}

// WarmerConfig controls the cache-warming schedule.
type WarmerConfig struct {
	Enabled  bool
	Schedule string // cron spec, e.g. "@every 1m" or "*/5 * * * *"
	Limit    int
	Timeout  time.Duration
}

// LeaderboardWarmerJob periodically reads the default leaderboards so the
// first request after a submission does not pay for the ranking query.
type LeaderboardWarmerJob struct {
	reader leaderboardReader
	config WarmerConfig
	logger *zap.Logger
	cron   *cron.Cron
}

func NewLeaderboardWarmerJob(reader leaderboardReader, config WarmerConfig, logger *zap.Logger) *LeaderboardWarmerJob {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &LeaderboardWarmerJob{
		reader: reader,
		config: config,
		logger: logger,
		cron:   cron.New(),
	}
}

// Start schedules the job. It is a no-op when warming is disabled.
func (j *LeaderboardWarmerJob) Start() error {
	if !j.config.Enabled {
		j.logger.Info("leaderboard warmer disabled, skipping scheduler")
		return nil
	}

	_, err := j.cron.AddFunc(j.config.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.config.Timeout)
		defer cancel()
		if err := j.RunOnce(ctx); err != nil {
			j.logger.Warn("leaderboard warm run failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule leaderboard warmer: %w", err)
	}

	j.cron.Start()
	j.logger.Info("leaderboard warmer started", zap.String("schedule", j.config.Schedule))
	return nil
}

// Stop halts scheduling and waits for a running warm to finish.
func (j *LeaderboardWarmerJob) Stop() {
	if j.cron != nil {
		<-j.cron.Stop().Done()
	}
}

// RunOnce reads the unfiltered leaderboard and one per game mode.
func (j *LeaderboardWarmerJob) RunOnce(ctx context.Context) error {
	queries := []models.LeaderboardQuery{{Limit: j.config.Limit}}
	for _, mode := range models.Modes {
		queries = append(queries, models.LeaderboardQuery{Limit: j.config.Limit, Mode: mode})
	}

	var errs []error
	for _, q := range queries {
		if _, err := j.reader.Leaderboard(ctx, q); err != nil {
			errs = append(errs, fmt.Errorf("warm %s: %w", q.CacheKey(), err))
		}
	}
	return errors.Join(errs...)
}
