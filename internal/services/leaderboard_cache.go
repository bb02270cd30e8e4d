package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"snake/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

const generationKey = "leaderboard:gen"

// LeaderboardCache stores ranked leaderboard reads between submissions.
//
// Get reports the generation it looked under, and Set writes under exactly
// that generation. A fill whose store read raced with a submission therefore
// lands on a generation nobody reads any more.
type LeaderboardCache interface {
	Get(ctx context.Context, q models.LeaderboardQuery) (entries []models.LeaderboardEntry, gen int64, hit bool, err error)
	Set(ctx context.Context, gen int64, q models.LeaderboardQuery, entries []models.LeaderboardEntry) error
	Invalidate(ctx context.Context) error
}

// RedisLeaderboardCache keys entries by a generation counter. Invalidate bumps
// the counter so older keys are never read again and simply expire.
type RedisLeaderboardCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisLeaderboardCache(rdb *redis.Client, ttl time.Duration) *RedisLeaderboardCache {
	return &RedisLeaderboardCache{rdb: rdb, ttl: ttl}
}

func (c *RedisLeaderboardCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, generationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("read cache generation: %w", err)
	}
	return gen, nil
}

func cacheKey(gen int64, q models.LeaderboardQuery) string {
	return fmt.Sprintf("leaderboard:%d:%s", gen, q.CacheKey())
}

func (c *RedisLeaderboardCache) Get(ctx context.Context, q models.LeaderboardQuery) ([]models.LeaderboardEntry, int64, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return nil, 0, false, err
	}
	raw, err := c.rdb.Get(ctx, cacheKey(gen, q)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, gen, false, fmt.Errorf("read cached leaderboard: %w", err)
	}
	var entries []models.LeaderboardEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, gen, false, fmt.Errorf("decode cached leaderboard: %w", err)
	}
	return entries, gen, true, nil
}

// Set stores entries under gen, the generation returned by the Get that missed.
func (c *RedisLeaderboardCache) Set(ctx context.Context, gen int64, q models.LeaderboardQuery, entries []models.LeaderboardEntry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode leaderboard: %w", err)
	}
	if err := c.rdb.Set(ctx, cacheKey(gen, q), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("write cached leaderboard: %w", err)
	}
	return nil
}

func (c *RedisLeaderboardCache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("bump cache generation: %w", err)
	}
	return nil
}
