package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"snake/backend/internal/models"
	"snake/backend/internal/repositories"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupTestRedis creates a miniredis instance and a redis client for testing
func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return mr, client
}

func intPtr(v int) *int { return &v }

func mustUser(t *testing.T, store repositories.Store, name string) uint {
	t.Helper()
	id, err := store.CreateUser(context.Background(), name, name+"@example.com", "hash")
	require.NoError(t, err)
	return id
}

type failingCache struct {
	invalidations int
}

func (c *failingCache) Get(context.Context, models.LeaderboardQuery) ([]models.LeaderboardEntry, int64, bool, error) {
	return nil, 0, false, errors.New("cache down")
}

func (c *failingCache) Set(context.Context, int64, models.LeaderboardQuery, []models.LeaderboardEntry) error {
	return errors.New("cache down")
}

func (c *failingCache) Invalidate(context.Context) error {
	c.invalidations++
	return errors.New("cache down")
}

func TestSubmitScoreReturnsJoinedEntry(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	svc := NewLeaderboardService(store, nil, zap.NewNop())
	uid := mustUser(t, store, "alice")

	entry, err := svc.SubmitScore(ctx, uid, models.ScoreSubmission{Score: intPtr(120), Mode: models.ModeWall})
	require.NoError(t, err)

	assert.NotZero(t, entry.ID)
	assert.Equal(t, uid, entry.UserID)
	assert.Equal(t, "alice", entry.Username)
	assert.Equal(t, 120, entry.Score)
	assert.Equal(t, models.ModeWall, entry.Mode)
	assert.Nil(t, entry.Rank)
}

func TestSubmitScoreValidation(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	svc := NewLeaderboardService(store, nil, nil)
	uid := mustUser(t, store, "alice")

	_, err := svc.SubmitScore(ctx, uid, models.ScoreSubmission{Score: intPtr(-1), Mode: models.ModeWall})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.SubmitScore(ctx, uid, models.ScoreSubmission{Score: intPtr(10), Mode: "portal"})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.SubmitScore(ctx, uid, models.ScoreSubmission{Mode: models.ModePass})
	assert.ErrorIs(t, err, models.ErrValidation)

	scores, err := store.GetUserScores(ctx, uid)
	require.NoError(t, err)
	assert.Empty(t, scores)
}

func TestSubmitScoreUnknownUser(t *testing.T) {
	svc := NewLeaderboardService(repositories.NewMemoryStore(), nil, nil)

	_, err := svc.SubmitScore(context.Background(), 99, models.ScoreSubmission{Score: intPtr(1), Mode: models.ModeWall})

	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestLeaderboardScenario(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	svc := NewLeaderboardService(store, nil, nil)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, tc := range []struct {
		name  string
		score int
		mode  models.GameMode
	}{
		{"player_a", 850, models.ModeWall},
		{"player_b", 750, models.ModeWall},
		{"player_c", 680, models.ModePass},
	} {
		uid := mustUser(t, store, tc.name)
		_, err := svc.RecordGameResult(ctx, uid, models.ScoreSubmission{Score: intPtr(tc.score), Mode: tc.mode}, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	all, err := svc.Leaderboard(ctx, models.LeaderboardQuery{Limit: DefaultLeaderboardLimit})
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, want := range []string{"player_a", "player_b", "player_c"} {
		assert.Equal(t, want, all[i].Username)
		require.NotNil(t, all[i].Rank)
		assert.Equal(t, i+1, *all[i].Rank)
	}
	assert.Equal(t, base.UnixMilli(), all[0].Timestamp)

	wall, err := svc.Leaderboard(ctx, models.LeaderboardQuery{Limit: DefaultLeaderboardLimit, Mode: models.ModeWall})
	require.NoError(t, err)
	require.Len(t, wall, 2)
	assert.Equal(t, 850, wall[0].Score)
	assert.Equal(t, 750, wall[1].Score)

	players, err := svc.ActivePlayers(ctx)
	require.NoError(t, err)
	require.Len(t, players, 3)
	assert.Equal(t, models.ActivePlayer{ID: all[0].UserID, Username: "player_a", Score: 850, Mode: models.ModeWall}, players[0])
}

func TestLeaderboardRejectsUnknownMode(t *testing.T) {
	svc := NewLeaderboardService(repositories.NewMemoryStore(), nil, nil)

	_, err := svc.Leaderboard(context.Background(), models.LeaderboardQuery{Limit: 10, Mode: "portal"})

	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestLeaderboardEmptyIsNotNil(t *testing.T) {
	svc := NewLeaderboardService(repositories.NewMemoryStore(), nil, nil)

	entries, err := svc.Leaderboard(context.Background(), models.LeaderboardQuery{Limit: 10})

	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestActivePlayersTopThree(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	svc := NewLeaderboardService(store, nil, nil)
	uid := mustUser(t, store, "alice")
	for _, score := range []int{10, 40, 30, 20} {
		_, err := svc.SubmitScore(ctx, uid, models.ScoreSubmission{Score: intPtr(score), Mode: models.ModePass})
		require.NoError(t, err)
	}

	players, err := svc.ActivePlayers(ctx)
	require.NoError(t, err)

	require.Len(t, players, 3)
	assert.Equal(t, []int{40, 30, 20}, []int{players[0].Score, players[1].Score, players[2].Score})
}

func TestUserScores(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	svc := NewLeaderboardService(store, nil, nil)
	uid := mustUser(t, store, "alice")

	empty, err := svc.UserScores(ctx, uid)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = svc.RecordGameResult(ctx, uid, models.ScoreSubmission{Score: intPtr(5), Mode: models.ModeWall}, base)
	require.NoError(t, err)
	_, err = svc.RecordGameResult(ctx, uid, models.ScoreSubmission{Score: intPtr(9), Mode: models.ModeWall}, base.Add(time.Hour))
	require.NoError(t, err)

	scores, err := svc.UserScores(ctx, uid)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, 9, scores[0].Score)

	_, err = svc.UserScores(ctx, 404)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestScoreByID(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	svc := NewLeaderboardService(store, nil, nil)
	uid := mustUser(t, store, "alice")

	created, err := svc.SubmitScore(ctx, uid, models.ScoreSubmission{Score: intPtr(77), Mode: models.ModePass})
	require.NoError(t, err)

	got, err := svc.ScoreByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = svc.ScoreByID(ctx, created.ID+1)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestLeaderboardReadThroughCache(t *testing.T) {
	ctx := context.Background()
	mr, rdb := setupTestRedis(t)
	store := repositories.NewMemoryStore()
	svc := NewLeaderboardService(store, NewRedisLeaderboardCache(rdb, time.Minute), zap.NewNop())
	uid := mustUser(t, store, "alice")

	_, err := svc.SubmitScore(ctx, uid, models.ScoreSubmission{Score: intPtr(100), Mode: models.ModeWall})
	require.NoError(t, err)

	first, err := svc.Leaderboard(ctx, models.LeaderboardQuery{Limit: 10})
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.True(t, mr.Exists("leaderboard:1:all:10"))
	assert.Equal(t, time.Minute, mr.TTL("leaderboard:1:all:10"))

	// A write that bypasses the service is invisible until the next invalidation.
	_, err = store.CreateScore(ctx, uid, 500, models.ModeWall, time.Time{})
	require.NoError(t, err)
	cached, err := svc.Leaderboard(ctx, models.LeaderboardQuery{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	_, err = svc.SubmitScore(ctx, uid, models.ScoreSubmission{Score: intPtr(300), Mode: models.ModePass})
	require.NoError(t, err)

	fresh, err := svc.Leaderboard(ctx, models.LeaderboardQuery{Limit: 10})
	require.NoError(t, err)
	require.Len(t, fresh, 3)
	assert.Equal(t, []int{500, 300, 100}, []int{fresh[0].Score, fresh[1].Score, fresh[2].Score})
}

// submitAfterReadStore commits a submission right after the first GetScores
// has taken its snapshot, before the caller gets to fill the cache.
type submitAfterReadStore struct {
	repositories.Store
	afterRead func()
}

func (s *submitAfterReadStore) GetScores(ctx context.Context, q models.LeaderboardQuery) ([]models.LeaderboardEntry, error) {
	entries, err := s.Store.GetScores(ctx, q)
	if s.afterRead != nil {
		hook := s.afterRead
		s.afterRead = nil
		hook()
	}
	return entries, err
}

func TestLeaderboardFillRacingSubmissionIsNotServed(t *testing.T) {
	ctx := context.Background()
	mr, rdb := setupTestRedis(t)
	mem := repositories.NewMemoryStore()
	uid := mustUser(t, mem, "alice")
	store := &submitAfterReadStore{Store: mem}
	svc := NewLeaderboardService(store, NewRedisLeaderboardCache(rdb, 0), zap.NewNop())
	q := models.LeaderboardQuery{Limit: 10}

	store.afterRead = func() {
		_, err := svc.SubmitScore(ctx, uid, models.ScoreSubmission{Score: intPtr(640), Mode: models.ModeWall})
		require.NoError(t, err)
	}

	stale, err := svc.Leaderboard(ctx, q)
	require.NoError(t, err)
	assert.Empty(t, stale)

	// The stale fill went to the generation the read started on.
	assert.True(t, mr.Exists("leaderboard:0:all:10"))
	assert.False(t, mr.Exists("leaderboard:1:all:10"))

	next, err := svc.Leaderboard(ctx, q)
	require.NoError(t, err)
	require.Len(t, next, 1)
	assert.Equal(t, 640, next[0].Score)
}

func TestLeaderboardCacheFailureFallsBackToStore(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	cache := &failingCache{}
	svc := NewLeaderboardService(store, cache, zap.NewNop())
	uid := mustUser(t, store, "alice")

	_, err := svc.SubmitScore(ctx, uid, models.ScoreSubmission{Score: intPtr(100), Mode: models.ModeWall})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.invalidations)

	entries, err := svc.Leaderboard(ctx, models.LeaderboardQuery{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLeaderboardRedisDownFallsBackToStore(t *testing.T) {
	ctx := context.Background()
	mr, rdb := setupTestRedis(t)
	store := repositories.NewMemoryStore()
	svc := NewLeaderboardService(store, NewRedisLeaderboardCache(rdb, time.Minute), zap.NewNop())
	uid := mustUser(t, store, "alice")
	_, err := store.CreateScore(ctx, uid, 42, models.ModePass, time.Time{})
	require.NoError(t, err)

	mr.Close()

	entries, err := svc.Leaderboard(ctx, models.LeaderboardQuery{Limit: 10})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 42, entries[0].Score)
}
