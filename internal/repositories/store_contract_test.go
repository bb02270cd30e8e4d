package repositories

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"snake/backend/internal/models"
	"snake/backend/internal/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backends runs fn once per Store implementation so both stay in lockstep.
func backends(t *testing.T, fn func(t *testing.T, store Store)) {
	t.Run("sql", func(t *testing.T) {
		store, err := NewSQLStore(testhelpers.SetupTestDB(t))
		require.NoError(t, err)
		fn(t, store)
	})
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryStore())
	})
}

func mustUser(t *testing.T, store Store, name string) uint {
	t.Helper()
	id, err := store.CreateUser(context.Background(), name, name+"@example.com", "hash")
	require.NoError(t, err)
	return id
}

func mustScore(t *testing.T, store Store, userID uint, score int, mode models.GameMode, ts time.Time) uint {
	t.Helper()
	id, err := store.CreateScore(context.Background(), userID, score, mode, ts)
	require.NoError(t, err)
	return id
}

func ids(entries []models.LeaderboardEntry) []uint {
	out := make([]uint, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func ranks(entries []models.LeaderboardEntry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		if e.Rank != nil {
			out[i] = *e.Rank
		}
	}
	return out
}

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestStore_CreateUser(t *testing.T) {
	backends(t, func(t *testing.T, store Store) {
		ctx := context.Background()

		first, err := store.CreateUser(ctx, "alice", "alice@example.com", "hash")
		require.NoError(t, err)
		second, err := store.CreateUser(ctx, "bob", "bob@example.com", "hash")
		require.NoError(t, err)
		assert.Greater(t, second, first)

		user, err := store.GetUserByID(ctx, first)
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.Equal(t, "hash", user.PasswordHash)

		_, err = store.CreateUser(ctx, "alice", "other@example.com", "hash")
		assert.ErrorIs(t, err, ErrConflict)
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "username", conflict.Field)

		_, err = store.CreateUser(ctx, "carol", "bob@example.com", "hash")
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "email", conflict.Field)
	})
}

func TestStore_UserLookups(t *testing.T) {
	backends(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		id := mustUser(t, store, "dave")

		byEmail, err := store.GetUserByEmail(ctx, "dave@example.com")
		require.NoError(t, err)
		assert.Equal(t, id, byEmail.ID)

		byName, err := store.GetUserByUsername(ctx, "dave")
		require.NoError(t, err)
		assert.Equal(t, id, byName.ID)

		_, err = store.GetUserByID(ctx, id+100)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = store.GetUserByEmail(ctx, "nobody@example.com")
		assert.Equal(t, ErrUserNotFound, err)
		_, err = store.GetUserByUsername(ctx, "nobody")
		assert.Equal(t, ErrUserNotFound, err)

		exists, err := store.UsernameExists(ctx, "dave")
		require.NoError(t, err)
		assert.True(t, exists)
		exists, err = store.UsernameExists(ctx, "erin")
		require.NoError(t, err)
		assert.False(t, exists)

		exists, err = store.EmailExists(ctx, "dave@example.com")
		require.NoError(t, err)
		assert.True(t, exists)
		exists, err = store.EmailExists(ctx, "erin@example.com")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestStore_ConcurrentSignupsWithSameUsername(t *testing.T) {
	backends(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		const workers = 8

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			created   int
			conflicts int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := store.CreateUser(ctx, "racer", fmt.Sprintf("racer%d@example.com", i), "hash")
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					created++
				case errors.Is(err, ErrConflict):
					conflicts++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 1, created)
		assert.Equal(t, workers-1, conflicts)
	})
}

func TestStore_CreateScoreRoundTrip(t *testing.T) {
	backends(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		userID := mustUser(t, store, "frank")
		ts := base.Add(1500 * time.Microsecond)

		scoreID := mustScore(t, store, userID, 250, models.ModeWall, ts)
		entry, err := store.GetScoreByID(ctx, scoreID)
		require.NoError(t, err)

		assert.Equal(t, scoreID, entry.ID)
		assert.Equal(t, userID, entry.UserID)
		assert.Equal(t, "frank", entry.Username)
		assert.Equal(t, 250, entry.Score)
		assert.Equal(t, models.ModeWall, entry.Mode)
		assert.Equal(t, ts.UnixMilli(), entry.Timestamp)
		assert.Nil(t, entry.Rank)

		_, err = store.GetScoreByID(ctx, scoreID+100)
		assert.Equal(t, ErrScoreNotFound, err)
	})
}

func TestStore_CreateScoreDefaultsTimestamp(t *testing.T) {
	backends(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		userID := mustUser(t, store, "gina")

		before := time.Now().UTC().Truncate(time.Millisecond)
		scoreID := mustScore(t, store, userID, 10, models.ModePass, time.Time{})
		after := time.Now().UTC()

		entry, err := store.GetScoreByID(ctx, scoreID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, entry.Timestamp, before.UnixMilli())
		assert.LessOrEqual(t, entry.Timestamp, after.UnixMilli())
	})
}

func TestStore_CreateScoreRejectsUnknownUser(t *testing.T) {
	backends(t, func(t *testing.T, store Store) {
		ctx := context.Background()

		_, err := store.CreateScore(ctx, 999, 100, models.ModeWall, base)
		assert.Equal(t, ErrUserNotFound, err)

		scores, err := store.GetScores(ctx, models.LeaderboardQuery{})
		require.NoError(t, err)
		assert.Empty(t, scores)
	})
}

func TestStore_CreateScoreValidatesInput(t *testing.T) {
	backends(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		userID := mustUser(t, store, "hank")

		_, err := store.CreateScore(ctx, userID, -5, models.ModeWall, base)
		assert.ErrorIs(t, err, models.ErrValidation)

		_, err = store.CreateScore(ctx, userID, 5, models.GameMode("portal"), base)
		assert.ErrorIs(t, err, models.ErrValidation)

		scores, err := store.GetUserScores(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, scores)
	})
}

func TestStore_GetScoresScenario(t *testing.T) {
	backends(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		a := mustScore(t, store, mustUser(t, store, "player_a"), 850, models.ModeWall, base)
		b := mustScore(t, store, mustUser(t, store, "player_b"), 750, models.ModeWall, base.Add(time.Second))
		c := mustScore(t, store, mustUser(t, store, "player_c"), 680, models.ModePass, base.Add(2*time.Second))

		all, err := store.GetScores(ctx, models.LeaderboardQuery{})
		require.NoError(t, err)
		assert.Equal(t, []uint{a, b, c}, ids(all))
		assert.Equal(t, []int{1, 2, 3}, ranks(all))
		assert.Equal(t, "player_a", all[0].Username)

		wall, err := store.GetScores(ctx, models.LeaderboardQuery{Mode: models.ModeWall})
		require.NoError(t, err)
		assert.Equal(t, []uint{a, b}, ids(wall))
		assert.Equal(t, []int{1, 2}, ranks(wall))

		top, err := store.GetScores(ctx, models.LeaderboardQuery{Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, []uint{a}, ids(top))
		assert.Equal(t, []int{1}, ranks(top))

		pass, err := store.GetScores(ctx, models.LeaderboardQuery{Mode: models.ModePass, Limit: 5})
		require.NoError(t, err)
		assert.Equal(t, []uint{c}, ids(pass))
		assert.Equal(t, []int{1}, ranks(pass))
	})
}

func TestStore_GetScoresTieBreak(t *testing.T) {
	backends(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		userID := mustUser(t, store, "ivan")

		late := mustScore(t, store, userID, 400, models.ModeWall, base.Add(time.Minute))
		early := mustScore(t, store, userID, 400, models.ModeWall, base)
		sameA := mustScore(t, store, userID, 300, models.ModeWall, base)
		sameB := mustScore(t, store, userID, 300, models.ModeWall, base)

		got, err := store.GetScores(ctx, models.LeaderboardQuery{})
		require.NoError(t, err)
		assert.Equal(t, []uint{early, late, sameA, sameB}, ids(got))
		assert.Equal(t, []int{1, 2, 3, 4}, ranks(got))
	})
}

func TestStore_GetScoresOrderingProperties(t *testing.T) {
	backends(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		users := []uint{mustUser(t, store, "u_one"), mustUser(t, store, "u_two"), mustUser(t, store, "u_three")}
		values := []int{5, 90, 40, 40, 0, 75, 12, 90, 33, 61}
		for i, v := range values {
			mode := models.ModeWall
			if i%3 == 0 {
				mode = models.ModePass
			}
			mustScore(t, store, users[i%len(users)], v, mode, base.Add(time.Duration(i)*time.Second))
		}

		for _, q := range []models.LeaderboardQuery{
			{},
			{Limit: 3},
			{Mode: models.ModeWall},
			{Mode: models.ModePass, Limit: 2},
			{Limit: 100},
		} {
			got, err := store.GetScores(ctx, q)
			require.NoError(t, err)
			full, err := store.GetScores(ctx, models.LeaderboardQuery{Mode: q.Mode})
			require.NoError(t, err)

			if q.Limit > 0 {
				assert.LessOrEqual(t, len(got), q.Limit)
			}
			for i, e := range got {
				if q.Mode != "" {
					assert.Equal(t, q.Mode, e.Mode)
				}
				require.NotNil(t, e.Rank)
				assert.Equal(t, i+1, *e.Rank)
				if i > 0 {
					assert.LessOrEqual(t, e.Score, got[i-1].Score)
				}
				assert.Equal(t, full[i].ID, e.ID)
			}
		}
	})
}

func TestStore_GetUserScores(t *testing.T) {
	backends(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		jack := mustUser(t, store, "jack")
		kate := mustUser(t, store, "kate")

		oldest := mustScore(t, store, jack, 100, models.ModeWall, base)
		newest := mustScore(t, store, jack, 50, models.ModePass, base.Add(2*time.Hour))
		middle := mustScore(t, store, jack, 75, models.ModeWall, base.Add(time.Hour))
		mustScore(t, store, kate, 999, models.ModeWall, base)

		got, err := store.GetUserScores(ctx, jack)
		require.NoError(t, err)
		assert.Equal(t, []uint{newest, middle, oldest}, ids(got))
		for _, e := range got {
			assert.Equal(t, "jack", e.Username)
			assert.Nil(t, e.Rank)
		}

		none, err := store.GetUserScores(ctx, 12345)
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestStore_Ping(t *testing.T) {
	backends(t, func(t *testing.T, store Store) {
		assert.NoError(t, store.Ping(context.Background()))
	})
}
