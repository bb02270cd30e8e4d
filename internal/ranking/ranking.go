// Package ranking orders scores into a leaderboard.
//
// Ranks are never stored: every read filters, sorts and numbers the rows it
// returns. Both storage backends share the comparator defined here so a given
// set of scores ranks identically regardless of where it lives.
package ranking

import (
	"cmp"
	"slices"

	"snake/backend/internal/models"

	"github.com/samber/lo"
)

// Compare orders a before b when it scores higher. Equal scores fall back to the
// earlier timestamp, then to the lower id.
func Compare(a, b models.LeaderboardEntry) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Timestamp, b.Timestamp); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// Less reports whether a ranks strictly ahead of b.
func Less(a, b models.LeaderboardEntry) bool {
	return Compare(a, b) < 0
}

// Rank filters entries by q.Mode, sorts them, numbers them from 1 and keeps the
// first q.Limit. The input slice is left untouched.
func Rank(entries []models.LeaderboardEntry, q models.LeaderboardQuery) []models.LeaderboardEntry {
	ranked := lo.Filter(entries, func(e models.LeaderboardEntry, _ int) bool {
		return q.Mode == "" || e.Mode == q.Mode
	})
	slices.SortStableFunc(ranked, Compare)
	AssignRanks(ranked)
	return Truncate(ranked, q.Limit)
}

// AssignRanks numbers already ordered entries 1..n in place.
func AssignRanks(entries []models.LeaderboardEntry) {
	for i := range entries {
		rank := i + 1
		entries[i].Rank = &rank
	}
}

// Truncate keeps at most limit entries. A limit <= 0 keeps everything.
func Truncate(entries []models.LeaderboardEntry, limit int) []models.LeaderboardEntry {
	if limit <= 0 || len(entries) <= limit {
		return entries
	}
	return entries[:limit]
}
