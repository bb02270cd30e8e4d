package models

import (
	"strconv"
	"time"
)

// GameMode partitions scores into separate leaderboards.
type GameMode string

const (
	ModeWall GameMode = "wall"
	ModePass GameMode = "pass"
)

// Modes lists every supported game mode.
var Modes = []GameMode{ModeWall, ModePass}

func (m GameMode) Valid() bool {
	return m == ModeWall || m == ModePass
}

// ParseGameMode accepts the wire spelling of a mode.
func ParseGameMode(s string) (GameMode, error) {
	m := GameMode(s)
	if !m.Valid() {
		return "", &ValidationError{Field: "mode", Message: "mode must be one of: wall, pass"}
	}
	return m, nil
}

// Score is a single persisted game result. Rows are immutable once written.
type Score struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;index"`
	User      User      `gorm:"constraint:OnDelete:CASCADE"`
	Score     int       `gorm:"not null;index"`
	Mode      GameMode  `gorm:"type:varchar(8);not null;index"`
	Timestamp time.Time `gorm:"not null;index"`
}

// LeaderboardEntry is the joined, optionally ranked view of a score.
type LeaderboardEntry struct {
	ID        uint     `json:"id"`
	UserID    uint     `json:"userId"`
	Username  string   `json:"username"`
	Score     int      `json:"score"`
	Mode      GameMode `json:"mode"`
	Timestamp int64    `json:"timestamp"`
	Rank      *int     `json:"rank,omitempty"`
}

// NewLeaderboardEntry joins a score row with its owner's username. Rank is left unset.
func NewLeaderboardEntry(s *Score, username string) LeaderboardEntry {
	return LeaderboardEntry{
		ID:        s.ID,
		UserID:    s.UserID,
		Username:  username,
		Score:     s.Score,
		Mode:      s.Mode,
		Timestamp: s.Timestamp.UnixMilli(),
	}
}

// LeaderboardQuery narrows a leaderboard read. Zero values mean "no limit" and "all modes".
type LeaderboardQuery struct {
	Limit int
	Mode  GameMode
}

// CacheKey identifies the query independent of any cache generation.
func (q LeaderboardQuery) CacheKey() string {
	mode := string(q.Mode)
	if mode == "" {
		mode = "all"
	}
	return mode + ":" + strconv.Itoa(q.Limit)
}

// ActivePlayer is the projection served by the active-players endpoint.
type ActivePlayer struct {
	ID       uint     `json:"id"`
	Username string   `json:"username"`
	Score    int      `json:"score"`
	Mode     GameMode `json:"mode"`
}
