package models

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type AuthResponse struct {
	Success bool       `json:"success"`
	User    PublicUser `json:"user"`
	Token   string     `json:"token,omitempty"`
}

type LeaderboardResponse struct {
	Success     bool               `json:"success"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

type ScoreResponse struct {
	Success bool             `json:"success"`
	Score   LeaderboardEntry `json:"score"`
}

type UserScoresResponse struct {
	Success bool               `json:"success"`
	Scores  []LeaderboardEntry `json:"scores"`
}

type ActivePlayersResponse struct {
	Success bool           `json:"success"`
	Players []ActivePlayer `json:"players"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}
