package handlers

import (
	"net/http"

	"snake/backend/internal/middleware"
	"snake/backend/internal/models"
	"snake/backend/internal/services"
	"snake/backend/internal/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type LeaderboardHandler struct {
	Service LeaderboardService
	Logger  *zap.Logger
}

func NewLeaderboardHandler(svc LeaderboardService, logger *zap.Logger) *LeaderboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaderboardHandler{Service: svc, Logger: logger}
}

// GetLeaderboardHandler serves GET /leaderboard?limit=&mode=.
func (h *LeaderboardHandler) GetLeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit, err := utils.ParseLimit(query.Get("limit"), services.DefaultLeaderboardLimit, 1, services.MaxLeaderboardLimit)
	if err != nil {
		utils.JSONError(w, http.StatusUnprocessableEntity, "limit: "+err.Error())
		return
	}
	var mode models.GameMode
	if raw := query.Get("mode"); raw != "" {
		if mode, err = models.ParseGameMode(raw); err != nil {
			writeError(w, h.Logger, err)
			return
		}
	}

	entries, err := h.Service.Leaderboard(r.Context(), models.LeaderboardQuery{Limit: limit, Mode: mode})
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, models.LeaderboardResponse{Success: true, Leaderboard: entries})
}

// SubmitScoreHandler runs behind RequireAuth and ValidateRequest[*models.ScoreSubmission].
func (h *LeaderboardHandler) SubmitScoreHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.JSONError(w, http.StatusUnauthorized, utils.ErrMissingAuthHeader.Error())
		return
	}
	sub := middleware.GetValidatedRequest[*models.ScoreSubmission](r)

	entry, err := h.Service.SubmitScore(r.Context(), userID, *sub)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	utils.JSON(w, http.StatusCreated, models.ScoreResponse{Success: true, Score: *entry})
}

func (h *LeaderboardHandler) GetScoreHandler(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		utils.JSONError(w, http.StatusUnprocessableEntity, "id: must be a positive integer")
		return
	}
	entry, err := h.Service.ScoreByID(r.Context(), id)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, models.ScoreResponse{Success: true, Score: *entry})
}

// GetUserScoresHandler serves GET /users/{id}/scores, newest first.
func (h *LeaderboardHandler) GetUserScoresHandler(w http.ResponseWriter, r *http.Request) {
	id, err := utils.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		utils.JSONError(w, http.StatusUnprocessableEntity, "id: must be a positive integer")
		return
	}
	scores, err := h.Service.UserScores(r.Context(), id)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, models.UserScoresResponse{Success: true, Scores: scores})
}

func (h *LeaderboardHandler) ActivePlayersHandler(w http.ResponseWriter, r *http.Request) {
	players, err := h.Service.ActivePlayers(r.Context())
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, models.ActivePlayersResponse{Success: true, Players: players})
}
