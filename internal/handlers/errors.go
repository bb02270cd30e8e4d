package handlers

import (
	"errors"
	"net/http"

	"snake/backend/internal/models"
	"snake/backend/internal/repositories"
	"snake/backend/internal/utils"

	"go.uber.org/zap"
)

// writeError maps domain error kinds onto HTTP statuses. Anything unrecognised
// is logged and reported as a 500 without leaking the cause.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var (
		validation *models.ValidationError
		conflict   *repositories.ConflictError
		notFound   *repositories.NotFoundError
	)
	switch {
	case errors.As(err, &validation):
		utils.JSONError(w, http.StatusUnprocessableEntity, validation.Error())
	case errors.As(err, &conflict):
		utils.JSONError(w, http.StatusConflict, conflictMessage(conflict.Field))
	case errors.As(err, &notFound):
		utils.JSONError(w, http.StatusNotFound, notFoundMessage(notFound.Resource))
	case errors.Is(err, repositories.ErrConflict):
		utils.JSONError(w, http.StatusConflict, "User already exists")
	default:
		logger.Error("request failed", zap.Error(err))
		utils.JSONError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func conflictMessage(field string) string {
	switch field {
	case "email":
		return "Email already exists"
	case "username":
		return "Username already exists"
	default:
		return "User already exists"
	}
}

func notFoundMessage(resource string) string {
	switch resource {
	case "user":
		return "User not found"
	case "score":
		return "Score not found"
	default:
		return "Not found"
	}
}
