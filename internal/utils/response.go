package utils

import (
	"encoding/json"
	"net/http"

	"snake/backend/internal/models"
)

// JSON writes a JSON response with status code
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// JSONError writes the uniform {success:false, error} body.
func JSONError(w http.ResponseWriter, status int, message string) {
	JSON(w, status, models.ErrorResponse{Success: false, Error: message})
}
