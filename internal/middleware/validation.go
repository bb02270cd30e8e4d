package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"reflect"

	"snake/backend/internal/utils"
)

type contextKey string

const (
	validatedRequestKey contextKey = "validated_request"
	userIDKey           contextKey = "user_id"
)

// request models implement this interface
type Validator interface {
	Validate() error
}

// ValidateRequest decodes the JSON body into a fresh T, runs its Validate
// method and stores the result in the request context. Undecodable bodies and
// failed validation both answer 422.
func ValidateRequest[T Validator]() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req T
			reqType := reflect.TypeOf(req)
			if reqType.Kind() == reflect.Ptr {
				req = reflect.New(reqType.Elem()).Interface().(T)
			} else {
				req = reflect.New(reqType).Interface().(T)
			}

			if err := json.NewDecoder(r.Body).Decode(req); err != nil {
				utils.JSONError(w, http.StatusUnprocessableEntity, "invalid JSON in request body")
				return
			}

			if err := req.Validate(); err != nil {
				utils.JSONError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), validatedRequestKey, req)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetValidatedRequest retrieves the validated request from context
func GetValidatedRequest[T any](r *http.Request) T {
	return r.Context().Value(validatedRequestKey).(T)
}
