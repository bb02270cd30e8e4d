package handlers

import (
	"errors"
	"net/http"
	"time"

	"snake/backend/internal/metrics"
	"snake/backend/internal/middleware"
	"snake/backend/internal/models"
	"snake/backend/internal/repositories"
	"snake/backend/internal/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const invalidCredentials = "Invalid email or password"

// AuthHandler manages authentication endpoints.
type AuthHandler struct {
	Users      UserStore
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
	Logger     *zap.Logger
}

func NewAuthHandler(users UserStore, secret string, ttl time.Duration, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{Users: users, JWTSecret: secret, TokenTTL: ttl, BcryptCost: bcrypt.DefaultCost, Logger: logger}
}

// SignupHandler expects a *models.SignupRequest validated by middleware.
func (h *AuthHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.SignupRequest](r)
	ctx := r.Context()

	// Fast path only; the unique indexes decide races below.
	if taken, err := h.Users.EmailExists(ctx, req.Email); err != nil {
		writeError(w, h.Logger, err)
		return
	} else if taken {
		h.conflict(w, repositories.ErrEmailTaken)
		return
	}
	if taken, err := h.Users.UsernameExists(ctx, req.Username); err != nil {
		writeError(w, h.Logger, err)
		return
	} else if taken {
		h.conflict(w, repositories.ErrUsernameTaken)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.BcryptCost)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	userID, err := h.Users.CreateUser(ctx, req.Username, req.Email, string(hash))
	var conflict *repositories.ConflictError
	if errors.As(err, &conflict) {
		h.conflict(w, conflict)
		return
	}
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	user, err := h.Users.GetUserByID(ctx, userID)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	h.respondWithToken(w, http.StatusCreated, user)
}

func (h *AuthHandler) conflict(w http.ResponseWriter, err *repositories.ConflictError) {
	metrics.SignupConflict(err.Field)
	writeError(w, h.Logger, err)
}

// LoginHandler expects a *models.LoginRequest validated by middleware.
func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.LoginRequest](r)

	user, err := h.Users.GetUserByEmail(r.Context(), req.Email)
	if errors.Is(err, repositories.ErrNotFound) {
		utils.JSONError(w, http.StatusUnauthorized, invalidCredentials)
		return
	}
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		utils.JSONError(w, http.StatusUnauthorized, invalidCredentials)
		return
	}
	h.respondWithToken(w, http.StatusOK, user)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, status int, user *models.User) {
	token, err := utils.IssueToken(user.ID, user.Username, h.JWTSecret, h.TokenTTL)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	utils.JSON(w, status, models.AuthResponse{Success: true, User: user.Public(), Token: token})
}

// LogoutHandler is stateless: tokens simply expire.
func (h *AuthHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, models.SuccessResponse{Success: true})
}

// MeHandler must run behind middleware.RequireAuth.
func (h *AuthHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		utils.JSONError(w, http.StatusUnauthorized, utils.ErrMissingAuthHeader.Error())
		return
	}
	user, err := h.Users.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	utils.JSON(w, http.StatusOK, user.Public())
}
