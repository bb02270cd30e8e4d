package models

import (
	"net/mail"
	"regexp"
	"strings"
)

const (
	usernameMinLen = 3
	usernameMaxLen = 50
	passwordMinLen = 6
	// bcrypt ignores input past 72 bytes, so longer passwords are refused outright.
	passwordMaxBytes = 72
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// implements the Validator interface
func (r *SignupRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)

	if err := ValidateUsername(r.Username); err != nil {
		return err
	}
	if err := ValidateEmail(r.Email); err != nil {
		return err
	}
	return ValidatePassword(r.Password)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	if err := ValidateEmail(r.Email); err != nil {
		return err
	}
	return ValidatePassword(r.Password)
}

// ScoreSubmission is the body of POST /scores.
type ScoreSubmission struct {
	Score *int     `json:"score"`
	Mode  GameMode `json:"mode"`
}

func (r *ScoreSubmission) Validate() error {
	if r.Score == nil {
		return &ValidationError{Field: "score", Message: "score is required"}
	}
	if *r.Score < 0 {
		return &ValidationError{Field: "score", Message: "score must be greater than or equal to 0"}
	}
	if _, err := ParseGameMode(string(r.Mode)); err != nil {
		return err
	}
	return nil
}

func ValidateUsername(username string) error {
	if len(username) < usernameMinLen || len(username) > usernameMaxLen {
		return &ValidationError{Field: "username", Message: "username must be between 3 and 50 characters"}
	}
	if !usernamePattern.MatchString(username) {
		return &ValidationError{Field: "username", Message: "username may only contain letters, digits and underscores"}
	}
	return nil
}

func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return &ValidationError{Field: "email", Message: "email is not a valid address"}
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < passwordMinLen {
		return &ValidationError{Field: "password", Message: "password must be at least 6 characters"}
	}
	if len(password) > passwordMaxBytes {
		return &ValidationError{Field: "password", Message: "password must be at most 72 bytes"}
	}
	return nil
}
