package repositories

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Sentinel error kinds. Typed errors below match them through errors.Is.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// NotFoundError reports a reference to a user or score that does not exist.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ConflictError reports a duplicate value for a unique user field.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string { return e.Field + " already exists" }

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

var (
	ErrUserNotFound  = &NotFoundError{Resource: "user"}
	ErrScoreNotFound = &NotFoundError{Resource: "score"}
	ErrUsernameTaken = &ConflictError{Field: "username"}
	ErrEmailTaken    = &ConflictError{Field: "email"}
)

// isDuplicateKey recognises unique-index violations. Drivers opened without
// TranslateError still surface their native messages, hence the fallback.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}

func isForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "FOREIGN KEY constraint failed") || strings.Contains(msg, "violates foreign key constraint")
}
