package database

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrInvalidState  = errors.New("booking status does not allow this transition")
	ErrNotOwner      = errors.New("booking belongs to another user")
	ErrEmailTaken    = errors.New("email is already registered")
	ErrResourceInUse = errors.New("resource has pending or approved bookings")
	ErrPastDate      = errors.New("booking date is in the past")
	ErrDateTooFar    = errors.New("booking date is too far in the future")
)

// ConflictError is returned when a requested window collides with an
// existing pending/approved booking on the same resource and date.
type ConflictError struct {
	ConflictingID int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("time window conflicts with booking %d", e.ConflictingID)
}

// ValidationError carries a caller-facing message for malformed input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
