package domain

import (
	"errors"
	"fmt"
)

var (
	ErrRequired          = errors.New("is required")
	ErrMissingReference  = errors.New("subscription_id or user_id must be set")
	ErrSensitiveContent  = errors.New("contains a sensitive field name")
	ErrEmptyHistory      = errors.New("status history is empty")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError is returned when a value fails a write-time invariant.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
