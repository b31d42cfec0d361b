package model

import (
	"errors"
	"fmt"

	"dayplan/internal/clock"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidTransition   = errors.New("invalid timer transition")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrScheduleStarted     = errors.New("schedule already has execution history")
	ErrDayOverflow         = clock.ErrDayOverflow
)

// ValidationError reports a malformed input field.
type ValidationError struct {
	Field   string
	Index   int
	Message string
	Err     error
}

func Invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Index: -1, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("item %d: %s", e.Index, e.Message)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error { return e.Err }

func withIndex(err error, index int) error {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		copied := *vErr
		copied.Index = index
		return &copied
	}
	return err
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}
