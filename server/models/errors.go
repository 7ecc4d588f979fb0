package models

import (
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ValidationError lists every problem found with a caller supplied payload.
type ValidationError struct {
	Problems []string
}

func NewValidationError(problems ...string) *ValidationError {
	return &ValidationError{Problems: problems}
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

// InvalidTransitionError wraps ErrInvalidTransition with the statuses involved.
func InvalidTransitionError(from, to string) error {
	if to == "" {
		return errors.Wrapf(ErrInvalidTransition, "request is '%v' and can no longer be changed", from)
	}
	return errors.Wrapf(ErrInvalidTransition, "cannot move request from '%v' to '%v'", from, to)
}

func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}
