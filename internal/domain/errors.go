package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDepotNotFound reports an unknown depot id.
	ErrDepotNotFound = errors.New("depot not found")

	// ErrJobNotFound reports an unknown planning job id.
	ErrJobNotFound = errors.New("planning job not found")

	// ErrJobAlreadyClaimed reports a lost pending->processing claim race.
	ErrJobAlreadyClaimed = errors.New("planning job already claimed")

	// ErrNoWaypoints reports an empty working set after repository filtering.
	ErrNoWaypoints = errors.New("no waypoints to plan")

	// ErrAssistantUnavailable reports that the AI assistant is not configured,
	// errored, or exhausted its tool-call budget without finalizing.
	ErrAssistantUnavailable = errors.New("route assistant unavailable")
)

// ValidationError reports a malformed planning request field.
// Rejected before any computation begins, never silently defaulted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
