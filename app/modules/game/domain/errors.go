package gamedomain

import (
	"errors"
	"fmt"
)

// ErrValidation matches every *ValidationError via errors.Is.
var ErrValidation = errors.New("validation failed")

// ErrExhaustedPromptPool is returned when a Blank has no unused Prompt left
// to bind. Game creation aborts with nothing persisted.
var ErrExhaustedPromptPool = errors.New("prompt pool exhausted")

// ErrUnknownVotingStyle is returned for a voting style with no strategy.
var ErrUnknownVotingStyle = errors.New("unknown voting style")

// ValidationError describes malformed input rejected before any mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
