package trading

import (
	"errors"
	"strings"
)

var (
	// ErrTradeNotFound is returned when no active version exists for a trade id.
	ErrTradeNotFound = errors.New("trade not found")

	// ErrVersionConflict is returned when the active version changed between
	// read and supersede, i.e. a concurrent amendment won the race.
	ErrVersionConflict = errors.New("trade version conflict")
)

// ValidationError carries the accumulated business rule failures for a
// rejected submission. Nothing is persisted when one is returned.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// NewValidationError builds a ValidationError from a failed result.
func NewValidationError(result ValidationResult) *ValidationError {
	return &ValidationError{Messages: result.Errors()}
}
