package interview

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced to callers. All failures except the approval
// fail-open path leave session state exactly as it was before the call.
var (
	// ErrSessionNotFound indicates an unknown conversation ID.
	ErrSessionNotFound = errors.New("session not found")

	// ErrConflict indicates a concurrent submission for the same
	// conversation. The in-flight call wins; the caller should retry.
	ErrConflict = errors.New("submission already in flight for this session")
)

// ValidationError indicates malformed or missing required input. No state
// change occurs.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s", e.Reason)
}

// NewValidationError builds a ValidationError with a formatted reason.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// ProtocolViolationError indicates an illegal transition or duplicate
// operation. It signals a caller bug, not a transient condition.
type ProtocolViolationError struct {
	Reason string
}

func (e *ProtocolViolationError) Error() string {
	return fmt.Sprintf("protocol violation: %s", e.Reason)
}

// NewProtocolViolation builds a ProtocolViolationError with a formatted reason.
func NewProtocolViolation(format string, args ...any) *ProtocolViolationError {
	return &ProtocolViolationError{Reason: fmt.Sprintf(format, args...)}
}

// GenerationError wraps a failure of the text-generation collaborator. The
// session is left in its last-committed state, so retrying the same step is
// safe.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// StorageError wraps a transient persistence failure. Writes are
// all-or-nothing per step, so stored data is never left partially updated.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failed: %v", e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
