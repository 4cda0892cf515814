package foreman

import (
	"errors"
	"fmt"
	"time"
)

var (
	// Not found errors.
	ErrJobNotFound = errors.New("foreman: job not found")

	// Conflict errors.
	ErrJobAlreadyExists = errors.New("foreman: job already exists")

	// Validation errors.
	ErrValidation = errors.New("foreman: validation failed")

	// State errors.
	ErrInvalidState = errors.New("foreman: invalid state transition")

	// Timeout errors. Returned by the worker when a handler exceeds its
	// execution deadline.
	ErrTimeout = errors.New("foreman: operation timed out")

	// Factory errors.
	ErrUnknownBackend = errors.New("foreman: unknown manager backend")
)

// NotFoundError reports a job identifier absent from the store.
// It matches ErrJobNotFound under errors.Is.
type NotFoundError struct {
	JobID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("foreman: job %q not found", e.JobID)
}

// Is reports whether target is ErrJobNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrJobNotFound }

// ValidationError reports malformed input to a lifecycle operation.
// It matches ErrValidation under errors.Is.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("foreman: validation failed for field %q: %s", e.Field, e.Reason)
	}
	return "foreman: validation failed: " + e.Reason
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// StateError reports a transition attempted outside the state graph,
// carrying the from/to states for diagnostics. From and To are empty
// when the violation concerns the manager's own lifecycle state rather
// than a job transition. It matches ErrInvalidState under errors.Is.
type StateError struct {
	From   string
	To     string
	Reason string
}

func (e *StateError) Error() string {
	if e.From != "" && e.To != "" {
		return fmt.Sprintf("foreman: invalid state transition from %q to %q: %s", e.From, e.To, e.Reason)
	}
	return "foreman: invalid state: " + e.Reason
}

// Is reports whether target is ErrInvalidState.
func (e *StateError) Is(target error) bool { return target == ErrInvalidState }

// TimeoutError reports a job handler that exceeded its execution
// deadline. It matches ErrTimeout under errors.Is.
type TimeoutError struct {
	JobID   string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("foreman: job %q timed out after %s", e.JobID, e.Timeout)
}

// Is reports whether target is ErrTimeout.
func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }
