package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// Application exit codes define the standard exit statuses for the application.
// Individual task failures never change the exit code; only setup problems do.
const (
	ExitSuccess       = 0   // Indicates successful execution.
	ExitErrorGeneric  = 1   // Indicates a generic error.
	ExitErrorConfig   = 4   // Indicates a configuration error.
	ExitErrorCanceled = 130 // Indicates the run was canceled (e.g., SIGINT).
)

// ConfigError represents a user configuration error, such as invalid flags or
// values. It indicates that the application cannot proceed due to incorrect user input.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
//
// Parameters:
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new ConfigError instance containing the formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// WorkError is the failure a work unit signals for a task it refuses to
// complete. Context names the execution family ("IO bound", "async IO bound",
// "CPU bound") so that otherwise identical failures remain distinguishable in
// the output.
type WorkError struct {
	// TaskNum is the input the work unit was invoked with.
	TaskNum int
	// Context describes the kind of call that failed.
	Context string
}

// Error returns the human-readable failure description.
func (e WorkError) Error() string {
	return fmt.Sprintf("Some type of error in %s call", e.Context)
}

// WorkerCrashError reports that the worker executing a task went away before
// delivering an outcome, for example because its process exited.
type WorkerCrashError struct {
	// Worker is the pool-local identifier of the worker that crashed.
	Worker int
	// TaskID is the task that was in flight.
	TaskID int
	// Cause is the underlying error observed by the pool.
	Cause error
}

// Error returns a formatted message describing the crash.
func (e WorkerCrashError) Error() string {
	return fmt.Sprintf("worker %d crashed while running task %d: %v", e.Worker, e.TaskID, e.Cause)
}

// Unwrap returns the original cause.
func (e WorkerCrashError) Unwrap() error { return e.Cause }

// PanicError carries a value recovered from a panicking work unit.
type PanicError struct {
	// TaskID is the task whose work unit panicked.
	TaskID int
	// Value is whatever was passed to panic.
	Value any
}

// Error returns a formatted message describing the panic.
func (e PanicError) Error() string {
	return fmt.Sprintf("task %d panicked: %v", e.TaskID, e.Value)
}

// ValidationError represents an input validation failure. It identifies which
// field failed validation and provides a human-readable explanation.
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string
	// Message explains the validation failure.
	Message string
}

// Error returns a formatted message describing the validation failure.
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for %q: %s", e.Field, e.Message)
}

// WrapError wraps an error with additional context using fmt.Errorf and %w.
// This allows the wrapped error to be unwrapped with errors.Unwrap() and
// checked with errors.Is() and errors.As().
//
// Parameters:
//   - err: The error to wrap.
//   - format: A format string for the context message.
//   - args: Arguments for the format string.
//
// Returns:
//   - error: The wrapped error, or nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// IsWorkError reports whether err is, or wraps, a WorkError.
func IsWorkError(err error) bool {
	var we WorkError
	return errors.As(err, &we)
}

// ExitCodeFor maps a setup error returned by the application to an exit code.
// A nil error maps to ExitSuccess.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var cfgErr ConfigError
	var valErr ValidationError
	switch {
	case errors.As(err, &cfgErr), errors.As(err, &valErr):
		return ExitErrorConfig
	case IsContextError(err):
		return ExitErrorCanceled
	default:
		return ExitErrorGeneric
	}
}
