// Package apperrors provides tests for application error types.
package apperrors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestConfigError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		err         error
		expected    string
		checkTypeAs bool
	}{
		{
			name:     "Error returns message",
			err:      ConfigError{Message: "invalid flag value"},
			expected: "invalid flag value",
		},
		{
			name:     "NewConfigError creates formatted error",
			err:      NewConfigError("invalid value %d for flag %s", 0, "--workers"),
			expected: "invalid value 0 for flag --workers",
		},
		{
			name:        "ConfigError type assertion",
			err:         NewConfigError("test error"),
			expected:    "test error",
			checkTypeAs: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.err.Error() != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, tt.err.Error())
			}
			if tt.checkTypeAs {
				var configErr ConfigError
				if !errors.As(tt.err, &configErr) {
					t.Error("expected error to be ConfigError type")
				}
			}
		})
	}
}

func TestWorkError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      WorkError
		expected string
	}{
		{"IO bound", WorkError{TaskNum: 2, Context: "IO bound"}, "Some type of error in IO bound call"},
		{"async IO bound", WorkError{TaskNum: 2, Context: "async IO bound"}, "Some type of error in async IO bound call"},
		{"CPU bound", WorkError{TaskNum: 2, Context: "CPU bound"}, "Some type of error in CPU bound call"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.err.Error() != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, tt.err.Error())
			}
			wrapped := fmt.Errorf("task %d: %w", tt.err.TaskNum, tt.err)
			if !IsWorkError(wrapped) {
				t.Error("IsWorkError should see through wrapping")
			}
		})
	}

	if IsWorkError(errors.New("plain")) {
		t.Error("IsWorkError should be false for a plain error")
	}
}

func TestWorkerCrashError(t *testing.T) {
	t.Parallel()
	err := WorkerCrashError{Worker: 3, TaskID: 7, Cause: io.ErrUnexpectedEOF}

	want := "worker 3 crashed while running task 7: unexpected EOF"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("errors.Is should find the cause in the chain")
	}

	var crash WorkerCrashError
	if !errors.As(fmt.Errorf("outer: %w", err), &crash) || crash.TaskID != 7 {
		t.Errorf("errors.As should recover the crash, got %+v", crash)
	}
}

func TestPanicError(t *testing.T) {
	t.Parallel()
	err := PanicError{TaskID: 4, Value: "boom"}
	if err.Error() != "task 4 panicked: boom" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestValidationError(t *testing.T) {
	t.Parallel()
	err := ValidationError{Field: "batch", Message: "must not be empty"}
	want := `validation error for "batch": must not be empty`
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestWrapError(t *testing.T) {
	t.Parallel()

	t.Run("nil stays nil", func(t *testing.T) {
		t.Parallel()
		if WrapError(nil, "context %d", 1) != nil {
			t.Error("WrapError(nil) should return nil")
		}
	})

	t.Run("wraps with message", func(t *testing.T) {
		t.Parallel()
		base := errors.New("pipe closed")
		err := WrapError(base, "worker %d", 2)
		if err.Error() != "worker 2: pipe closed" {
			t.Errorf("unexpected message %q", err.Error())
		}
		if !errors.Is(err, base) {
			t.Error("wrapped error should match base with errors.Is")
		}
	})
}

func TestIsContextError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"canceled", context.Canceled, true},
		{"deadline", context.DeadlineExceeded, true},
		{"wrapped canceled", fmt.Errorf("run: %w", context.Canceled), true},
		{"other", errors.New("x"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsContextError(tt.err); got != tt.want {
				t.Errorf("IsContextError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestExitCodeFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"config", NewConfigError("bad"), ExitErrorConfig},
		{"validation", ValidationError{Field: "f", Message: "m"}, ExitErrorConfig},
		{"wrapped validation", WrapError(ValidationError{Field: "f", Message: "m"}, "run"), ExitErrorConfig},
		{"canceled", context.Canceled, ExitErrorCanceled},
		{"generic", errors.New("x"), ExitErrorGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ExitCodeFor(tt.err); got != tt.want {
				t.Errorf("ExitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
