package workload

import (
	"context"
	"fmt"
	"os"
	"time"

	apperrors "github.com/agbru/taskbench/internal/errors"
	"github.com/agbru/taskbench/internal/task"
)

// Kind names a family of work units that can be rebuilt from a Spec.
type Kind string

// Known work unit kinds.
const (
	KindIO       Kind = "io"
	KindAsyncIO  Kind = "async-io"
	KindCPU      Kind = "cpu"
	KindCPUTimed Kind = "cpu-timed"
)

// Spec is the serialisable description of a work unit.
type Spec struct {
	Kind       Kind
	Unit       time.Duration
	Iterations int
	FailOn     FailSet
	// ExitOn lists task numbers for which the hosting process exits
	// abruptly instead of running the work. It exists to exercise worker
	// crash handling and is only honoured inside worker processes.
	ExitOn []int
}

// Portable is a work unit that can describe itself as a Spec.
type Portable interface {
	task.WorkUnit
	Spec() (Spec, error)
}

func errNotPortable(name string) error {
	return apperrors.ValidationError{
		Field:   "work",
		Message: fmt.Sprintf("%s uses a custom failure predicate and cannot run in a worker process", name),
	}
}

// FromSpec rebuilds the work unit described by s.
func FromSpec(s Spec) (task.WorkUnit, error) {
	var u task.WorkUnit
	switch s.Kind {
	case KindIO:
		u = NewIOBound(s.Unit, s.FailOn)
	case KindAsyncIO:
		u = NewAsyncIOBound(s.Unit, s.FailOn)
	case KindCPU:
		u = NewCPUBound(s.Iterations, s.FailOn)
	case KindCPUTimed:
		u = NewCPUTimed(s.Unit, s.FailOn)
	default:
		return nil, apperrors.ValidationError{Field: "kind", Message: fmt.Sprintf("unknown work unit kind %q", s.Kind)}
	}
	if len(s.ExitOn) > 0 {
		u = exiting{WorkUnit: u, exitOn: FailSet(s.ExitOn), exit: os.Exit}
	}
	return u, nil
}

// exiting terminates the process for selected task numbers.
type exiting struct {
	task.WorkUnit
	exitOn FailSet
	exit   func(code int)
}

// ExitCode is the status a worker process exits with when ExitOn fires.
const ExitCode = 3

func (e exiting) Do(ctx context.Context, w task.Waiter, taskNum int) (int, error) {
	if e.exitOn.Contains(taskNum) {
		e.exit(ExitCode)
	}
	return e.WorkUnit.Do(ctx, w, taskNum)
}
