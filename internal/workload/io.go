package workload

import (
	"context"
	"time"

	apperrors "github.com/agbru/taskbench/internal/errors"
	"github.com/agbru/taskbench/internal/task"
)

// IOBound simulates an I/O-bound call that takes taskNum units of wall-clock
// time, all of it spent suspended in the Waiter.
type IOBound struct {
	// Unit is the wall-clock time of one workload unit.
	Unit time.Duration
	// Async selects the failure message of the cooperative variant.
	Async bool
	// FailOn lists the task numbers that fail.
	FailOn FailSet
	// ShouldFail, when set, replaces FailOn. A unit with a custom predicate
	// cannot be shipped to a worker process.
	ShouldFail FailurePredicate
}

var _ Portable = IOBound{}

// NewIOBound returns the blocking I/O simulator used by the thread demos.
func NewIOBound(unit time.Duration, failOn FailSet) IOBound {
	return IOBound{Unit: unit, FailOn: failOn}
}

// NewAsyncIOBound returns the I/O simulator used by the cooperative demo.
func NewAsyncIOBound(unit time.Duration, failOn FailSet) IOBound {
	return IOBound{Unit: unit, Async: true, FailOn: failOn}
}

// Name implements task.WorkUnit.
func (u IOBound) Name() string { return "io_bound_simulator" }

// Do waits taskNum units, then fails or returns taskNum + 100.
func (u IOBound) Do(ctx context.Context, w task.Waiter, taskNum int) (int, error) {
	if err := w.Wait(ctx, time.Duration(taskNum)*u.Unit); err != nil {
		return 0, err
	}
	if decide(u.ShouldFail, u.FailOn, taskNum) {
		return 0, apperrors.WorkError{TaskNum: taskNum, Context: u.context()}
	}
	return taskNum + 100, nil
}

func (u IOBound) context() string {
	if u.Async {
		return "async IO bound"
	}
	return "IO bound"
}

// Spec implements Portable.
func (u IOBound) Spec() (Spec, error) {
	if u.ShouldFail != nil {
		return Spec{}, errNotPortable(u.Name())
	}
	kind := KindIO
	if u.Async {
		kind = KindAsyncIO
	}
	return Spec{Kind: kind, Unit: u.Unit, FailOn: u.FailOn}, nil
}
