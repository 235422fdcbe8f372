package workload

import (
	"context"
	"math"
	"time"

	apperrors "github.com/agbru/taskbench/internal/errors"
	"github.com/agbru/taskbench/internal/task"
)

// DefaultIterations is the iteration budget of one workload unit. It keeps
// one unit near a second of CPU time on a typical laptop core.
const DefaultIterations = 3_800_000

// scratchSize is the number of slots the simulated computation writes into.
const scratchSize = 100

// ctxCheckEvery bounds how many iterations run between context checks.
const ctxCheckEvery = 1 << 16

// CPUBound simulates a CPU-bound call. It never suspends: the Waiter it is
// given is ignored, so under a cooperative strategy it holds the loop for its
// whole duration.
type CPUBound struct {
	// Iterations is the iteration budget per workload unit.
	Iterations int
	// Timed switches to a wall-clock bound: the loop spins until taskNum
	// units of Unit have elapsed instead of counting iterations.
	Timed bool
	// Unit is the wall-clock time of one workload unit when Timed is set.
	Unit time.Duration
	// FailOn lists the task numbers that fail.
	FailOn FailSet
	// ShouldFail, when set, replaces FailOn.
	ShouldFail FailurePredicate
}

var _ Portable = CPUBound{}

// NewCPUBound returns the iteration-budget CPU simulator.
func NewCPUBound(iterations int, failOn FailSet) CPUBound {
	return CPUBound{Iterations: iterations, FailOn: failOn}
}

// NewCPUTimed returns the wall-clock bounded CPU simulator.
func NewCPUTimed(unit time.Duration, failOn FailSet) CPUBound {
	return CPUBound{Timed: true, Unit: unit, FailOn: failOn}
}

// Name implements task.WorkUnit.
func (u CPUBound) Name() string { return "cpu_bound_simulator" }

// Do burns CPU for taskNum units, then fails or returns taskNum + 100.
func (u CPUBound) Do(ctx context.Context, _ task.Waiter, taskNum int) (int, error) {
	// Allocated per call: concurrent invocations must never share it.
	scratch := make([]float64, scratchSize)

	var err error
	if u.Timed {
		err = spinFor(ctx, scratch, time.Duration(taskNum)*u.Unit)
	} else {
		err = spinN(ctx, scratch, u.Iterations*taskNum)
	}
	if err != nil {
		return 0, err
	}

	if decide(u.ShouldFail, u.FailOn, taskNum) {
		return 0, apperrors.WorkError{TaskNum: taskNum, Context: "CPU bound"}
	}
	return taskNum + 100, nil
}

// Spec implements Portable.
func (u CPUBound) Spec() (Spec, error) {
	if u.ShouldFail != nil {
		return Spec{}, errNotPortable(u.Name())
	}
	if u.Timed {
		return Spec{Kind: KindCPUTimed, Unit: u.Unit, FailOn: u.FailOn}, nil
	}
	return Spec{Kind: KindCPU, Iterations: u.Iterations, FailOn: u.FailOn}, nil
}

// step performs one "slow" computation into a time-derived slot.
func step(scratch []float64) {
	x := float64(time.Now().UnixNano()) / 1e9
	i := int(x*100) % len(scratch)
	scratch[i] = math.Sqrt(x) * math.Sqrt(1+x)
}

func spinN(ctx context.Context, scratch []float64, total int) error {
	for n := 0; n < total; n++ {
		if n%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		step(scratch)
	}
	return nil
}

func spinFor(ctx context.Context, scratch []float64, d time.Duration) error {
	deadline := time.Now().Add(d)
	for n := 0; time.Now().Before(deadline); n++ {
		if n%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		step(scratch)
	}
	return nil
}
