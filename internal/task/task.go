package task

import (
	"fmt"
	"time"

	apperrors "github.com/agbru/taskbench/internal/errors"
)

// Task is one unit of simulated work. Workload is expressed in abstract units
// that a WorkUnit maps to wall-clock time or CPU iterations.
type Task struct {
	ID       int
	Workload int
}

// String implements fmt.Stringer.
func (t Task) String() string {
	return fmt.Sprintf("task %d (workload %d)", t.ID, t.Workload)
}

// Batch is an ordered, fixed sequence of tasks submitted together.
type Batch []Task

// NewBatch builds the reference batch of n tasks in descending order
// (n, n-1, ..., 1). Each task's workload equals its id, so the first task
// submitted is the slowest.
func NewBatch(n int) Batch {
	b := make(Batch, 0, n)
	for i := n; i >= 1; i-- {
		b = append(b, Task{ID: i, Workload: i})
	}
	return b
}

// FromWorkloads builds a batch whose ids and workloads are the given values.
func FromWorkloads(workloads ...int) Batch {
	b := make(Batch, len(workloads))
	for i, w := range workloads {
		b[i] = Task{ID: w, Workload: w}
	}
	return b
}

// Validate checks the batch preconditions: it must be non-empty, ids must be
// unique and workloads must not be negative.
func (b Batch) Validate() error {
	if len(b) == 0 {
		return apperrors.ValidationError{Field: "batch", Message: "must contain at least one task"}
	}
	seen := make(map[int]struct{}, len(b))
	for _, t := range b {
		if _, dup := seen[t.ID]; dup {
			return apperrors.ValidationError{Field: "batch", Message: fmt.Sprintf("duplicate task id %d", t.ID)}
		}
		if t.Workload < 0 {
			return apperrors.ValidationError{Field: "batch", Message: fmt.Sprintf("task %d has negative workload %d", t.ID, t.Workload)}
		}
		seen[t.ID] = struct{}{}
	}
	return nil
}

// TotalWorkload is the sum of all workloads, the cost of a sequential run.
func (b Batch) TotalWorkload() int {
	total := 0
	for _, t := range b {
		total += t.Workload
	}
	return total
}

// MaxWorkload is the largest single workload, the cost of a fully parallel run.
func (b Batch) MaxWorkload() int {
	m := 0
	for _, t := range b {
		if t.Workload > m {
			m = t.Workload
		}
	}
	return m
}

// Outcome is the result of running one task: a value on success or an error
// describing the failure. Exactly one Outcome is produced per task.
type Outcome struct {
	// TaskID identifies the task this outcome belongs to.
	TaskID int
	// Value is the work unit's result. It is zero if Err is set.
	Value int
	// Err is the failure, or nil on success.
	Err error
	// Worker is the pool-local id of the worker that ran the task (0 when
	// the strategy has a single thread of control).
	Worker int
	// Duration is how long the task itself took to run.
	Duration time.Duration
	// Elapsed is the time between batch start and delivery of this outcome.
	// It is stamped by the harness, not by the strategy.
	Elapsed time.Duration
}

// Success builds a successful outcome.
func Success(taskID, value int) Outcome {
	return Outcome{TaskID: taskID, Value: value}
}

// Failure builds a failed outcome.
func Failure(taskID int, err error) Outcome {
	return Outcome{TaskID: taskID, Err: err}
}

// Failed reports whether the outcome carries an error.
func (o Outcome) Failed() bool { return o.Err != nil }
