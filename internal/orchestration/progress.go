package orchestration

import (
	"time"

	"github.com/agbru/taskbench/internal/format"
	"github.com/agbru/taskbench/internal/task"
)

// ProgressAggregator turns a stream of outcomes into batch-level progress.
// Progress is weighted by workload, so a long task counts for more than a
// short one.
type ProgressAggregator struct {
	state    *format.ProgressWithETA
	workload map[int]int
	total    int
	failures int
}

// NewProgressAggregator creates an aggregator for batch. Returns nil for an
// empty batch.
func NewProgressAggregator(batch task.Batch) *ProgressAggregator {
	if len(batch) == 0 {
		return nil
	}
	w := make(map[int]int, len(batch))
	for _, t := range batch {
		w[t.ID] = t.Workload
	}
	return &ProgressAggregator{
		state:    format.NewProgressWithETA(batch.TotalWorkload()),
		workload: w,
		total:    len(batch),
	}
}

// AggregatedProgress is the state after one outcome was folded in.
type AggregatedProgress struct {
	Outcome   task.Outcome
	Completed int
	Total     int
	Failures  int
	// Fraction is the completed share of the batch's workload (0.0 to 1.0).
	Fraction float64
	ETA      time.Duration
}

// Update folds one outcome into the aggregate.
func (a *ProgressAggregator) Update(o task.Outcome) AggregatedProgress {
	if o.Failed() {
		a.failures++
	}
	frac, eta := a.state.Complete(a.workload[o.TaskID])
	return AggregatedProgress{
		Outcome:   o,
		Completed: a.state.Tasks(),
		Total:     a.total,
		Failures:  a.failures,
		Fraction:  frac,
		ETA:       eta,
	}
}

// Fraction returns the current completed share without updating.
func (a *ProgressAggregator) Fraction() float64 { return a.state.Fraction() }

// GetETA returns the current ETA estimate without updating.
// Useful for periodic refresh between updates (e.g., a spinner ticker).
func (a *ProgressAggregator) GetETA() time.Duration { return a.state.GetETA() }

// Total returns the number of tasks being tracked.
func (a *ProgressAggregator) Total() int { return a.total }

// DrainChannel reads all updates from the channel without processing.
func DrainChannel(progressChan <-chan task.Outcome) {
	for range progressChan {
	}
}
