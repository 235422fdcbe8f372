//go:generate mockgen -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks

package orchestration

import (
	"io"
	"sync"
	"time"

	"github.com/agbru/taskbench/internal/task"
)

// RunSummary condenses one strategy run over a batch.
type RunSummary struct {
	// RunID uniquely identifies the run in logs and traces.
	RunID string
	// Strategy is the name of the strategy that ran the batch.
	Strategy string
	// Workers is the strategy's configured degree of parallelism.
	Workers int
	// Work is the name of the work unit.
	Work string
	// Outcomes holds one entry per task, in completion order.
	Outcomes []task.Outcome
	// Wall is the time from the start of the run until the last outcome.
	Wall time.Duration
	// Busy is the sum of the individual task durations.
	Busy time.Duration
	// Failures counts the failed outcomes.
	Failures int
}

// Succeeded returns the number of successful outcomes.
func (s RunSummary) Succeeded() int { return len(s.Outcomes) - s.Failures }

// Speedup is Busy / Wall: ~1 for a serial run, up to the worker count for a
// perfectly parallel one.
func (s RunSummary) Speedup() float64 {
	if s.Wall <= 0 {
		return 0
	}
	return s.Busy.Seconds() / s.Wall.Seconds()
}

// CompletionReporter receives every outcome of a run, one at a time, in
// completion order. Report is never called concurrently.
type CompletionReporter interface {
	Report(o task.Outcome)
}

// CompletionReporterFunc is a function adapter that implements
// CompletionReporter.
type CompletionReporterFunc func(o task.Outcome)

// Report calls the underlying function.
func (f CompletionReporterFunc) Report(o task.Outcome) { f(o) }

// NullCompletionReporter discards every outcome.
type NullCompletionReporter struct{}

// Report does nothing.
func (NullCompletionReporter) Report(task.Outcome) {}

// ProgressReporter displays aggregate progress while a run is in flight.
// DisplayProgress runs on its own goroutine until progressChan is closed and
// must call wg.Done before returning.
type ProgressReporter interface {
	DisplayProgress(wg *sync.WaitGroup, progressChan <-chan task.Outcome, batch task.Batch, out io.Writer)
}

// ProgressReporterFunc is a function adapter that implements ProgressReporter.
type ProgressReporterFunc func(wg *sync.WaitGroup, progressChan <-chan task.Outcome, batch task.Batch, out io.Writer)

// DisplayProgress calls the underlying function.
func (f ProgressReporterFunc) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan task.Outcome, batch task.Batch, out io.Writer) {
	f(wg, progressChan, batch, out)
}

// NullProgressReporter drains the progress channel without displaying
// anything. Useful for quiet mode or testing.
type NullProgressReporter struct{}

// DisplayProgress drains the channel without output.
func (NullProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan task.Outcome, _ task.Batch, _ io.Writer) {
	defer wg.Done()
	DrainChannel(progressChan)
}

// ResultPresenter renders the summary of a finished run.
type ResultPresenter interface {
	PresentSummary(summary RunSummary, out io.Writer)
}

// DurationFormatter formats durations for display.
type DurationFormatter interface {
	FormatDuration(d time.Duration) string
}
