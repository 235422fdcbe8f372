package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/taskbench/internal/format"
	"github.com/agbru/taskbench/internal/orchestration"
	"github.com/agbru/taskbench/internal/task"
)

const (
	// ProgressRefreshRate defines the refresh frequency of the spinner suffix.
	ProgressRefreshRate = 200 * time.Millisecond
	// ProgressBarWidth defines the width in characters of the progress bar.
	ProgressBarWidth = 30
)

// Spinner abstracts a terminal spinner so DisplayProgress can be tested
// without a terminal.
type Spinner interface {
	// Start begins the spinner animation.
	Start()
	// Stop halts the spinner animation.
	Stop()
	// UpdateSuffix sets the text that is displayed after the spinner.
	UpdateSuffix(suffix string)
	// Hold clears the spinner line and runs fn before the next frame is
	// drawn.
	Hold(fn func())
}

// realSpinner adapts spinner.Spinner to the Spinner interface.
type realSpinner struct {
	s *spinner.Spinner
}

// Start begins the spinner animation.
func (rs *realSpinner) Start() { rs.s.Start() }

// Stop halts the spinner animation.
func (rs *realSpinner) Stop() { rs.s.Stop() }

// UpdateSuffix sets the text that is displayed after the spinner.
func (rs *realSpinner) UpdateSuffix(suffix string) {
	rs.s.Lock()
	rs.s.Suffix = suffix
	rs.s.Unlock()
}

// Hold implements Spinner. A spinner that is not drawing, for instance
// because its writer is not a terminal, has no line to clear.
func (rs *realSpinner) Hold(fn func()) {
	if !rs.s.Active() {
		fn()
		return
	}
	rs.s.Lock()
	defer rs.s.Unlock()
	fmt.Fprint(rs.s.Writer, "\r\033[K")
	fn()
}

var newSpinner = func(options ...spinner.Option) Spinner {
	s := spinner.New(spinner.CharSets[11], ProgressRefreshRate, options...)
	return &realSpinner{s}
}

// Terminal lets completion lines share a terminal with a spinner drawn on
// another stream. Lines printed through it land on their own row and the
// spinner redraws below them. The zero value is ready to use; a nil
// Terminal prints directly.
type Terminal struct {
	mu      sync.Mutex
	spinner Spinner
}

func (t *Terminal) attach(s Spinner) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.spinner = s
	t.mu.Unlock()
}

func (t *Terminal) detach() { t.attach(nil) }

// Println writes line and a newline to out.
func (t *Terminal) Println(out io.Writer, line string) {
	if t == nil {
		fmt.Fprintln(out, line)
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.spinner == nil {
		fmt.Fprintln(out, line)
		return
	}
	t.spinner.Hold(func() { fmt.Fprintln(out, line) })
}

// DisplayProgress shows a spinner with a workload-weighted progress bar on
// out until progressChan is closed.
func DisplayProgress(wg *sync.WaitGroup, progressChan <-chan task.Outcome, batch task.Batch, out io.Writer) {
	displayProgress(wg, progressChan, batch, out, nil)
}

func displayProgress(wg *sync.WaitGroup, progressChan <-chan task.Outcome, batch task.Batch, out io.Writer, term *Terminal) {
	defer wg.Done()
	agg := orchestration.NewProgressAggregator(batch)
	if agg == nil {
		orchestration.DrainChannel(progressChan)
		return
	}

	s := newSpinner(spinner.WithWriter(out))
	s.UpdateSuffix(progressSuffix(0, agg.Total(), 0, 0))
	s.Start()
	defer s.Stop()
	term.attach(s)
	defer term.detach()

	ticker := time.NewTicker(ProgressRefreshRate)
	defer ticker.Stop()

	var last orchestration.AggregatedProgress
	for {
		select {
		case o, ok := <-progressChan:
			if !ok {
				return
			}
			last = agg.Update(o)
			s.UpdateSuffix(progressSuffix(last.Completed, last.Total, last.Fraction, last.ETA))
		case <-ticker.C:
			s.UpdateSuffix(progressSuffix(last.Completed, agg.Total(), agg.Fraction(), agg.GetETA()))
		}
	}
}

func progressSuffix(done, total int, frac float64, eta time.Duration) string {
	return fmt.Sprintf(" %d/%d tasks %s", done, total, format.FormatProgressBarWithETA(frac, eta, ProgressBarWidth))
}
