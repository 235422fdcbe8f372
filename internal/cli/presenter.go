package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/agbru/taskbench/internal/format"
	"github.com/agbru/taskbench/internal/orchestration"
	"github.com/agbru/taskbench/internal/sysmon"
	"github.com/agbru/taskbench/internal/task"
	"github.com/agbru/taskbench/internal/ui"
)

// CLIProgressReporter implements orchestration.ProgressReporter with a
// terminal spinner.
type CLIProgressReporter struct {
	// Terminal, when set, is shared with the CompletionReporter of the
	// same run.
	Terminal *Terminal
}

var _ orchestration.ProgressReporter = CLIProgressReporter{}

// DisplayProgress displays a spinner and progress bar while a run is active.
func (r CLIProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan task.Outcome, batch task.Batch, out io.Writer) {
	displayProgress(wg, progressChan, batch, out, r.Terminal)
}

// CompletionReporter prints one line per finished task as soon as the
// harness delivers it.
type CompletionReporter struct {
	out      io.Writer
	workName string
	term     *Terminal
}

var _ orchestration.CompletionReporter = (*CompletionReporter)(nil)

// NewCompletionReporter creates a reporter for outcomes of the named work
// unit. term may be nil when no spinner shares the terminal.
func NewCompletionReporter(out io.Writer, workName string, term *Terminal) *CompletionReporter {
	return &CompletionReporter{out: out, workName: workName, term: term}
}

// Report implements orchestration.CompletionReporter.
func (r *CompletionReporter) Report(o task.Outcome) {
	r.term.Println(r.out, colorOutcome(o, r.workName))
}

// CLIResultPresenter renders run summaries.
type CLIResultPresenter struct {
	// Usage is the system CPU sample taken across the run, if any.
	Usage *sysmon.Usage
}

var (
	_ orchestration.ResultPresenter   = CLIResultPresenter{}
	_ orchestration.DurationFormatter = CLIResultPresenter{}
)

// PresentSummary writes a short block describing the run.
func (p CLIResultPresenter) PresentSummary(s orchestration.RunSummary, out io.Writer) {
	status := ui.Success(fmt.Sprintf("%d succeeded", s.Succeeded()))
	if s.Failures > 0 {
		status += ", " + ui.Failure(fmt.Sprintf("%d failed", s.Failures))
	}
	fmt.Fprintf(out, "%s %s with %s worker(s): %s\n",
		ui.Dim("summary:"), ui.Accent(s.Strategy), ui.Accent(fmt.Sprint(s.Workers)), status)
	fmt.Fprintf(out, "%s wall %s, busy %s, speedup %sx\n",
		ui.Dim("timing: "),
		ui.Warning(p.FormatDuration(s.Wall)),
		ui.Warning(p.FormatDuration(s.Busy)),
		ui.Warning(fmt.Sprintf("%.2f", s.Speedup())))
	if p.Usage != nil {
		fmt.Fprintf(out, "%s cpu %.1f%% across %d logical cores, memory %.1f%%\n",
			ui.Dim("system: "), p.Usage.CPUPercent, p.Usage.Cores, p.Usage.MemPercent)
	}
}

// FormatDuration formats a duration the way summaries display it.
func (CLIResultPresenter) FormatDuration(d time.Duration) string {
	return format.FormatExecutionDuration(d)
}
