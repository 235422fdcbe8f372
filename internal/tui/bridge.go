package tui

import (
	"context"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	apperrors "github.com/agbru/taskbench/internal/errors"
	"github.com/agbru/taskbench/internal/orchestration"
	"github.com/agbru/taskbench/internal/task"
)

// programRef is a shared reference to the tea.Program. bubbletea copies the
// model on every Update, so the bridge goroutines need a pointer that
// survives the copies.
type programRef struct {
	mu      sync.RWMutex
	program *tea.Program
}

// SetProgram sets the tea.Program reference.
func (r *programRef) SetProgram(p *tea.Program) {
	r.mu.Lock()
	r.program = p
	r.mu.Unlock()
}

// Send sends a message to the program. It is a no-op before SetProgram.
func (r *programRef) Send(msg tea.Msg) {
	r.mu.RLock()
	p := r.program
	r.mu.RUnlock()
	if p != nil {
		p.Send(msg)
	}
}

// TUIProgressReporter implements orchestration.ProgressReporter by
// forwarding every outcome to the dashboard.
type TUIProgressReporter struct {
	ref *programRef
	gen uint64
}

var _ orchestration.ProgressReporter = (*TUIProgressReporter)(nil)

// DisplayProgress drains the progress channel and sends an OutcomeMsg per
// finished task.
func (t *TUIProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan task.Outcome, batch task.Batch, _ io.Writer) {
	defer wg.Done()

	agg := orchestration.NewProgressAggregator(batch)
	if agg == nil {
		orchestration.DrainChannel(progressChan)
		return
	}
	for o := range progressChan {
		ap := agg.Update(o)
		t.ref.Send(OutcomeMsg{Outcome: o, Fraction: ap.Fraction, ETA: ap.ETA, Generation: t.gen})
	}
}

// Pass is one strategy run shown on the dashboard. Run must build a fresh
// strategy on every call, since a rerun calls it again.
type Pass struct {
	Title string
	Batch task.Batch
	Run   func(ctx context.Context, progress orchestration.ProgressReporter) (orchestration.RunSummary, error)
}

// runPassesCmd runs every pass in order and reports each to the program.
func runPassesCmd(ref *programRef, ctx context.Context, passes []Pass, gen uint64) tea.Cmd {
	return func() tea.Msg {
		progress := &TUIProgressReporter{ref: ref, gen: gen}
		for i, p := range passes {
			if ctx.Err() != nil {
				break
			}
			ref.Send(PassStartedMsg{Index: i, Title: p.Title, Batch: p.Batch, Generation: gen})
			summary, err := p.Run(ctx, progress)
			ref.Send(PassDoneMsg{Index: i, Title: p.Title, Summary: summary, Err: err, Generation: gen})
			if err != nil {
				return RunCompleteMsg{ExitCode: apperrors.ExitCodeFor(err), Generation: gen}
			}
		}
		return RunCompleteMsg{ExitCode: apperrors.ExitCodeFor(ctx.Err()), Generation: gen}
	}
}
