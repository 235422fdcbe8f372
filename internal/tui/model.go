// Package tui provides an interactive dashboard that shows the tasks of
// every pass as they finish, alongside runtime and system metrics.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	apperrors "github.com/agbru/taskbench/internal/errors"
	"github.com/agbru/taskbench/internal/metrics"
	"github.com/agbru/taskbench/internal/sysmon"
)

// ExecutionState holds the execution-related fields of a session.
type ExecutionState struct {
	ctx        context.Context
	cancel     context.CancelFunc
	passes     []Pass
	generation uint64
	done       bool
	exitCode   int
}

// LayoutManager holds terminal dimensions and derives panel sizes.
type LayoutManager struct {
	width  int
	height int
}

// Layout constants for the dashboard.
const (
	headerHeight           = 1
	footerHeight           = 1
	minBodyHeight          = 6
	TasksPanelWidthPercent = 62
)

func (l LayoutManager) bodyHeight() int {
	return max(l.height-headerHeight-footerHeight, minBodyHeight)
}

func (l LayoutManager) tasksWidth() int {
	return l.width * TasksPanelWidthPercent / 100
}

func (l LayoutManager) metricsWidth() int {
	return l.width - l.tasksWidth()
}

// Model is the root bubbletea model of the dashboard.
type Model struct {
	header  HeaderModel
	tasks   TasksModel
	metrics MetricsModel
	footer  FooterModel
	keymap  KeyMap

	ExecutionState
	LayoutManager

	parentCtx context.Context
	mem       *metrics.MemoryCollector
	ref       *programRef
}

// NewModel creates a dashboard that runs passes in order.
func NewModel(parentCtx context.Context, passes []Pass, version string) Model {
	ctx, cancel := context.WithCancel(parentCtx)
	keys := DefaultKeyMap()
	return Model{
		header:  NewHeaderModel(version),
		tasks:   NewTasksModel(),
		metrics: NewMetricsModel(),
		footer:  NewFooterModel(keys),
		keymap:  keys,
		ExecutionState: ExecutionState{
			ctx:      ctx,
			cancel:   cancel,
			passes:   passes,
			exitCode: apperrors.ExitSuccess,
		},
		parentCtx: parentCtx,
		mem:       metrics.NewMemoryCollector(),
		ref:       &programRef{},
	}
}

// Init returns the initial commands.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		runPassesCmd(m.ref, m.ctx, m.passes, m.generation),
		watchContextCmd(m.ctx, m.generation),
	)
}

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layoutPanels()
		return m, nil

	case PassStartedMsg:
		if msg.Generation != m.generation {
			return m, nil
		}
		m.header.SetPass(msg.Title)
		m.tasks.StartPass(msg.Title, msg.Batch)
		m.metrics.ResetThroughput()
		return m, nil

	case OutcomeMsg:
		if msg.Generation != m.generation {
			return m, nil
		}
		m.tasks.Record(msg.Outcome, msg.Fraction, msg.ETA)
		m.metrics.UpdateThroughput(m.tasks.Finished())
		return m, nil

	case PassDoneMsg:
		if msg.Generation != m.generation {
			return m, nil
		}
		m.tasks.FinishPass(msg.Title, msg.Summary, msg.Err)
		if msg.Err != nil {
			m.footer.SetError(true)
		}
		return m, nil

	case RunCompleteMsg:
		if msg.Generation != m.generation {
			return m, nil
		}
		m.done = true
		m.exitCode = msg.ExitCode
		m.header.SetDone()
		m.footer.SetDone(true)
		return m, nil

	case TickMsg:
		if m.done {
			return m, nil
		}
		return m, tea.Batch(sampleMemStatsCmd(m.mem), sampleSysStatsCmd(), tickCmd())

	case MemStatsMsg:
		m.metrics.UpdateMemStats(msg)
		return m, nil

	case SysStatsMsg:
		m.metrics.UpdateSysStats(msg)
		return m, nil

	case ContextCancelledMsg:
		if msg.Generation != m.generation {
			return m, nil
		}
		m.done = true
		m.exitCode = apperrors.ExitCodeFor(msg.Err)
		m.header.SetDone()
		m.footer.SetDone(true)
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		if m.cancel != nil {
			m.cancel()
		}
		if !m.done {
			m.exitCode = apperrors.ExitErrorCanceled
		}
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Reset):
		if m.cancel != nil {
			m.cancel()
		}
		m.generation++
		m.ctx, m.cancel = context.WithCancel(m.parentCtx)

		m.header.Reset()
		m.tasks.Reset()
		m.metrics.ResetThroughput()
		m.footer.SetDone(false)
		m.footer.SetError(false)
		m.done = false
		m.exitCode = apperrors.ExitSuccess

		return m, tea.Batch(
			tickCmd(),
			runPassesCmd(m.ref, m.ctx, m.passes, m.generation),
			watchContextCmd(m.ctx, m.generation),
		)

	case key.Matches(msg, m.keymap.Up):
		m.tasks.ScrollUp()
		return m, nil

	case key.Matches(msg, m.keymap.Down):
		m.tasks.ScrollDown()
		return m, nil
	}
	return m, nil
}

// View renders the entire dashboard.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.tasks.View(), m.metrics.View())
	return lipgloss.JoinVertical(lipgloss.Left, m.header.View(), body, m.footer.View())
}

func (m *Model) layoutPanels() {
	m.header.SetWidth(m.width)
	m.footer.SetWidth(m.width)
	m.tasks.SetSize(m.tasksWidth(), m.bodyHeight())
	m.metrics.SetSize(m.metricsWidth(), m.bodyHeight())
}

// Run shows the dashboard until the user quits and returns the exit code.
func Run(ctx context.Context, passes []Pass, version string) int {
	// The application has picked its theme by now.
	initTUIStyles()

	model := NewModel(ctx, passes, version)
	defer model.cancel()

	p := tea.NewProgram(model, tea.WithAltScreen())
	// The bridge goroutines need the program before the first pass starts.
	model.ref.SetProgram(p)

	finalModel, err := p.Run()
	if m, ok := finalModel.(Model); ok {
		m.cancel()
		return m.exitCode
	}
	if err != nil {
		return apperrors.ExitCodeFor(err)
	}
	return apperrors.ExitSuccess
}

// tickCmd returns a command that sends a TickMsg after 500ms.
func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func sampleMemStatsCmd(mc *metrics.MemoryCollector) tea.Cmd {
	return func() tea.Msg {
		s := mc.Snapshot()
		return MemStatsMsg{
			HeapAlloc:    s.HeapAlloc,
			Sys:          s.Sys,
			NumGC:        s.NumGC,
			NumGoroutine: s.NumGoroutine,
		}
	}
}

func sampleSysStatsCmd() tea.Cmd {
	return func() tea.Msg {
		s := sysmon.Sample()
		return SysStatsMsg{CPUPercent: s.CPUPercent, MemPercent: s.MemPercent}
	}
}

// watchContextCmd waits for the run context to end.
func watchContextCmd(ctx context.Context, gen uint64) tea.Cmd {
	return func() tea.Msg {
		<-ctx.Done()
		return ContextCancelledMsg{Err: ctx.Err(), Generation: gen}
	}
}
