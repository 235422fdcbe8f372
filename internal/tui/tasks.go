package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/taskbench/internal/format"
	"github.com/agbru/taskbench/internal/orchestration"
	"github.com/agbru/taskbench/internal/task"
)

type rowStatus int

const (
	statusPending rowStatus = iota
	statusDone
	statusFailed
)

type taskRow struct {
	id       int
	workload int
	status   rowStatus
	worker   int
	value    int
	err      error
	elapsed  time.Duration
	order    int
}

type passResult struct {
	title   string
	summary orchestration.RunSummary
	err     error
}

// Column widths of the task table.
const (
	colWidthID      = 5
	colWidthLoad    = 12
	colWidthStatus  = 6
	colWidthWorker  = 7
	colWidthElapsed = 10
	colWidthOrder   = 6
)

// TasksModel shows the tasks of the current pass and the summaries of the
// passes already finished.
type TasksModel struct {
	title    string
	rows     []taskRow
	byID     map[int]int
	maxLoad  int
	finished int
	fraction float64
	eta      time.Duration
	passes   []passResult
	offset   int
	width    int
	height   int
}

// NewTasksModel creates an empty task panel.
func NewTasksModel() TasksModel {
	return TasksModel{byID: map[int]int{}}
}

// SetSize updates dimensions.
func (m *TasksModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// StartPass replaces the rows with the tasks of a new batch.
func (m *TasksModel) StartPass(title string, batch task.Batch) {
	m.title = title
	m.rows = make([]taskRow, len(batch))
	m.byID = make(map[int]int, len(batch))
	m.finished, m.fraction, m.eta, m.offset = 0, 0, 0, 0
	m.maxLoad = max(batch.MaxWorkload(), 1)
	for i, t := range batch {
		m.rows[i] = taskRow{id: t.ID, workload: t.Workload}
		m.byID[t.ID] = i
	}
}

// Record marks a task finished. Outcomes for unknown tasks, left over from
// a pass that was interrupted, are ignored.
func (m *TasksModel) Record(o task.Outcome, fraction float64, eta time.Duration) {
	i, ok := m.byID[o.TaskID]
	if !ok {
		return
	}
	m.finished++
	r := &m.rows[i]
	r.status = statusDone
	if o.Failed() {
		r.status = statusFailed
	}
	r.worker, r.value, r.err, r.elapsed, r.order = o.Worker, o.Value, o.Err, o.Elapsed, m.finished
	m.fraction, m.eta = fraction, eta
}

// FinishPass records the summary of the pass that just ended.
func (m *TasksModel) FinishPass(title string, s orchestration.RunSummary, err error) {
	m.passes = append(m.passes, passResult{title: title, summary: s, err: err})
}

// Reset clears every row and summary.
func (m *TasksModel) Reset() {
	*m = TasksModel{byID: map[int]int{}, width: m.width, height: m.height}
}

// ScrollUp moves the table view one row up.
func (m *TasksModel) ScrollUp() {
	if m.offset > 0 {
		m.offset--
	}
}

// ScrollDown moves the table view one row down.
func (m *TasksModel) ScrollDown() {
	if m.offset < len(m.rows)-1 {
		m.offset++
	}
}

// Finished returns the number of tasks of the current pass that completed.
func (m TasksModel) Finished() int { return m.finished }

// View renders the panel.
func (m TasksModel) View() string {
	var b strings.Builder

	title := m.title
	if title == "" {
		title = "Waiting for the first pass..."
	}
	b.WriteString(panelTitleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(m.renderProgress())
	b.WriteString("\n\n")
	b.WriteString(m.renderTableHeader())
	b.WriteString("\n")

	rows := m.visibleRows()
	for _, r := range rows {
		b.WriteString(m.renderRow(r))
		b.WriteString("\n")
	}

	if len(m.passes) > 0 {
		b.WriteString("\n")
		b.WriteString(panelTitleStyle.Render("Finished passes"))
		for _, p := range m.passes {
			b.WriteString("\n")
			b.WriteString(renderPassLine(p))
		}
	}

	return panelStyle.
		Width(max(m.width-2, 0)).
		Height(max(m.height-2, 0)).
		Render(b.String())
}

func (m TasksModel) renderProgress() string {
	barWidth := max(m.width-30, 10)
	eta := format.FormatETA(m.eta)
	if m.finished == len(m.rows) && len(m.rows) > 0 {
		eta = "done"
	}
	return fmt.Sprintf("%s %5.1f%% %s %s",
		renderBar(m.fraction, barWidth),
		m.fraction*100,
		metricLabelStyle.Render(fmt.Sprintf("%d/%d", m.finished, len(m.rows))),
		metricLabelStyle.Render("ETA "+eta))
}

func (m TasksModel) renderTableHeader() string {
	return tableHeaderStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top,
		cell("Task", colWidthID),
		cell("Workload", colWidthLoad),
		cell("State", colWidthStatus),
		cell("Worker", colWidthWorker),
		cell("Elapsed", colWidthElapsed),
		cell("Order", colWidthOrder),
		"Result",
	))
}

// visibleRows returns the rows that fit in the panel, starting at offset.
func (m TasksModel) visibleRows() []taskRow {
	// Title, progress, blank line, table header and borders.
	avail := m.height - 6
	if len(m.passes) > 0 {
		avail -= len(m.passes) + 2
	}
	if avail <= 0 || m.offset >= len(m.rows) {
		return nil
	}
	end := min(m.offset+avail, len(m.rows))
	return m.rows[m.offset:end]
}

func (m TasksModel) renderRow(r taskRow) string {
	load := renderBar(float64(r.workload)/float64(m.maxLoad), colWidthLoad-2)

	var state, result string
	style := pendingStyle
	switch r.status {
	case statusPending:
		state, result = "wait", "-"
	case statusDone:
		state, result, style = "ok", fmt.Sprintf("%d", r.value), successStyle
	case statusFailed:
		state, result, style = "fail", r.err.Error(), errorStyle
	}
	worker, elapsed, order := "-", "-", "-"
	if r.status != statusPending {
		worker = fmt.Sprintf("%d", r.worker)
		elapsed = format.FormatSeconds(r.elapsed) + "s"
		order = fmt.Sprintf("#%d", r.order)
	}

	resultWidth := max(m.width-4-colWidthID-colWidthLoad-colWidthStatus-colWidthWorker-colWidthElapsed-colWidthOrder, 4)
	return lipgloss.JoinHorizontal(lipgloss.Top,
		cell(fmt.Sprintf("%d", r.id), colWidthID),
		cell(load, colWidthLoad),
		style.Render(cell(state, colWidthStatus)),
		cell(worker, colWidthWorker),
		cell(elapsed, colWidthElapsed),
		cell(order, colWidthOrder),
		style.Render(truncateString(result, resultWidth)),
	)
}

func renderPassLine(p passResult) string {
	if p.err != nil {
		return errorStyle.Render(fmt.Sprintf("  %s: %v", p.title, p.err))
	}
	s := p.summary
	return fmt.Sprintf("  %s %s",
		metricLabelStyle.Render(fmt.Sprintf("%-32s", truncateString(p.title, 32))),
		metricValueStyle.Render(fmt.Sprintf("wall %s  speedup %.2fx  %d/%d ok",
			format.FormatExecutionDuration(s.Wall), s.Speedup(), s.Succeeded(), len(s.Outcomes))))
}

// renderBar renders a bar of exactly width cells filled to fraction.
func renderBar(fraction float64, width int) string {
	filled := min(max(int(fraction*float64(width)), 0), width)
	return barFilledStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", width-filled))
}

// cell pads s to a fixed visible width.
func cell(s string, width int) string {
	return lipgloss.NewStyle().Width(width).Render(s)
}

// truncateString truncates s to maxLen runes, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
