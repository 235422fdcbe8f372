package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const sparklineSamples = 60

// MetricsModel displays runtime memory, throughput and system load.
type MetricsModel struct {
	heapAlloc    uint64
	sys          uint64
	numGC        uint32
	numGoroutine int
	speed        float64 // completed tasks per second, smoothed
	lastDone     int
	lastUpdate   time.Time
	cpu          *Series
	mem          *Series
	rate         *Series // one smoothed rate sample per update of the pass
	width        int
	height       int
}

// NewMetricsModel creates a new metrics panel.
func NewMetricsModel() MetricsModel {
	return MetricsModel{
		lastUpdate: time.Now(),
		cpu:        NewSeries(sparklineSamples),
		mem:        NewSeries(sparklineSamples),
		rate:       NewSeries(sparklineSamples),
	}
}

// SetSize updates dimensions and fits the sparklines to the inner width.
func (m *MetricsModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	if inner := w - 14; inner > 0 {
		m.cpu.SetLimit(inner)
		m.mem.SetLimit(inner)
		m.rate.SetLimit(inner)
	}
}

// UpdateMemStats stores a runtime memory sample.
func (m *MetricsModel) UpdateMemStats(msg MemStatsMsg) {
	m.heapAlloc = msg.HeapAlloc
	m.sys = msg.Sys
	m.numGC = msg.NumGC
	m.numGoroutine = msg.NumGoroutine
}

// UpdateSysStats appends a system load sample.
func (m *MetricsModel) UpdateSysStats(msg SysStatsMsg) {
	m.cpu.Add(msg.CPUPercent)
	m.mem.Add(msg.MemPercent)
}

// UpdateThroughput folds the number of finished tasks into the smoothed
// completion rate.
func (m *MetricsModel) UpdateThroughput(done int) {
	now := time.Now()
	dt := now.Sub(m.lastUpdate).Seconds()
	if dt <= 0.05 {
		return
	}
	if dn := done - m.lastDone; dn > 0 {
		instant := float64(dn) / dt
		if m.speed > 0 {
			m.speed = 0.7*m.speed + 0.3*instant
		} else {
			m.speed = instant
		}
	}
	m.rate.Add(m.speed)
	m.lastDone = done
	m.lastUpdate = now
}

// ResetThroughput starts a new rate measurement for the next pass.
func (m *MetricsModel) ResetThroughput() {
	m.speed = 0
	m.lastDone = 0
	m.lastUpdate = time.Now()
	m.rate.Clear()
}

// View renders the metrics panel.
func (m MetricsModel) View() string {
	colWidth := max((m.width-4)/2, 0)
	lines := []string{
		formatMetricCol("Heap:", formatBytes(m.heapAlloc)+" / "+formatBytes(m.sys), colWidth) +
			formatMetricCol("GC:", fmt.Sprintf("%d", m.numGC), colWidth),
		formatMetricCol("Goroutines:", fmt.Sprintf("%d", m.numGoroutine), colWidth) +
			formatMetricCol("Rate:", fmt.Sprintf("%.1f tasks/s", m.speed), colWidth),
		"",
		fmt.Sprintf(" %s %s %s",
			metricLabelStyle.Render("CPU"),
			cpuSparklineStyle.Render(Sparkline(m.cpu.Values(), 100)),
			metricValueStyle.Render(fmt.Sprintf("%.0f%%", m.cpu.Latest()))),
		fmt.Sprintf(" %s %s %s",
			metricLabelStyle.Render("MEM"),
			memSparklineStyle.Render(Sparkline(m.mem.Values(), 100)),
			metricValueStyle.Render(fmt.Sprintf("%.0f%%", m.mem.Latest()))),
		fmt.Sprintf(" %s %s %s",
			metricLabelStyle.Render("RUN"),
			cpuSparklineStyle.Render(Sparkline(m.rate.Values(), 0)),
			metricValueStyle.Render(fmt.Sprintf("peak %.1f/s", m.rate.Peak()))),
	}
	return panelStyle.
		Width(max(m.width-2, 0)).
		Height(max(m.height-2, 0)).
		Render(strings.Join(lines, "\n"))
}

func formatMetricCol(label, value string, colWidth int) string {
	c := fmt.Sprintf(" %s %s",
		metricLabelStyle.Render(fmt.Sprintf("%-11s", label)),
		metricValueStyle.Render(value))
	if visible := lipgloss.Width(c); visible < colWidth {
		c += strings.Repeat(" ", colWidth-visible)
	}
	return c
}

func formatBytes(b uint64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(b)/(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
