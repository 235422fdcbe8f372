// Package format holds display helpers shared by the CLI and the reporters.
package format

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// maxETA caps estimates produced from very slow early progress.
const maxETA = 24 * time.Hour

// ProgressWithETA tracks how much of a batch's workload has completed and
// estimates the time remaining from the observed completion rate.
// It is safe for concurrent use.
type ProgressWithETA struct {
	mu           sync.Mutex
	total        int
	done         int
	tasks        int
	startTime    time.Time
	progressRate float64 // fraction per second
}

// NewProgressWithETA creates a tracker for a batch whose workloads sum to
// totalWork. A non-positive total counts each completion as one unit.
func NewProgressWithETA(totalWork int) *ProgressWithETA {
	return &ProgressWithETA{total: totalWork, startTime: time.Now()}
}

// Complete records a finished task carrying work units of workload and
// returns the new completed fraction and ETA.
func (p *ProgressWithETA) Complete(work int) (float64, time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if work < 1 {
		work = 1
	}
	p.done += work
	p.tasks++
	frac := p.fraction()
	if elapsed := time.Since(p.startTime).Seconds(); elapsed > 0 {
		p.progressRate = frac / elapsed
	}
	return frac, p.eta(frac)
}

// Fraction returns the completed share of the workload, in [0, 1].
func (p *ProgressWithETA) Fraction() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fraction()
}

// Tasks returns how many completions were recorded.
func (p *ProgressWithETA) Tasks() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tasks
}

// GetETA returns the current estimate without recording anything.
func (p *ProgressWithETA) GetETA() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.eta(p.fraction())
}

func (p *ProgressWithETA) fraction() float64 {
	if p.total <= 0 {
		return 0
	}
	return min(1, max(0, float64(p.done)/float64(p.total)))
}

func (p *ProgressWithETA) eta(frac float64) time.Duration {
	if p.progressRate <= 0 || frac >= 1 {
		return 0
	}
	secs := (1 - frac) / p.progressRate
	if eta := time.Duration(secs * float64(time.Second)); eta < maxETA {
		return eta
	}
	return maxETA
}

// FormatETA renders an estimate compactly: "< 1s", "45s", "2m30s", "1h15m".
func FormatETA(eta time.Duration) string {
	if eta <= 0 {
		return "calculating..."
	}
	if eta < time.Second {
		return "< 1s"
	}
	eta = eta.Round(time.Second)
	h := int(eta.Hours())
	m := int(eta.Minutes()) % 60
	s := int(eta.Seconds()) % 60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh%dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	case m > 0 && s > 0:
		return fmt.Sprintf("%dm%ds", m, s)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%ds", s)
}

// FormatProgressBarWithETA renders "[bar] 42.0% ETA: 3s".
func FormatProgressBarWithETA(progress float64, eta time.Duration, width int) string {
	return fmt.Sprintf("[%s] %5.1f%% ETA: %s", ProgressBar(progress, width), progress*100, FormatETA(eta))
}

// ProgressBar draws a bar of the given length, clamping progress to [0, 1].
func ProgressBar(progress float64, length int) string {
	progress = min(1, max(0, progress))
	count := int(progress * float64(length))
	var b strings.Builder
	b.Grow(length * 3)
	for i := 0; i < length; i++ {
		if i < count {
			b.WriteRune('█')
		} else {
			b.WriteRune('░')
		}
	}
	return b.String()
}
