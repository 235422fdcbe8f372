package tui

import (
	"time"

	"github.com/agbru/taskbench/internal/orchestration"
	"github.com/agbru/taskbench/internal/task"
)

// PassStartedMsg announces the pass about to run.
type PassStartedMsg struct {
	Index      int
	Title      string
	Batch      task.Batch
	Generation uint64
}

// OutcomeMsg carries one finished task and the aggregated progress after it.
type OutcomeMsg struct {
	Outcome  task.Outcome
	Fraction   float64
	ETA        time.Duration
	Generation uint64
}

// PassDoneMsg carries the summary of a finished pass.
type PassDoneMsg struct {
	Index      int
	Title      string
	Summary    orchestration.RunSummary
	Err        error
	Generation uint64
}

// RunCompleteMsg is sent once every pass has run.
type RunCompleteMsg struct {
	ExitCode   int
	Generation uint64
}

// ContextCancelledMsg is sent when the run context is done.
type ContextCancelledMsg struct {
	Err        error
	Generation uint64
}

// TickMsg drives periodic sampling and the elapsed timer.
type TickMsg time.Time

// MemStatsMsg carries a runtime memory sample.
type MemStatsMsg struct {
	HeapAlloc    uint64
	Sys          uint64
	NumGC        uint32
	NumGoroutine int
}

// SysStatsMsg carries a system-wide CPU and memory sample.
type SysStatsMsg struct {
	CPUPercent float64
	MemPercent float64
}
