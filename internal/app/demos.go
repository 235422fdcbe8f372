package app

import (
	"slices"

	"github.com/agbru/taskbench/internal/config"
	"github.com/agbru/taskbench/internal/strategy"
	"github.com/agbru/taskbench/internal/task"
	"github.com/agbru/taskbench/internal/workload"
)

// WorkKind selects the work unit a pass runs.
type WorkKind int

const (
	WorkIO WorkKind = iota
	WorkAsyncIO
	WorkCPU
)

// Pass is one strategy run inside a demo.
type Pass struct {
	Title    string
	Strategy strategy.Kind
	Work     WorkKind
	// CPUMode is the CPU work mode used when the configuration says auto.
	CPUMode string
	// Reporter, when set, names the failing call in exception lines instead
	// of the work unit.
	Reporter string
}

// Demo pairs a reference pass with the concurrent pass it is compared to.
type Demo struct {
	Name        string
	Description string
	Passes      []Pass
	// Note is printed after the passes, explaining what to look for.
	Note string
}

// threadsReporter is the call name the threads demo prints for failures.
const threadsReporter = "io_bound_sleep_three"

var catalogue = []Demo{
	{
		Name:        config.DemoThreads,
		Description: "IO-bound tasks, sequential versus a thread pool",
		Passes: []Pass{
			{Title: "Single threaded", Strategy: strategy.KindSequential, Work: WorkIO, Reporter: threadsReporter},
			{Title: "Multi-threaded", Strategy: strategy.KindThreadPool, Work: WorkIO, Reporter: threadsReporter},
		},
	},
	{
		Name:        config.DemoProcesses,
		Description: "CPU-bound tasks, one process versus a pool of worker processes",
		Passes: []Pass{
			{Title: "Single process", Strategy: strategy.KindSequential, Work: WorkCPU, CPUMode: config.CPUModeTimed},
			{Title: "Multiprocessing", Strategy: strategy.KindProcessPool, Work: WorkCPU, CPUMode: config.CPUModeTimed},
		},
	},
	{
		Name:        config.DemoAsync,
		Description: "IO-bound tasks, sequential versus a cooperative event loop",
		Passes: []Pass{
			{Title: "Single threaded; no concurrency", Strategy: strategy.KindSequential, Work: WorkIO},
			{Title: "Concurrency with AsyncIO", Strategy: strategy.KindCooperative, Work: WorkAsyncIO},
		},
	},
	{
		Name:        config.DemoAsyncCPU,
		Description: "CPU-bound tasks on a cooperative event loop",
		Passes: []Pass{
			{Title: "CPU-bound work on the event loop", Strategy: strategy.KindCooperative, Work: WorkCPU, CPUMode: config.CPUModeIterations},
		},
		Note: "CPU-bound coroutines never suspend, so the loop runs them one after another.",
	},
}

// Catalogue returns every runnable demo in presentation order.
func Catalogue() []Demo { return catalogue }

// Lookup resolves a demo name. "all" expands to the threads, processes and
// async demos.
func Lookup(name string) ([]Demo, bool) {
	if name == config.DemoAll {
		return []Demo{catalogue[0], catalogue[1], catalogue[2]}, true
	}
	for _, d := range catalogue {
		if d.Name == name {
			return []Demo{d}, true
		}
	}
	return nil, false
}

// WithStrategy returns a copy of demos whose concurrent passes run kind.
// Sequential reference passes are kept so the comparison still holds.
func WithStrategy(demos []Demo, kind strategy.Kind) []Demo {
	out := make([]Demo, len(demos))
	for i, d := range demos {
		d.Passes = slices.Clone(d.Passes)
		for j := range d.Passes {
			if d.Passes[j].Strategy != strategy.KindSequential {
				d.Passes[j].Strategy = kind
			}
		}
		out[i] = d
	}
	return out
}

// ReporterName is the name printed before "raised an exception".
func (p Pass) ReporterName(work task.WorkUnit) string {
	if p.Reporter != "" {
		return p.Reporter
	}
	return work.Name()
}

// cpuMode resolves the CPU work mode of p under cfg.
func (p Pass) cpuMode(cfg config.AppConfig) string {
	if cfg.CPUMode != config.CPUModeAuto && cfg.CPUMode != "" {
		return cfg.CPUMode
	}
	if p.CPUMode != "" {
		return p.CPUMode
	}
	return config.CPUModeIterations
}

// newWorkUnit builds the work unit of pass p from the configuration.
func newWorkUnit(cfg config.AppConfig, p Pass) task.WorkUnit {
	fail := workload.FailOn(cfg.FailOn...)
	switch p.Work {
	case WorkAsyncIO:
		return workload.NewAsyncIOBound(cfg.Unit, fail)
	case WorkCPU:
		if p.cpuMode(cfg) == config.CPUModeTimed {
			return workload.NewCPUTimed(cfg.Unit, fail)
		}
		return workload.NewCPUBound(cfg.Iterations, fail)
	}
	return workload.NewIOBound(cfg.Unit, fail)
}
