// Package config defines the application configuration, its command-line
// flags and its TASKBENCH_* environment overrides.
package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/spf13/pflag"

	apperrors "github.com/agbru/taskbench/internal/errors"
)

// Demo names.
const (
	DemoThreads   = "threads"
	DemoProcesses = "processes"
	DemoAsync     = "async"
	DemoAsyncCPU  = "async-cpu"
	DemoAll       = "all"
)

// CPU work modes. Auto lets each demo pick: the processes demo spins for
// wall-clock time, the event-loop demo counts iterations.
const (
	CPUModeAuto       = "auto"
	CPUModeIterations = "iterations"
	CPUModeTimed      = "timed"
)

// Default values.
const (
	DefaultTasks      = 8
	DefaultWorkers    = 8
	DefaultUnit       = time.Second
	DefaultIterations = 3_800_000
	DefaultFailOn     = 2
	DefaultEnvFile    = ".env"
)

// Demos lists the demo names in presentation order.
func Demos() []string {
	return []string{DemoThreads, DemoProcesses, DemoAsync, DemoAsyncCPU, DemoAll}
}

// AppConfig aggregates every setting of the application.
type AppConfig struct {
	// Demo selects which comparison to run.
	Demo string
	// Tasks is the batch size; tasks are numbered Tasks..1.
	Tasks int
	// Workers is the pool size of the thread and process pools.
	Workers int
	// Unit is the delay (or spin time) per unit of task workload.
	Unit time.Duration
	// FailOn lists the task numbers whose work unit fails.
	FailOn []int
	// Iterations is the CPU loop budget per unit of workload.
	Iterations int
	// CPUMode is "auto", "iterations" or "timed".
	CPUMode string
	// Strategy, when set, replaces the concurrent strategy of every pass
	// that is not a sequential reference.
	Strategy string
	// Quiet suppresses headers, summaries and progress.
	Quiet bool
	// Verbose enables debug logging.
	Verbose bool
	// NoColor disables coloured output.
	NoColor bool
	// TUI shows the interactive dashboard instead of line output.
	TUI bool
	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string
	// LogFile, when set, sends logs to a rotating file instead of stderr.
	LogFile string
	// MetricsAddr, when set, serves /metrics and /healthz on that address.
	MetricsAddr string
	// EnvFile is the dotenv file read before environment overrides.
	EnvFile string
}

// Defaults returns the reference configuration.
func Defaults() AppConfig {
	return AppConfig{
		Demo:       DemoAll,
		Tasks:      DefaultTasks,
		Workers:    DefaultWorkers,
		Unit:       DefaultUnit,
		FailOn:     []int{DefaultFailOn},
		Iterations: DefaultIterations,
		CPUMode:    CPUModeAuto,
		LogLevel:   "warn",
		EnvFile:    DefaultEnvFile,
	}
}

// BindFlags registers the configuration flags on fs, writing into c.
func (c *AppConfig) BindFlags(fs *pflag.FlagSet) {
	fs.IntVarP(&c.Tasks, "tasks", "n", c.Tasks, "number of tasks in the batch")
	fs.IntVarP(&c.Workers, "workers", "w", c.Workers, "pool size for thread and process pools (0 = one per CPU)")
	fs.DurationVar(&c.Unit, "unit", c.Unit, "time per unit of task workload")
	fs.IntSliceVar(&c.FailOn, "fail-on", c.FailOn, "task numbers whose work fails")
	fs.IntVar(&c.Iterations, "iterations", c.Iterations, "CPU loop iterations per unit of workload")
	fs.StringVar(&c.CPUMode, "cpu-mode", c.CPUMode, "CPU work mode: auto, iterations or timed")
	fs.StringVar(&c.Strategy, "strategy", c.Strategy, "run the concurrent passes with this strategy (sequential, thread-pool, process-pool, cooperative)")
	fs.BoolVarP(&c.Quiet, "quiet", "q", c.Quiet, "print only the task lines")
	fs.BoolVarP(&c.Verbose, "verbose", "v", c.Verbose, "enable debug logging")
	fs.BoolVar(&c.NoColor, "no-color", c.NoColor, "disable coloured output")
	fs.BoolVar(&c.TUI, "tui", c.TUI, "show the interactive dashboard")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "write logs to a rotating file")
	fs.StringVar(&c.MetricsAddr, "metrics-addr", c.MetricsAddr, "serve Prometheus metrics on this address")
	fs.StringVar(&c.EnvFile, "env-file", c.EnvFile, "dotenv file to read")
}

// Resolve completes c after flag parsing: it loads the dotenv file, applies
// environment overrides for flags that were not set, resolves adaptive
// defaults and validates the result. fs may be nil when no flags exist.
func Resolve(c AppConfig, fs *pflag.FlagSet) (AppConfig, error) {
	if err := loadDotEnv(c.EnvFile); err != nil {
		return c, apperrors.NewConfigError("read %s: %v", c.EnvFile, err)
	}
	applyEnvOverrides(&c, fs)
	c = ApplyAdaptiveDefaults(c)
	if c.Verbose && !isFlagSetAny(fs, "log-level") {
		c.LogLevel = "debug"
	}
	return c, c.Validate()
}

// FromEnv builds the configuration of a flag-less binary running demo.
func FromEnv(demo string) (AppConfig, error) {
	c := Defaults()
	c.Demo = demo
	return Resolve(c, nil)
}

// Validate checks the configuration for values no run can use.
func (c AppConfig) Validate() error {
	switch {
	case !slices.Contains(Demos(), c.Demo):
		return apperrors.NewConfigError("unknown demo %q (want one of %v)", c.Demo, Demos())
	case c.Tasks < 1:
		return apperrors.NewConfigError("tasks must be at least 1, got %d", c.Tasks)
	case c.Workers < 1:
		return apperrors.NewConfigError("workers must be at least 1, got %d", c.Workers)
	case c.Unit <= 0:
		return apperrors.NewConfigError("unit must be positive, got %s", c.Unit)
	case c.Iterations < 0:
		return apperrors.NewConfigError("iterations must not be negative, got %d", c.Iterations)
	case !slices.Contains([]string{CPUModeAuto, CPUModeIterations, CPUModeTimed}, c.CPUMode):
		return apperrors.NewConfigError("unknown cpu mode %q (want %s, %s or %s)", c.CPUMode, CPUModeAuto, CPUModeIterations, CPUModeTimed)
	}
	return nil
}

// String renders the configuration for debug logs.
func (c AppConfig) String() string {
	return fmt.Sprintf("demo=%s tasks=%d workers=%d unit=%s fail-on=%v cpu-mode=%s iterations=%d strategy=%q",
		c.Demo, c.Tasks, c.Workers, c.Unit, c.FailOn, c.CPUMode, c.Iterations, c.Strategy)
}
