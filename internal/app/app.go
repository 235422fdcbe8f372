// Package app wires configuration, strategies, the harness and the terminal
// presentation into the taskbench commands.
package app

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/agbru/taskbench/internal/cli"
	"github.com/agbru/taskbench/internal/config"
	apperrors "github.com/agbru/taskbench/internal/errors"
	"github.com/agbru/taskbench/internal/logging"
	"github.com/agbru/taskbench/internal/metrics"
	"github.com/agbru/taskbench/internal/orchestration"
	"github.com/agbru/taskbench/internal/procworker"
	"github.com/agbru/taskbench/internal/server"
	"github.com/agbru/taskbench/internal/strategy"
	"github.com/agbru/taskbench/internal/sysmon"
	"github.com/agbru/taskbench/internal/task"
	"github.com/agbru/taskbench/internal/tui"
	"github.com/agbru/taskbench/internal/ui"
)

// Application represents one taskbench invocation.
type Application struct {
	Config    config.AppConfig
	Out       io.Writer
	ErrWriter io.Writer
	Logger    logging.Logger
	Recorder  *metrics.Recorder

	launcher  procworker.Launcher
	logCloser io.Closer
}

// AppOption configures an Application during construction.
type AppOption func(*Application)

// WithLauncher sets how process pools start their workers.
func WithLauncher(l procworker.Launcher) AppOption {
	return func(a *Application) { a.launcher = l }
}

// WithLogger replaces the logger derived from the configuration.
func WithLogger(l logging.Logger) AppOption {
	return func(a *Application) { a.Logger = l }
}

// New creates an Application. The configuration must already be resolved.
func New(cfg config.AppConfig, out, errWriter io.Writer, opts ...AppOption) *Application {
	a := &Application{Config: cfg, Out: out, ErrWriter: errWriter, Recorder: metrics.NewRecorder()}
	for _, opt := range opts {
		opt(a)
	}
	if a.Logger == nil {
		a.Logger = a.newLogger()
	}
	return a
}

func (a *Application) newLogger() logging.Logger {
	level := logging.ParseLevel(a.Config.LogLevel)
	if a.Config.LogFile != "" {
		l, closer := logging.NewFileLogger(a.Config.LogFile, "taskbench", level)
		a.logCloser = closer
		return l
	}
	if a.Config.TUI {
		// The dashboard owns the terminal.
		return logging.Nop()
	}
	return logging.NewConsoleLogger(a.ErrWriter, "taskbench", level)
}

// Run executes the configured demo and returns the process exit code. Task
// failures are part of every demo and do not change the exit code.
func (a *Application) Run(ctx context.Context) int {
	defer a.close()
	ui.InitTheme(a.Config.NoColor)

	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	demos, ok := Lookup(a.Config.Demo)
	if !ok {
		err := apperrors.NewConfigError("unknown demo %q", a.Config.Demo)
		a.Logger.Error("invalid configuration", err)
		return apperrors.ExitCodeFor(err)
	}
	if a.Config.Strategy != "" {
		kind, err := strategy.ParseKind(a.Config.Strategy)
		if err != nil {
			a.Logger.Error("invalid configuration", err)
			return apperrors.ExitCodeFor(err)
		}
		demos = WithStrategy(demos, kind)
	}

	if a.Config.MetricsAddr != "" {
		srvCtx, stopServer := context.WithCancel(ctx)
		defer stopServer()
		go func() {
			if err := server.New(a.Recorder, a.Logger).ListenAndServe(srvCtx, a.Config.MetricsAddr); err != nil {
				a.Logger.Error("metrics server stopped", err)
			}
		}()
	}

	a.Logger.Debug("configuration", logging.String("config", a.Config.String()))
	if a.Config.TUI {
		return tui.Run(ctx, a.dashboardPasses(demos), Version)
	}
	if !a.Config.Quiet {
		cli.PrintExecutionConfig(a.Config, a.Out)
	}

	for i, d := range demos {
		if i > 0 && !a.Config.Quiet {
			io.WriteString(a.Out, "\n")
		}
		if err := a.runDemo(ctx, d); err != nil {
			a.Logger.Error("demo failed", err, logging.String("demo", d.Name))
			return apperrors.ExitCodeFor(err)
		}
	}
	if err := ctx.Err(); err != nil {
		return apperrors.ExitCodeFor(err)
	}
	return apperrors.ExitSuccess
}

func (a *Application) runDemo(ctx context.Context, d Demo) error {
	for i, p := range d.Passes {
		if i > 0 && !a.Config.Quiet {
			io.WriteString(a.Out, "\n")
		}
		if err := a.runPass(ctx, p); err != nil {
			return err
		}
	}
	if d.Note != "" && !a.Config.Quiet {
		cli.DisplayNote(a.Out, d.Note)
	}
	return nil
}

// prepare builds the strategy and work unit of one pass.
func (a *Application) prepare(p Pass) (strategy.Strategy, task.WorkUnit, error) {
	sopts := []strategy.Option{strategy.WithLogger(a.Logger)}
	if a.launcher != nil {
		sopts = append(sopts, strategy.WithLauncher(a.launcher))
	}
	s, err := strategy.New(p.Strategy, a.Config.Workers, sopts...)
	if err != nil {
		return nil, nil, err
	}
	return s, newWorkUnit(a.Config, p), nil
}

// runPass runs one strategy over a fresh batch and prints its outcomes.
func (a *Application) runPass(ctx context.Context, p Pass) error {
	s, work, err := a.prepare(p)
	if err != nil {
		return err
	}
	batch := task.NewBatch(a.Config.Tasks)
	// Completion lines on Out share the terminal with the spinner on ErrWriter.
	term := &cli.Terminal{}

	opts := []orchestration.Option{
		orchestration.WithLogger(a.Logger),
		orchestration.WithRecorder(a.Recorder),
	}
	if !a.Config.Quiet {
		cli.DisplayHeader(a.Out, p.Title)
		opts = append(opts, orchestration.WithProgress(cli.CLIProgressReporter{Terminal: term}, a.ErrWriter))
	}

	mem := metrics.NewMemoryCollector()
	before := mem.Snapshot()
	window := sysmon.Begin()
	summary, err := orchestration.Execute(ctx, s, batch, work, cli.NewCompletionReporter(a.Out, p.ReporterName(work), term), opts...)
	if err != nil {
		return err
	}
	after := mem.Snapshot()
	a.Logger.Debug("pass finished",
		logging.String("pass", p.Title),
		logging.Uint64("allocated_bytes", after.Allocated(before)),
		logging.Int("goroutines", after.NumGoroutine),
	)
	if !a.Config.Quiet {
		usage := window.End()
		cli.CLIResultPresenter{Usage: &usage}.PresentSummary(summary, a.Out)
	}
	return nil
}

// dashboardPasses flattens demos into the passes the dashboard runs.
func (a *Application) dashboardPasses(demos []Demo) []tui.Pass {
	var passes []tui.Pass
	for _, d := range demos {
		for _, p := range d.Passes {
			batch := task.NewBatch(a.Config.Tasks)
			passes = append(passes, tui.Pass{
				Title: p.Title,
				Batch: batch,
				Run: func(ctx context.Context, progress orchestration.ProgressReporter) (orchestration.RunSummary, error) {
					s, work, err := a.prepare(p)
					if err != nil {
						return orchestration.RunSummary{}, err
					}
					return orchestration.Execute(ctx, s, batch, work, orchestration.NullCompletionReporter{},
						orchestration.WithLogger(a.Logger),
						orchestration.WithRecorder(a.Recorder),
						orchestration.WithProgress(progress, io.Discard))
				},
			})
		}
	}
	return passes
}

func (a *Application) close() {
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}

// RunDemo is the entry point of the single-demo binaries: configuration comes
// from defaults and TASKBENCH_* variables only.
func RunDemo(demo string) int {
	if procworker.IsWorker() {
		return procworker.ServeProcess()
	}
	cfg, err := config.FromEnv(demo)
	if err != nil {
		logging.NewDefaultLogger().Error("invalid configuration", err)
		return apperrors.ExitCodeFor(err)
	}
	return New(cfg, os.Stdout, os.Stderr).Run(context.Background())
}
