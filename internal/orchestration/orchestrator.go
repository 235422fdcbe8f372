package orchestration

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/agbru/taskbench/internal/logging"
	"github.com/agbru/taskbench/internal/metrics"
	"github.com/agbru/taskbench/internal/strategy"
	"github.com/agbru/taskbench/internal/task"
)

// Option configures Execute and Stream.
type Option func(*runOptions)

type runOptions struct {
	logger   logging.Logger
	recorder *metrics.Recorder
	progress ProgressReporter
	out      io.Writer
	tracer   trace.Tracer
}

// WithLogger sets the logger the run reports to.
func WithLogger(l logging.Logger) Option {
	return func(o *runOptions) { o.logger = l }
}

// WithRecorder records every outcome in r.
func WithRecorder(r *metrics.Recorder) Option {
	return func(o *runOptions) { o.recorder = r }
}

// WithProgress displays progress on out while the run is in flight.
func WithProgress(p ProgressReporter, out io.Writer) Option {
	return func(o *runOptions) {
		o.progress = p
		o.out = out
	}
}

func buildRunOptions(opts []Option) runOptions {
	o := runOptions{
		logger:   logging.Nop(),
		progress: NullProgressReporter{},
		out:      io.Discard,
		tracer:   otel.Tracer("github.com/agbru/taskbench/internal/orchestration"),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Execute runs batch through work with strategy s. Every outcome is stamped
// with its elapsed time since the start of the run and handed to reporter
// as soon as the strategy delivers it.
//
// The returned error is a setup error from the strategy; task failures are
// counted in the summary instead.
func Execute(ctx context.Context, s strategy.Strategy, batch task.Batch, work task.WorkUnit, reporter CompletionReporter, opts ...Option) (RunSummary, error) {
	o := buildRunOptions(opts)
	if reporter == nil {
		reporter = NullCompletionReporter{}
	}

	summary := RunSummary{
		RunID:    uuid.NewString(),
		Strategy: s.Name(),
		Workers:  s.Workers(),
		Work:     work.Name(),
		Outcomes: make([]task.Outcome, 0, len(batch)),
	}
	log := logging.Logger(o.logger)
	if z, ok := o.logger.(*logging.ZerologAdapter); ok {
		log = z.With(logging.String("run_id", summary.RunID), logging.String("strategy", summary.Strategy))
	}

	ctx, span := o.tracer.Start(ctx, "batch.run", trace.WithAttributes(
		attribute.String("run.id", summary.RunID),
		attribute.String("strategy", summary.Strategy),
		attribute.Int("workers", summary.Workers),
		attribute.Int("tasks", len(batch)),
	))
	defer span.End()

	log.Info("run started",
		logging.Int("workers", summary.Workers),
		logging.Int("tasks", len(batch)),
		logging.String("work", summary.Work),
	)
	if o.recorder != nil {
		o.recorder.RunStarted(summary.Strategy, len(batch))
	}

	// Buffered to the batch size: progress display never slows the run.
	progressChan := make(chan task.Outcome, len(batch))
	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go o.progress.DisplayProgress(&displayWg, progressChan, batch, o.out)

	var mu sync.Mutex
	start := time.Now()
	err := s.Run(ctx, batch, work, func(out task.Outcome) {
		mu.Lock()
		defer mu.Unlock()
		out.Elapsed = time.Since(start)
		summary.Outcomes = append(summary.Outcomes, out)
		summary.Busy += out.Duration
		if out.Failed() {
			summary.Failures++
		}
		if o.recorder != nil {
			o.recorder.ObserveOutcome(summary.Strategy, out)
		}
		log.Debug("task completed",
			logging.Int("task", out.TaskID),
			logging.Int("worker", out.Worker),
			logging.Duration("duration", out.Duration),
			logging.Bool("failed", out.Failed()),
		)
		progressChan <- out
		reporter.Report(out)
	})
	summary.Wall = time.Since(start)
	close(progressChan)
	displayWg.Wait()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error("run failed", err)
		return summary, err
	}
	span.SetAttributes(attribute.Int("failures", summary.Failures))
	log.Info("run finished",
		logging.Int("succeeded", summary.Succeeded()),
		logging.Int("failures", summary.Failures),
		logging.Duration("wall", summary.Wall),
		logging.Float64("speedup", summary.Speedup()),
	)
	return summary, nil
}

// OutcomeStream is a lazy, single-pass view of a run. Nothing executes until
// Outcomes is first called.
type OutcomeStream struct {
	once    sync.Once
	ch      chan task.Outcome
	done    chan struct{}
	run     func()
	summary RunSummary
	err     error
}

// Stream prepares a run of batch through work with strategy s, delivering
// outcomes over a channel instead of a reporter. The stream cannot be
// restarted: strategies run a single batch.
func Stream(ctx context.Context, s strategy.Strategy, batch task.Batch, work task.WorkUnit, opts ...Option) *OutcomeStream {
	st := &OutcomeStream{
		ch:   make(chan task.Outcome, len(batch)),
		done: make(chan struct{}),
	}
	st.run = func() {
		defer close(st.done)
		defer close(st.ch)
		st.summary, st.err = Execute(ctx, s, batch, work, CompletionReporterFunc(func(o task.Outcome) {
			st.ch <- o
		}), opts...)
	}
	return st
}

// Outcomes starts the run on first use and returns the channel of outcomes
// in completion order. The channel is closed once the run has ended.
func (st *OutcomeStream) Outcomes() <-chan task.Outcome {
	st.once.Do(func() { go st.run() })
	return st.ch
}

// Summary waits for the run to end and returns its summary. It starts the
// run if Outcomes was never called.
func (st *OutcomeStream) Summary() (RunSummary, error) {
	st.Outcomes()
	<-st.done
	return st.summary, st.err
}
