package strategy

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/agbru/taskbench/internal/errors"
	"github.com/agbru/taskbench/internal/logging"
	"github.com/agbru/taskbench/internal/procworker"
	"github.com/agbru/taskbench/internal/task"
)

// ErrStrategyReused is returned when a strategy instance is asked to run a
// second batch.
var ErrStrategyReused = errors.New("strategy: instance already ran a batch")

// Strategy runs every task of a batch through a work unit and reports each
// outcome as soon as it is known.
type Strategy interface {
	// Name identifies the strategy in logs, metrics and output.
	Name() string
	// Workers is the configured degree of parallelism.
	Workers() int
	// Run executes the batch. It returns only setup errors; per-task
	// failures are delivered to onComplete as failed outcomes.
	Run(ctx context.Context, batch task.Batch, work task.WorkUnit, onComplete func(task.Outcome)) error
}

// Kind selects a strategy implementation.
type Kind string

// Available strategy kinds.
const (
	KindSequential  Kind = "sequential"
	KindThreadPool  Kind = "thread-pool"
	KindProcessPool Kind = "process-pool"
	KindCooperative Kind = "cooperative"
)

// Kinds lists every strategy kind in presentation order.
func Kinds() []Kind {
	return []Kind{KindSequential, KindThreadPool, KindProcessPool, KindCooperative}
}

// ParseKind resolves a strategy name, accepting a few common aliases.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sequential", "serial":
		return KindSequential, nil
	case "thread-pool", "threads", "thread":
		return KindThreadPool, nil
	case "process-pool", "processes", "process":
		return KindProcessPool, nil
	case "cooperative", "async", "coop":
		return KindCooperative, nil
	}
	return "", apperrors.NewConfigError("unknown strategy %q (want one of %v)", s, Kinds())
}

// Option configures a strategy.
type Option func(*options)

type options struct {
	logger   logging.Logger
	launcher procworker.Launcher
	tracer   trace.Tracer
}

// WithLogger sets the logger strategies report lifecycle events to.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithLauncher sets how ProcessPool starts its worker processes.
func WithLauncher(l procworker.Launcher) Option {
	return func(o *options) { o.launcher = l }
}

func buildOptions(opts []Option) options {
	o := options{
		logger:   logging.Nop(),
		launcher: procworker.SelfLauncher,
		tracer:   otel.Tracer("github.com/agbru/taskbench/internal/strategy"),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New builds a strategy of the given kind. Sequential and Cooperative ignore
// workers; the pooled kinds require workers >= 1.
func New(kind Kind, workers int, opts ...Option) (Strategy, error) {
	switch kind {
	case KindSequential:
		return NewSequential(opts...), nil
	case KindCooperative:
		return NewCooperative(opts...), nil
	case KindThreadPool, KindProcessPool:
		if workers < 1 {
			return nil, apperrors.ValidationError{Field: "workers", Message: fmt.Sprintf("must be at least 1, got %d", workers)}
		}
		if kind == KindThreadPool {
			return NewThreadPool(workers, opts...), nil
		}
		return NewProcessPool(workers, opts...), nil
	}
	return nil, apperrors.NewConfigError("unknown strategy %q", kind)
}

// tieWindow is the resolution below which two completions count as
// simultaneous.
const tieWindow = time.Millisecond

// finished is an outcome stamped with the time its worker produced it.
type finished struct {
	task.Outcome
	at time.Time
}

func finish(o task.Outcome) finished { return finished{Outcome: o, at: time.Now()} }

// deliverInOrder forwards outcomes from results until it is closed. Among
// outcomes already waiting together, those finished within tieWindow of
// each other are forwarded in batch order; everything else keeps its
// finishing order.
func deliverInOrder(results <-chan finished, batch task.Batch, onComplete func(task.Outcome)) {
	pos := make(map[int]int, len(batch))
	for i, t := range batch {
		pos[t.ID] = i
	}
	ready := make([]finished, 0, len(batch))
	for f := range results {
		ready = append(ready[:0], f)
	drain:
		for {
			select {
			case more, ok := <-results:
				if !ok {
					break drain
				}
				ready = append(ready, more)
			default:
				break drain
			}
		}
		for _, o := range orderTies(ready, pos) {
			onComplete(o.Outcome)
		}
	}
}

// orderTies sorts ready by finishing time, breaking ties by batch position.
func orderTies(ready []finished, pos map[int]int) []finished {
	slices.SortStableFunc(ready, func(a, b finished) int { return a.at.Compare(b.at) })
	for i := 0; i < len(ready); {
		j := i + 1
		for j < len(ready) && ready[j].at.Sub(ready[i].at) < tieWindow {
			j++
		}
		slices.SortStableFunc(ready[i:j], func(a, b finished) int {
			return cmp.Compare(pos[a.TaskID], pos[b.TaskID])
		})
		i = j
	}
	return ready
}

// lifecycle enforces the single-batch rule shared by all strategies.
type lifecycle struct {
	used atomic.Bool
}

func (l *lifecycle) begin(batch task.Batch) error {
	if err := batch.Validate(); err != nil {
		return err
	}
	if !l.used.CompareAndSwap(false, true) {
		return ErrStrategyReused
	}
	return nil
}

// invoke runs one task and captures its result, its error or its panic as an
// Outcome. A task is not started once ctx has ended.
func invoke(ctx context.Context, tracer trace.Tracer, work task.WorkUnit, w task.Waiter, t task.Task, worker int) (o task.Outcome) {
	o.TaskID = t.ID
	o.Worker = worker
	if err := ctx.Err(); err != nil {
		o.Err = err
		return o
	}

	ctx, span := startSpan(ctx, tracer, work, t, worker)
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			o.Value = 0
			o.Err = apperrors.PanicError{TaskID: t.ID, Value: r}
		}
		o.Duration = time.Since(start)
		endSpan(span, o)
	}()

	v, err := work.Do(ctx, w, t.Workload)
	if err != nil {
		o.Err = err
		return o
	}
	o.Value = v
	return o
}

func startSpan(ctx context.Context, tracer trace.Tracer, work task.WorkUnit, t task.Task, worker int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "task.run", trace.WithAttributes(
		attribute.Int("task.id", t.ID),
		attribute.Int("task.workload", t.Workload),
		attribute.Int("worker", worker),
		attribute.String("work.name", work.Name()),
	))
}

func endSpan(span trace.Span, o task.Outcome) {
	if o.Err != nil {
		span.RecordError(o.Err)
		span.SetStatus(codes.Error, o.Err.Error())
	}
	span.End()
}

// poolSize is the number of workers actually started for a batch.
func poolSize(workers, batchLen int) int {
	return max(1, min(workers, batchLen))
}
