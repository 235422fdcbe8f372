package strategy

import (
	"context"

	"github.com/agbru/taskbench/internal/logging"
	"github.com/agbru/taskbench/internal/task"
)

// Sequential runs tasks one at a time, in batch order, on the caller's
// goroutine. Completion order therefore equals submission order.
type Sequential struct {
	lifecycle
	opts options
}

// NewSequential creates a sequential strategy.
func NewSequential(opts ...Option) *Sequential {
	return &Sequential{opts: buildOptions(opts)}
}

// Name implements Strategy.
func (s *Sequential) Name() string { return string(KindSequential) }

// Workers implements Strategy.
func (s *Sequential) Workers() int { return 1 }

// Run implements Strategy.
func (s *Sequential) Run(ctx context.Context, batch task.Batch, work task.WorkUnit, onComplete func(task.Outcome)) error {
	if err := s.begin(batch); err != nil {
		return err
	}
	s.opts.logger.Debug("sequential run started", logging.Int("tasks", len(batch)))
	for _, t := range batch {
		onComplete(invoke(ctx, s.opts.tracer, work, task.Blocking, t, 0))
	}
	return nil
}
