package strategy

import (
	"context"

	"github.com/agbru/taskbench/internal/coop"
	"github.com/agbru/taskbench/internal/logging"
	"github.com/agbru/taskbench/internal/task"
)

// Cooperative runs every task as a coroutine on a single-threaded event loop.
// Tasks overlap only while suspended in Wait; a task that computes keeps the
// loop to itself, so CPU-bound work gains nothing from this strategy.
type Cooperative struct {
	lifecycle
	opts options
	loop *coop.Loop
}

// NewCooperative creates a cooperative strategy.
func NewCooperative(opts ...Option) *Cooperative {
	return &Cooperative{opts: buildOptions(opts), loop: coop.New()}
}

// Name implements Strategy.
func (c *Cooperative) Name() string { return string(KindCooperative) }

// Workers implements Strategy. The loop has a single thread of control.
func (c *Cooperative) Workers() int { return 1 }

// MaxRunning reports the peak number of tasks executing at once during Run.
func (c *Cooperative) MaxRunning() int { return c.loop.MaxRunning() }

// Run implements Strategy. onComplete runs on the loop's thread of control,
// between two coroutine resumptions.
func (c *Cooperative) Run(ctx context.Context, batch task.Batch, work task.WorkUnit, onComplete func(task.Outcome)) error {
	if err := c.begin(batch); err != nil {
		return err
	}
	for _, t := range batch {
		c.loop.Spawn(func(co *coop.Coroutine) {
			onComplete(invoke(ctx, c.opts.tracer, work, co, t, 0))
		})
	}
	c.opts.logger.Debug("cooperative loop started", logging.Int("tasks", len(batch)))
	return c.loop.Run(ctx)
}
