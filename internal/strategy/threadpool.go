package strategy

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/agbru/taskbench/internal/logging"
	"github.com/agbru/taskbench/internal/task"
)

// ThreadPool runs tasks on a fixed set of worker goroutines sharing memory.
// Tasks are handed out in batch order; when there are more tasks than
// workers, the excess waits for the next free worker.
type ThreadPool struct {
	lifecycle
	workers int
	opts    options
}

// NewThreadPool creates a thread pool with the given number of workers.
// Values below 1 are raised to 1.
func NewThreadPool(workers int, opts ...Option) *ThreadPool {
	return &ThreadPool{workers: max(1, workers), opts: buildOptions(opts)}
}

// Name implements Strategy.
func (p *ThreadPool) Name() string { return string(KindThreadPool) }

// Workers implements Strategy.
func (p *ThreadPool) Workers() int { return p.workers }

// Run implements Strategy.
func (p *ThreadPool) Run(ctx context.Context, batch task.Batch, work task.WorkUnit, onComplete func(task.Outcome)) error {
	if err := p.begin(batch); err != nil {
		return err
	}

	size := poolSize(p.workers, len(batch))
	queue := make(chan task.Task)
	// Buffered to the batch size so a slow reporter never stalls a worker.
	results := make(chan finished, len(batch))

	// A plain group: one task's failure must not cancel its siblings.
	var g errgroup.Group
	g.Go(func() error {
		defer close(queue)
		for _, t := range batch {
			queue <- t
		}
		return nil
	})
	for id := 1; id <= size; id++ {
		g.Go(func() error {
			for t := range queue {
				results <- finish(invoke(ctx, p.opts.tracer, work, task.Blocking, t, id))
			}
			return nil
		})
	}
	p.opts.logger.Debug("thread pool started", logging.Int("workers", size), logging.Int("tasks", len(batch)))

	go func() {
		_ = g.Wait()
		close(results)
	}()

	deliverInOrder(results, batch, onComplete)
	return nil
}
