package strategy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/agbru/taskbench/internal/errors"
	"github.com/agbru/taskbench/internal/logging"
	"github.com/agbru/taskbench/internal/parallel"
	"github.com/agbru/taskbench/internal/procworker"
	"github.com/agbru/taskbench/internal/task"
	"github.com/agbru/taskbench/internal/workload"
)

// ProcessPool runs tasks in separate worker processes that share no memory
// with the caller. Only the work unit's Spec, each task number and each
// result cross the process boundary.
//
// A worker that dies mid-task yields a WorkerCrashError outcome for that task
// and is replaced before it takes the next one.
type ProcessPool struct {
	lifecycle
	workers int
	opts    options
}

// NewProcessPool creates a process pool with the given number of workers.
// Values below 1 are raised to 1.
func NewProcessPool(workers int, opts ...Option) *ProcessPool {
	return &ProcessPool{workers: max(1, workers), opts: buildOptions(opts)}
}

// Name implements Strategy.
func (p *ProcessPool) Name() string { return string(KindProcessPool) }

// Workers implements Strategy.
func (p *ProcessPool) Workers() int { return p.workers }

// Run implements Strategy. work must implement workload.Portable.
func (p *ProcessPool) Run(ctx context.Context, batch task.Batch, work task.WorkUnit, onComplete func(task.Outcome)) error {
	portable, ok := work.(workload.Portable)
	if !ok {
		return apperrors.ValidationError{
			Field:   "work",
			Message: fmt.Sprintf("%s cannot be sent to a worker process", work.Name()),
		}
	}
	spec, err := portable.Spec()
	if err != nil {
		return err
	}
	if err := p.begin(batch); err != nil {
		return err
	}

	size := poolSize(p.workers, len(batch))
	slots, err := p.startAll(size, spec)
	if err != nil {
		return err
	}
	defer p.closeAll(slots)

	// Killing the workers is the only way to interrupt a blocking exchange.
	stop := context.AfterFunc(ctx, func() {
		for _, s := range slots {
			s.kill()
		}
	})
	defer stop()

	queue := make(chan task.Task)
	results := make(chan finished, len(batch))

	var g errgroup.Group
	g.Go(func() error {
		defer close(queue)
		for _, t := range batch {
			queue <- t
		}
		return nil
	})
	for i, s := range slots {
		id := i + 1
		g.Go(func() error {
			for t := range queue {
				results <- finish(p.dispatch(ctx, s, spec, work, t, id))
			}
			return nil
		})
	}
	p.opts.logger.Debug("process pool started", logging.Int("workers", size), logging.Int("tasks", len(batch)))

	go func() {
		_ = g.Wait()
		close(results)
	}()

	deliverInOrder(results, batch, onComplete)
	return nil
}

// slot owns the current process of one pool worker.
type slot struct {
	mu   sync.Mutex
	proc *procworker.Process
}

func (s *slot) get() *procworker.Process {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proc
}

func (s *slot) set(proc *procworker.Process) {
	s.mu.Lock()
	s.proc = proc
	s.mu.Unlock()
}

func (s *slot) kill() {
	if proc := s.get(); proc != nil {
		proc.Kill()
	}
}

func (p *ProcessPool) startAll(size int, spec workload.Spec) ([]*slot, error) {
	slots := make([]*slot, 0, size)
	for i := 0; i < size; i++ {
		proc, err := procworker.Start(p.opts.launcher, spec)
		if err != nil {
			for _, s := range slots {
				s.kill()
			}
			return nil, apperrors.WrapError(err, "start worker %d", i+1)
		}
		slots = append(slots, &slot{proc: proc})
	}
	return slots, nil
}

func (p *ProcessPool) closeAll(slots []*slot) {
	var errs parallel.ErrorCollector
	var wg sync.WaitGroup
	for _, s := range slots {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if proc := s.get(); proc != nil {
				errs.SetError(proc.Close())
			}
		}()
	}
	wg.Wait()
	if err := errs.Err(); err != nil {
		p.opts.logger.Error("worker shutdown", err, logging.Int("failed", errs.Count()))
	}
}

// dispatch runs one task on the slot's process, replacing a dead process
// first.
func (p *ProcessPool) dispatch(ctx context.Context, s *slot, spec workload.Spec, work task.WorkUnit, t task.Task, worker int) (o task.Outcome) {
	o.TaskID = t.ID
	o.Worker = worker
	if err := ctx.Err(); err != nil {
		o.Err = err
		return o
	}
	_, span := startSpan(ctx, p.opts.tracer, work, t, worker)
	start := time.Now()
	defer func() {
		o.Duration = time.Since(start)
		endSpan(span, o)
	}()

	proc := s.get()
	if proc == nil {
		var err error
		proc, err = procworker.Start(p.opts.launcher, spec)
		if err != nil {
			o.Err = apperrors.WorkerCrashError{Worker: worker, TaskID: t.ID, Cause: err}
			return o
		}
		s.set(proc)
		// A cancellation that raced the respawn missed this process.
		if err := ctx.Err(); err != nil {
			proc.Kill()
			s.set(nil)
			o.Err = err
			return o
		}
		p.opts.logger.Info("worker respawned", logging.Int("worker", worker), logging.Int("pid", proc.Pid()))
	}

	resp, err := proc.Do(procworker.Request{TaskID: t.ID, TaskNum: t.Workload})
	if err != nil {
		s.set(nil)
		if ctxErr := ctx.Err(); ctxErr != nil {
			o.Err = ctxErr
			return o
		}
		p.opts.logger.Error("worker crashed", err, logging.Int("worker", worker), logging.Int("task", t.ID))
		o.Err = apperrors.WorkerCrashError{Worker: worker, TaskID: t.ID, Cause: err}
		return o
	}
	if err := resp.Err(); err != nil {
		o.Err = err
		return o
	}
	o.Value = resp.Value
	return o
}
