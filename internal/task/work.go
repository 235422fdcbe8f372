package task

import (
	"context"
	"time"
)

// Waiter is the suspension point offered to a work unit. Strategies that run
// on real threads hand out a blocking Waiter; the cooperative strategy hands
// out one that yields control to its event loop instead. Computation between
// two Wait calls never yields.
type Waiter interface {
	Wait(ctx context.Context, d time.Duration) error
}

// WaiterFunc is a function adapter that implements Waiter.
type WaiterFunc func(ctx context.Context, d time.Duration) error

// Wait calls the underlying function.
func (f WaiterFunc) Wait(ctx context.Context, d time.Duration) error { return f(ctx, d) }

// Blocking is the Waiter used by thread-based strategies. It parks the calling
// goroutine for d, returning early with the context error if ctx ends first.
var Blocking Waiter = WaiterFunc(func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
})

// WorkUnit is the pluggable function a strategy runs for every task.
// Implementations must not share mutable state between invocations, since
// pooled strategies call Do concurrently.
type WorkUnit interface {
	// Name identifies the work unit. It is used in failure messages and to
	// resolve the unit inside a worker process.
	Name() string
	// Do performs the work for taskNum, suspending only through w.
	Do(ctx context.Context, w Waiter, taskNum int) (int, error)
}
