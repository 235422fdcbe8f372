// Package strategy implements the execution strategies a batch of tasks can
// run under: Sequential, ThreadPool, ProcessPool and Cooperative.
//
// Every strategy honours the same contract: onComplete is invoked exactly once
// per task, from one goroutine at a time, in the order tasks finish. A task's
// failure (an error, a panic, or the death of the worker process running it)
// becomes that task's Outcome and never affects any other task.
//
// The pools stamp each result when its worker produces it. Results that
// finish within a millisecond of each other and are waiting together are
// reported in batch order.
//
// A strategy instance runs a single batch; a second Run returns
// ErrStrategyReused.
package strategy
