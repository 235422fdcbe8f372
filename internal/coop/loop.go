// Package coop implements a single-threaded cooperative scheduler.
//
// Each spawned coroutine runs on its own goroutine, but a coroutine only
// executes while it holds the loop's single execution token. The token is
// handed over exclusively at Wait: a coroutine that computes keeps it, so the
// loop gives concurrency to coroutines that suspend and no parallelism at all
// to coroutines that compute.
package coop

import (
	"container/heap"
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/agbru/taskbench/internal/task"
)

// ErrLoopUsed is returned when Run is called more than once on a Loop.
var ErrLoopUsed = errors.New("coop: loop already ran")

type eventKind int

const (
	evSleep eventKind = iota
	evDone
)

type event struct {
	co   *Coroutine
	kind eventKind
	d    time.Duration
}

// Coroutine is the handle a spawned function receives. It implements
// task.Waiter; Wait must only be called from the coroutine's own function.
type Coroutine struct {
	id     int
	loop   *Loop
	resume chan error

	// Scheduling state owned by the loop goroutine.
	wake    time.Time
	seq     uint64
	wakeErr error
}

var _ task.Waiter = (*Coroutine)(nil)

// ID returns the spawn index of the coroutine, starting at 0.
func (c *Coroutine) ID() int { return c.id }

// Wait suspends the coroutine for d and lets the loop run other coroutines
// meanwhile. A non-positive d yields once and requeues the coroutine behind
// those already ready.
func (c *Coroutine) Wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.loop.events <- event{co: c, kind: evSleep, d: d}
	return <-c.resume
}

// Loop is a run queue of ready coroutines plus a timer heap of sleeping ones.
// Coroutines are resumed one at a time, with no preemption.
type Loop struct {
	events  chan event
	runq    []*Coroutine
	timers  timerHeap
	spawned []*Coroutine
	seq     uint64
	used    atomic.Bool

	running    atomic.Int32
	maxRunning atomic.Int32
}

// New creates an empty loop.
func New() *Loop {
	return &Loop{events: make(chan event)}
}

// Spawn registers fn as a coroutine. It does not start executing until Run.
// Coroutines first run in spawn order.
func (l *Loop) Spawn(fn func(c *Coroutine)) {
	c := &Coroutine{id: len(l.spawned), loop: l, resume: make(chan error)}
	l.spawned = append(l.spawned, c)
	go func() {
		// The first resume grants the token; the error is always nil here.
		<-c.resume
		defer func() { l.events <- event{co: c, kind: evDone} }()
		l.enter()
		defer l.leave()
		fn(c)
	}()
}

// Run drives every spawned coroutine to completion. If ctx ends while some
// coroutines are sleeping, they are woken immediately and their Wait returns
// the context error; Run still waits for all of them to finish.
func (l *Loop) Run(ctx context.Context) error {
	if !l.used.CompareAndSwap(false, true) {
		return ErrLoopUsed
	}
	l.runq = append(l.runq, l.spawned...)
	live := len(l.spawned)

	for live > 0 {
		if len(l.runq) == 0 {
			l.awaitTimers(ctx)
			continue
		}

		c := l.runq[0]
		l.runq = l.runq[1:]
		err := c.wakeErr
		c.wakeErr = nil
		c.resume <- err

		ev := <-l.events
		switch ev.kind {
		case evDone:
			live--
		case evSleep:
			l.suspend(ctx, ev.co, ev.d)
		}
	}
	return nil
}

// MaxRunning reports the largest number of coroutines observed executing at
// the same instant. For a correct loop it never exceeds 1.
func (l *Loop) MaxRunning() int { return int(l.maxRunning.Load()) }

func (l *Loop) enter() {
	n := l.running.Add(1)
	for {
		m := l.maxRunning.Load()
		if n <= m || l.maxRunning.CompareAndSwap(m, n) {
			return
		}
	}
}

func (l *Loop) leave() { l.running.Add(-1) }

func (l *Loop) suspend(ctx context.Context, c *Coroutine, d time.Duration) {
	if err := ctx.Err(); err != nil {
		c.wakeErr = err
		l.runq = append(l.runq, c)
		return
	}
	if d <= 0 {
		l.runq = append(l.runq, c)
		return
	}
	l.seq++
	c.wake = time.Now().Add(d)
	c.seq = l.seq
	heap.Push(&l.timers, c)
}

// awaitTimers blocks until the earliest timer is due (or ctx ends) and moves
// every due coroutine to the run queue in (wake, seq) order.
func (l *Loop) awaitTimers(ctx context.Context) {
	if l.timers.Len() == 0 {
		return
	}
	if d := time.Until(l.timers[0].wake); d > 0 {
		timer := time.NewTimer(d)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			for l.timers.Len() > 0 {
				c := heap.Pop(&l.timers).(*Coroutine)
				c.wakeErr = ctx.Err()
				l.runq = append(l.runq, c)
			}
			return
		}
	}
	now := time.Now()
	for l.timers.Len() > 0 && !l.timers[0].wake.After(now) {
		l.runq = append(l.runq, heap.Pop(&l.timers).(*Coroutine))
	}
}

// timerHeap orders sleeping coroutines by wake time, then by the order in
// which they went to sleep.
type timerHeap []*Coroutine

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].wake.Equal(h[j].wake) {
		return h[i].seq < h[j].seq
	}
	return h[i].wake.Before(h[j].wake)
}
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x any)   { *h = append(*h, x.(*Coroutine)) }
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return c
}
