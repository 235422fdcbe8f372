package coop

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// orderLog records completion order; only the coroutine holding the token
// appends, but the mutex keeps the race detector honest about that claim.
type orderLog struct {
	mu  sync.Mutex
	ids []int
}

func (o *orderLog) add(id int) {
	o.mu.Lock()
	o.ids = append(o.ids, id)
	o.mu.Unlock()
}

func TestLoop_SleepersOverlap(t *testing.T) {
	t.Parallel()
	const unit = 20 * time.Millisecond
	l := New()
	log := &orderLog{}

	for _, n := range []int{4, 3, 2, 1} {
		n := n
		l.Spawn(func(c *Coroutine) {
			if err := c.Wait(context.Background(), time.Duration(n)*unit); err != nil {
				t.Errorf("Wait: %v", err)
			}
			log.add(n)
		})
	}

	start := time.Now()
	if err := l.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	elapsed := time.Since(start)

	want := []int{1, 2, 3, 4}
	for i := range want {
		if log.ids[i] != want[i] {
			t.Fatalf("completion order = %v, want %v", log.ids, want)
		}
	}
	if elapsed >= 8*unit {
		t.Errorf("sleepers did not overlap: took %v, sum would be %v", elapsed, 10*unit)
	}
	if l.MaxRunning() != 1 {
		t.Errorf("MaxRunning() = %d, want 1", l.MaxRunning())
	}
}

func TestLoop_ComputeDoesNotOverlap(t *testing.T) {
	t.Parallel()
	const unit = 15 * time.Millisecond
	l := New()

	for _, n := range []int{3, 2, 1} {
		n := n
		l.Spawn(func(c *Coroutine) {
			// Busy computation never yields the token.
			deadline := time.Now().Add(time.Duration(n) * unit)
			for time.Now().Before(deadline) {
			}
		})
	}

	start := time.Now()
	if err := l.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 6*unit {
		t.Errorf("compute coroutines overlapped: took %v, want >= %v", elapsed, 6*unit)
	}
	if l.MaxRunning() != 1 {
		t.Errorf("MaxRunning() = %d, want 1", l.MaxRunning())
	}
}

func TestLoop_ZeroWaitYields(t *testing.T) {
	t.Parallel()
	l := New()
	log := &orderLog{}

	l.Spawn(func(c *Coroutine) {
		log.add(1)
		_ = c.Wait(context.Background(), 0)
		log.add(3)
	})
	l.Spawn(func(c *Coroutine) {
		log.add(2)
	})

	if err := l.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	want := []int{1, 2, 3}
	for i := range want {
		if log.ids[i] != want[i] {
			t.Fatalf("order = %v, want %v", log.ids, want)
		}
	}
}

func TestLoop_CancelWakesSleepers(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	l := New()

	var mu sync.Mutex
	var errs []error
	for i := 0; i < 3; i++ {
		l.Spawn(func(c *Coroutine) {
			err := c.Wait(ctx, time.Hour)
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		})
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = l.Run(ctx)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not return after cancellation")
	}

	if len(errs) != 3 {
		t.Fatalf("expected 3 wake-ups, got %d", len(errs))
	}
	for _, err := range errs {
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	}
}

func TestLoop_RunOnce(t *testing.T) {
	t.Parallel()
	l := New()
	l.Spawn(func(*Coroutine) {})
	if err := l.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := l.Run(context.Background()); !errors.Is(err, ErrLoopUsed) {
		t.Errorf("second Run error = %v, want ErrLoopUsed", err)
	}
}

func TestLoop_Empty(t *testing.T) {
	t.Parallel()
	if err := New().Run(context.Background()); err != nil {
		t.Errorf("empty loop returned %v", err)
	}
}
