package workload

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "github.com/agbru/taskbench/internal/errors"
	"github.com/agbru/taskbench/internal/task"
)

// recordingWaiter records requested waits without sleeping.
type recordingWaiter struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (r *recordingWaiter) Wait(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waits = append(r.waits, d)
	return nil
}

func TestIOBound(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		unit    IOBound
		taskNum int
		want    int
		wantMsg string
	}{
		{"success", NewIOBound(time.Millisecond, FailOn(DefaultFailOn)), 5, 105, ""},
		{"failure", NewIOBound(time.Millisecond, FailOn(DefaultFailOn)), 2, 0, "Some type of error in IO bound call"},
		{"async failure", NewAsyncIOBound(time.Millisecond, FailOn(DefaultFailOn)), 2, 0, "Some type of error in async IO bound call"},
		{"no failures configured", NewIOBound(time.Millisecond, nil), 2, 102, ""},
		{"custom predicate", IOBound{Unit: time.Millisecond, ShouldFail: func(n int) bool { return n%2 == 1 }}, 3, 0, "Some type of error in IO bound call"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := &recordingWaiter{}
			got, err := tt.unit.Do(context.Background(), w, tt.taskNum)
			if tt.wantMsg != "" {
				if err == nil || err.Error() != tt.wantMsg {
					t.Fatalf("expected error %q, got %v", tt.wantMsg, err)
				}
				var we apperrors.WorkError
				if !errors.As(err, &we) || we.TaskNum != tt.taskNum {
					t.Errorf("expected WorkError for task %d, got %#v", tt.taskNum, err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Do() = %d, want %d", got, tt.want)
			}
			if len(w.waits) != 1 || w.waits[0] != time.Duration(tt.taskNum)*time.Millisecond {
				t.Errorf("expected a single wait of %dms, got %v", tt.taskNum, w.waits)
			}
		})
	}
}

func TestIOBound_WaitErrorPropagates(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewIOBound(time.Hour, nil).Do(ctx, task.Blocking, 1)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCPUBound(t *testing.T) {
	t.Parallel()

	t.Run("iteration budget", func(t *testing.T) {
		t.Parallel()
		u := NewCPUBound(1000, FailOn(DefaultFailOn))
		got, err := u.Do(context.Background(), nil, 4)
		if err != nil || got != 104 {
			t.Errorf("Do(4) = %d, %v; want 104, nil", got, err)
		}
		_, err = u.Do(context.Background(), nil, 2)
		if err == nil || err.Error() != "Some type of error in CPU bound call" {
			t.Errorf("Do(2) error = %v", err)
		}
	})

	t.Run("timed spins at least the requested time", func(t *testing.T) {
		t.Parallel()
		u := NewCPUTimed(10*time.Millisecond, nil)
		start := time.Now()
		got, err := u.Do(context.Background(), nil, 3)
		if err != nil || got != 103 {
			t.Fatalf("Do(3) = %d, %v", got, err)
		}
		if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
			t.Errorf("timed CPU unit returned after %v, want >= 30ms", elapsed)
		}
	})

	t.Run("never calls the waiter", func(t *testing.T) {
		t.Parallel()
		w := &recordingWaiter{}
		if _, err := NewCPUBound(10, nil).Do(context.Background(), w, 1); err != nil {
			t.Fatal(err)
		}
		if len(w.waits) != 0 {
			t.Errorf("CPU unit must not suspend, got waits %v", w.waits)
		}
	})

	t.Run("canceled context stops the loop", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewCPUBound(DefaultIterations, nil).Do(ctx, nil, 100)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

// TestCPUBound_ConcurrentCalls runs many invocations at once; with -race it
// proves the scratch buffer is not shared between calls.
func TestCPUBound_ConcurrentCalls(t *testing.T) {
	t.Parallel()
	u := NewCPUBound(5000, nil)
	var wg sync.WaitGroup
	for i := 1; i <= 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if got, err := u.Do(context.Background(), nil, n); err != nil || got != n+100 {
				t.Errorf("Do(%d) = %d, %v", n, got, err)
			}
		}(i)
	}
	wg.Wait()
}

func TestSpecRoundTrip(t *testing.T) {
	t.Parallel()
	units := []Portable{
		NewIOBound(time.Millisecond, FailOn(2)),
		NewAsyncIOBound(time.Millisecond, FailOn(2, 3)),
		NewCPUBound(100, FailOn(2)),
		NewCPUTimed(time.Millisecond, nil),
	}
	for _, u := range units {
		spec, err := u.Spec()
		if err != nil {
			t.Fatalf("Spec() for %s: %v", u.Name(), err)
		}
		rebuilt, err := FromSpec(spec)
		if err != nil {
			t.Fatalf("FromSpec(%+v): %v", spec, err)
		}
		if rebuilt.Name() != u.Name() {
			t.Errorf("rebuilt name %q, want %q", rebuilt.Name(), u.Name())
		}
		for _, n := range []int{1, 2, 3} {
			wantV, wantErr := u.Do(context.Background(), &recordingWaiter{}, n)
			gotV, gotErr := rebuilt.Do(context.Background(), &recordingWaiter{}, n)
			if gotV != wantV || (gotErr == nil) != (wantErr == nil) {
				t.Errorf("%s(%d): rebuilt = %d, %v; original = %d, %v", spec.Kind, n, gotV, gotErr, wantV, wantErr)
			}
		}
	}
}

func TestSpec_NotPortable(t *testing.T) {
	t.Parallel()
	u := IOBound{Unit: time.Millisecond, ShouldFail: func(int) bool { return true }}
	if _, err := u.Spec(); err == nil {
		t.Error("expected an error for a custom predicate")
	}
	if _, err := FromSpec(Spec{Kind: "quantum"}); err == nil {
		t.Error("expected an error for an unknown kind")
	}
}

func TestExitingUnit(t *testing.T) {
	t.Parallel()
	var exited []int
	u := exiting{
		WorkUnit: NewIOBound(0, nil),
		exitOn:   FailOn(5),
		exit:     func(code int) { exited = append(exited, code) },
	}
	if _, err := u.Do(context.Background(), &recordingWaiter{}, 4); err != nil {
		t.Fatal(err)
	}
	if len(exited) != 0 {
		t.Fatalf("exit called for task 4: %v", exited)
	}
	_, _ = u.Do(context.Background(), &recordingWaiter{}, 5)
	if len(exited) != 1 || exited[0] != ExitCode {
		t.Errorf("expected one exit with code %d, got %v", ExitCode, exited)
	}
}
