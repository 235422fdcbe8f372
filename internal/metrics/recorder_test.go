package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/agbru/taskbench/internal/task"
)

func TestRecorder_ObserveOutcome(t *testing.T) {
	t.Parallel()
	r := NewRecorder()

	r.RunStarted("thread-pool", 3)
	r.ObserveOutcome("thread-pool", task.Outcome{TaskID: 1, Value: 101, Duration: time.Millisecond})
	r.ObserveOutcome("thread-pool", task.Outcome{TaskID: 3, Value: 103, Duration: 3 * time.Millisecond})
	r.ObserveOutcome("thread-pool", task.Failure(2, errors.New("boom")))

	if got := testutil.ToFloat64(r.tasks.WithLabelValues("thread-pool", "success")); got != 2 {
		t.Errorf("success count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.tasks.WithLabelValues("thread-pool", "failure")); got != 1 {
		t.Errorf("failure count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.inFlight.WithLabelValues("thread-pool")); got != 0 {
		t.Errorf("in-flight gauge = %v, want 0 after every outcome", got)
	}
	if got := testutil.ToFloat64(r.runs.WithLabelValues("thread-pool")); got != 1 {
		t.Errorf("runs = %v, want 1", got)
	}
}

func TestRecorder_Handler(t *testing.T) {
	t.Parallel()
	r := NewRecorder()
	r.RunStarted("sequential", 1)
	r.ObserveOutcome("sequential", task.Success(1, 101))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	body := rec.Body.String()
	for _, want := range []string{"taskbench_tasks_total", "taskbench_task_duration_seconds", "go_goroutines"} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output should contain %s", want)
		}
	}
}

func TestRecorder_Independent(t *testing.T) {
	t.Parallel()
	// Two recorders must not panic on duplicate registration.
	a, b := NewRecorder(), NewRecorder()
	a.RunStarted("x", 1)
	if got := testutil.ToFloat64(b.runs.WithLabelValues("x")); got != 0 {
		t.Errorf("recorders share state: %v", got)
	}
}
