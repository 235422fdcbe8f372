package orchestration_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus/testutil"

	apperrors "github.com/agbru/taskbench/internal/errors"
	"github.com/agbru/taskbench/internal/logging"
	"github.com/agbru/taskbench/internal/metrics"
	"github.com/agbru/taskbench/internal/orchestration"
	"github.com/agbru/taskbench/internal/orchestration/mocks"
	"github.com/agbru/taskbench/internal/strategy"
	"github.com/agbru/taskbench/internal/task"
	"github.com/agbru/taskbench/internal/workload"
)

// taskID matches an Outcome by task id.
type taskID int

func (id taskID) Matches(x interface{}) bool {
	o, ok := x.(task.Outcome)
	return ok && o.TaskID == int(id)
}

func (id taskID) String() string { return fmt.Sprintf("outcome of task %d", int(id)) }

// TestExecute_ReportsInCompletionOrder verifies that the reporter sees every
// outcome once, shortest task first.
func TestExecute_ReportsInCompletionOrder(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	reporter := mocks.NewMockCompletionReporter(ctrl)

	gomock.InOrder(
		reporter.EXPECT().Report(taskID(1)),
		reporter.EXPECT().Report(taskID(2)),
		reporter.EXPECT().Report(taskID(3)),
		reporter.EXPECT().Report(taskID(4)),
	)

	work := workload.NewIOBound(20*time.Millisecond, workload.FailOn(workload.DefaultFailOn))
	summary, err := orchestration.Execute(context.Background(), strategy.NewThreadPool(4), task.NewBatch(4), work, reporter)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if summary.RunID == "" {
		t.Error("RunID should be set")
	}
	if summary.Strategy != "thread-pool" || summary.Workers != 4 || summary.Work != "io_bound_simulator" {
		t.Errorf("unexpected summary header %+v", summary)
	}
	if summary.Failures != 1 || summary.Succeeded() != 3 {
		t.Errorf("failures = %d, succeeded = %d; want 1, 3", summary.Failures, summary.Succeeded())
	}
	var last time.Duration
	for _, o := range summary.Outcomes {
		if o.Elapsed < last {
			t.Errorf("elapsed times must be non-decreasing: %v after %v", o.Elapsed, last)
		}
		last = o.Elapsed
	}
	if summary.Wall < last {
		t.Errorf("wall %v shorter than last outcome %v", summary.Wall, last)
	}
}

// TestExecute_SequentialElapsedIsRunningSum checks that over [8..1] each
// outcome's Elapsed is the sum of the workloads run so far.
func TestExecute_SequentialElapsedIsRunningSum(t *testing.T) {
	t.Parallel()
	const unit = 5 * time.Millisecond
	work := workload.NewIOBound(unit, workload.FailOn(workload.DefaultFailOn))
	summary, err := orchestration.Execute(context.Background(), strategy.NewSequential(), task.NewBatch(8), work, orchestration.NullCompletionReporter{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	sum := 0
	for i, o := range summary.Outcomes {
		if o.TaskID != 8-i {
			t.Fatalf("outcome %d is task %d, want %d", i, o.TaskID, 8-i)
		}
		sum += o.TaskID
		want := time.Duration(sum) * unit
		// Each sleep may overshoot a little; the overshoot accumulates.
		if o.Elapsed < want || o.Elapsed > want+time.Duration(i+1)*3*time.Millisecond+20*time.Millisecond {
			t.Errorf("task %d elapsed %v, want about %v", o.TaskID, o.Elapsed, want)
		}
	}
	if sum != 36 {
		t.Errorf("workloads sum to %d, want 36", sum)
	}
}

func TestExecute_ProgressSeesEveryOutcome(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	progress := mocks.NewMockProgressReporter(ctrl)

	var seen int
	progress.EXPECT().
		DisplayProgress(gomock.Any(), gomock.Any(), gomock.Len(5), gomock.Any()).
		DoAndReturn(func(wg *sync.WaitGroup, ch <-chan task.Outcome, _ task.Batch, _ io.Writer) {
			defer wg.Done()
			for range ch {
				seen++
			}
		})

	_, err := orchestration.Execute(context.Background(), strategy.NewSequential(), task.NewBatch(5),
		workload.NewIOBound(0, nil), orchestration.NullCompletionReporter{},
		orchestration.WithProgress(progress, io.Discard))
	if err != nil {
		t.Fatal(err)
	}
	// Execute waits for the display goroutine before returning.
	if seen != 5 {
		t.Errorf("progress saw %d outcomes, want 5", seen)
	}
}

func TestExecute_SetupError(t *testing.T) {
	t.Parallel()
	_, err := orchestration.Execute(context.Background(), strategy.NewSequential(), task.Batch{}, workload.NewIOBound(0, nil), nil)
	var ve apperrors.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("expected ValidationError for an empty batch, got %v", err)
	}
}

func TestExecute_RecordsMetricsAndLogs(t *testing.T) {
	t.Parallel()
	rec := metrics.NewRecorder()
	var logs bytes.Buffer
	logger := logging.NewLogger(&logs, "test")

	_, err := orchestration.Execute(context.Background(), strategy.NewCooperative(), task.NewBatch(4),
		workload.NewAsyncIOBound(time.Millisecond, workload.FailOn(2)), nil,
		orchestration.WithRecorder(rec), orchestration.WithLogger(logger))
	if err != nil {
		t.Fatal(err)
	}

	expected := `
# HELP taskbench_tasks_total Tasks that produced an outcome, by strategy and status.
# TYPE taskbench_tasks_total counter
taskbench_tasks_total{status="failure",strategy="cooperative"} 1
taskbench_tasks_total{status="success",strategy="cooperative"} 3
`
	if err := testutil.GatherAndCompare(rec.Registry(), strings.NewReader(expected), "taskbench_tasks_total"); err != nil {
		t.Error(err)
	}
	for _, want := range []string{`"run_id"`, `"message":"run finished"`, `"strategy":"cooperative"`} {
		if !bytes.Contains(logs.Bytes(), []byte(want)) {
			t.Errorf("logs missing %s:\n%s", want, logs.String())
		}
	}
}

func TestStream(t *testing.T) {
	t.Parallel()
	st := orchestration.Stream(context.Background(), strategy.NewThreadPool(3), task.NewBatch(3),
		workload.NewIOBound(10*time.Millisecond, workload.FailOn(2)))

	var ids []int
	for o := range st.Outcomes() {
		ids = append(ids, o.TaskID)
	}
	if len(ids) != 3 || ids[0] != 1 || ids[2] != 3 {
		t.Errorf("stream order = %v, want [1 2 3]", ids)
	}

	summary, err := st.Summary()
	if err != nil || summary.Failures != 1 {
		t.Errorf("Summary() = %+v, %v", summary, err)
	}
	// The stream is single pass: a second call hands back the closed channel.
	if _, ok := <-st.Outcomes(); ok {
		t.Error("stream must not restart")
	}
}

func TestStream_IsLazy(t *testing.T) {
	t.Parallel()
	var calls int
	var mu sync.Mutex
	unit := countingUnit{calls: &calls, mu: &mu}
	st := orchestration.Stream(context.Background(), strategy.NewSequential(), task.NewBatch(2), unit)

	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	if calls != 0 {
		t.Errorf("work ran before the stream was consumed: %d calls", calls)
	}
	mu.Unlock()

	if _, err := st.Summary(); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

type countingUnit struct {
	calls *int
	mu    *sync.Mutex
}

func (countingUnit) Name() string { return "counting" }

func (u countingUnit) Do(_ context.Context, _ task.Waiter, n int) (int, error) {
	u.mu.Lock()
	*u.calls++
	u.mu.Unlock()
	return n + 100, nil
}

func TestRunSummary_Speedup(t *testing.T) {
	t.Parallel()
	s := orchestration.RunSummary{Wall: 2 * time.Second, Busy: 6 * time.Second}
	if s.Speedup() != 3 {
		t.Errorf("Speedup() = %v, want 3", s.Speedup())
	}
	if (orchestration.RunSummary{}).Speedup() != 0 {
		t.Error("zero wall time should yield zero speedup")
	}
}
