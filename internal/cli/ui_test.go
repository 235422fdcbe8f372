package cli

import (
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/taskbench/internal/task"
)

// MockSpinner for testing
type MockSpinner struct {
	mu      sync.Mutex
	started bool
	stopped bool
	suffix  string
	held    int
	// screen, when set, receives a marker where the spinner line is cleared.
	screen io.Writer
}

func (m *MockSpinner) Start() {
	m.mu.Lock()
	m.started = true
	m.mu.Unlock()
}

func (m *MockSpinner) Stop() {
	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()
}

func (m *MockSpinner) UpdateSuffix(suffix string) {
	m.mu.Lock()
	m.suffix = suffix
	m.mu.Unlock()
}

func (m *MockSpinner) Hold(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.held++
	if m.screen != nil {
		io.WriteString(m.screen, "<clear>")
	}
	fn()
}

func (m *MockSpinner) holds() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held
}

func TestRealSpinner(t *testing.T) {
	t.Parallel()
	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(io.Discard))
	rs := &realSpinner{s}

	rs.Start()
	rs.UpdateSuffix(" test")
	called := false
	rs.Hold(func() { called = true })
	rs.Stop()
	if !called {
		t.Error("Hold must always run its function")
	}
}

func TestTerminal_Println(t *testing.T) {
	t.Parallel()
	var screen strings.Builder
	mock := &MockSpinner{screen: &screen}
	term := &Terminal{}

	term.Println(&screen, "before")
	term.attach(mock)
	term.Println(&screen, "Completed task 101 in 1.001 seconds")
	term.detach()
	term.Println(&screen, "after")

	want := "before\n<clear>Completed task 101 in 1.001 seconds\nafter\n"
	if screen.String() != want {
		t.Errorf("screen = %q, want %q", screen.String(), want)
	}
	if mock.holds() != 1 {
		t.Errorf("spinner held %d times, want 1", mock.holds())
	}

	var nilTerm *Terminal
	var out strings.Builder
	nilTerm.Println(&out, "plain")
	if out.String() != "plain\n" {
		t.Errorf("nil Terminal wrote %q", out.String())
	}
}

// Not parallel: it swaps the package-level spinner factory.
func TestCompletionLinesClearTheSpinner(t *testing.T) {
	originalNewSpinner := newSpinner
	defer func() { newSpinner = originalNewSpinner }()

	var mu sync.Mutex
	var screen strings.Builder
	lockedScreen := writerFunc(func(p []byte) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		return screen.Write(p)
	})
	mock := &MockSpinner{screen: lockedScreen}
	newSpinner = func(options ...spinner.Option) Spinner { return mock }

	term := &Terminal{}
	reporter := NewCompletionReporter(lockedScreen, "io_bound_sleep_three", term)
	progress := CLIProgressReporter{Terminal: term}

	var wg sync.WaitGroup
	wg.Add(1)
	progressChan := make(chan task.Outcome)
	go progress.DisplayProgress(&wg, progressChan, task.NewBatch(2), io.Discard)

	// The unbuffered send returns once the progress loop runs, after the
	// spinner is attached.
	progressChan <- task.Success(2, 102)
	reporter.Report(task.Outcome{TaskID: 1, Value: 101, Elapsed: time.Second})
	close(progressChan)
	wg.Wait()
	reporter.Report(task.Outcome{TaskID: 2, Value: 102, Elapsed: 2 * time.Second})

	if mock.holds() != 1 {
		t.Errorf("spinner held %d times, want 1 while it was running", mock.holds())
	}
	mu.Lock()
	got := screen.String()
	mu.Unlock()
	if !strings.Contains(got, "<clear>") || strings.Index(got, "<clear>") > strings.Index(got, "Completed task 101") {
		t.Errorf("line written while the spinner ran was not preceded by a clear: %q", got)
	}
	if strings.Count(got, "<clear>") != 1 {
		t.Errorf("line written after the spinner stopped should not clear: %q", got)
	}
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

// Not parallel: it swaps the package-level spinner factory.
func TestDisplayProgress(t *testing.T) {
	originalNewSpinner := newSpinner
	defer func() { newSpinner = originalNewSpinner }()

	mockS := &MockSpinner{}
	newSpinner = func(options ...spinner.Option) Spinner {
		return mockS
	}

	var wg sync.WaitGroup
	wg.Add(1)
	progressChan := make(chan task.Outcome)

	go func() {
		progressChan <- task.Success(1, 101)
		progressChan <- task.Success(2, 102)
		time.Sleep(10 * time.Millisecond)
		close(progressChan)
	}()

	DisplayProgress(&wg, progressChan, task.NewBatch(2), io.Discard)
	wg.Wait()

	if !mockS.started {
		t.Error("Spinner should have started")
	}
	if !mockS.stopped {
		t.Error("Spinner should have stopped")
	}
	if !strings.Contains(mockS.suffix, "2/2 tasks") {
		t.Errorf("final suffix should report 2/2 tasks, got %q", mockS.suffix)
	}
}

func TestDisplayProgress_EmptyBatch(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	progressChan := make(chan task.Outcome)
	close(progressChan)

	DisplayProgress(&wg, progressChan, nil, io.Discard)
	wg.Wait()
}

func TestProgressSuffix(t *testing.T) {
	t.Parallel()
	got := progressSuffix(3, 8, 0.25, 2*time.Second)
	for _, want := range []string{"3/8 tasks", "25.0%", "ETA: 2s"} {
		if !strings.Contains(got, want) {
			t.Errorf("suffix %q should contain %q", got, want)
		}
	}
}
