package parallel

import (
	"fmt"
	"strings"
	"sync"
	"testing"
)

// TestErrorCollectorHighContention verifies that ErrorCollector keeps exactly
// one error while many workers shut down at once, repeated to increase
// confidence.
func TestErrorCollectorHighContention(t *testing.T) {
	for round := 0; round < 50; round++ {
		var ec ErrorCollector
		var wg sync.WaitGroup
		const workers = 500

		// Barrier to start all goroutines simultaneously
		barrier := make(chan struct{})

		wg.Add(workers)
		for i := 0; i < workers; i++ {
			go func(id int) {
				defer wg.Done()
				<-barrier
				ec.SetError(fmt.Errorf("worker %d: close failed", id))
			}(i)
		}

		close(barrier)
		wg.Wait()

		err := ec.Err()
		if err == nil {
			t.Fatalf("round %d: expected an error, got nil", round)
		}
		if !strings.HasPrefix(err.Error(), "worker ") {
			t.Errorf("round %d: unexpected error format: %v", round, err)
		}
		if ec.Count() != workers {
			t.Errorf("round %d: Count() = %d, want %d", round, ec.Count(), workers)
		}
	}
}

// TestErrorCollectorNilIgnored verifies clean shutdowns (nil errors) neither
// mask a real failure nor count as one.
func TestErrorCollectorNilIgnored(t *testing.T) {
	var ec ErrorCollector
	var wg sync.WaitGroup
	barrier := make(chan struct{})

	wg.Add(200)
	for i := 0; i < 100; i++ {
		go func() {
			defer wg.Done()
			<-barrier
			ec.SetError(nil)
		}()
	}
	for i := 0; i < 100; i++ {
		go func(id int) {
			defer wg.Done()
			<-barrier
			ec.SetError(fmt.Errorf("real error %d", id))
		}(i)
	}

	close(barrier)
	wg.Wait()

	if err := ec.Err(); err == nil || !strings.HasPrefix(err.Error(), "real error ") {
		t.Fatalf("unexpected error: %v", err)
	}
	if ec.Count() != 100 {
		t.Errorf("Count() = %d, want 100", ec.Count())
	}
}

func TestErrorCollectorZeroValue(t *testing.T) {
	var ec ErrorCollector
	if ec.Err() != nil || ec.Count() != 0 {
		t.Error("zero value must report no error")
	}
}
