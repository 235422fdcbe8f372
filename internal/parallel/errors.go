// Package parallel holds small helpers for coordinating goroutines.
package parallel

import "sync"

// ErrorCollector keeps the first non-nil error reported by any number of
// goroutines. The zero value is ready to use.
type ErrorCollector struct {
	mu    sync.Mutex
	err   error
	count int
}

// SetError records err if it is the first non-nil error seen. Nil errors are
// ignored.
func (c *ErrorCollector) SetError(err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	if c.err == nil {
		c.err = err
	}
}

// Err returns the first recorded error, or nil.
func (c *ErrorCollector) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Count returns how many non-nil errors were reported in total.
func (c *ErrorCollector) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}
