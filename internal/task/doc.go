// Package task defines the domain types shared by every execution strategy:
// the Task and Batch inputs, the Outcome produced for each task, and the
// WorkUnit contract a strategy invokes. A Waiter models the only point at
// which a work unit may suspend.
package task
