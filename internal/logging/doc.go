// Package logging provides a unified logging interface for taskbench.
// It abstracts the underlying logging implementation, allowing consistent
// structured logging across the harness, the strategies and the worker
// processes. Log output never goes to stdout, which carries the demo output.
package logging
