// Package procworker runs work units in separate operating-system processes.
//
// The parent re-executes its own binary with EnvWorker set; the child sees the
// variable, serves requests read from stdin and writes responses to stdout.
// Both directions use MessagePack frames. The first frame sent to a child is
// the workload.Spec it must rebuild; every following frame is one task.
//
// Binaries that may act as a worker must call IsWorker early in main (or in
// TestMain) and hand control to ServeProcess before producing any output.
package procworker
