//go:build !linux

package procworker

// dieWithParent is a no-op where PR_SET_PDEATHSIG does not exist; the worker
// still exits once its stdin is closed.
func dieWithParent() {}
