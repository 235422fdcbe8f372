//go:build linux

package procworker

import "golang.org/x/sys/unix"

// dieWithParent asks the kernel to kill this worker if the pool process goes
// away, so an abandoned worker never outlives the run that started it.
func dieWithParent() {
	_ = unix.Prctl(unix.PR_SET_PDEATHSIG, uintptr(unix.SIGKILL), 0, 0, 0)
}
