package app

import (
	"fmt"
	"io"
	"runtime"
)

// Build-time variables, injected with -ldflags "-X".
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// VersionInfo returns the one-line version banner.
func VersionInfo() string {
	commit := Commit
	if len(commit) > 8 {
		commit = commit[:8]
	}
	return fmt.Sprintf("taskbench %s (%s) built with %s on %s/%s at %s",
		Version, commit, runtime.Version(), runtime.GOOS, runtime.GOARCH, Date)
}

// PrintVersion writes the version banner to out.
func PrintVersion(out io.Writer) {
	fmt.Fprintln(out, VersionInfo())
}
