package main

import (
	"context"
	"os"

	"github.com/agbru/taskbench/internal/app"
	"github.com/agbru/taskbench/internal/procworker"
)

func main() {
	// Process pool workers re-execute this binary; they must not print anything
	// on stdout besides protocol frames.
	if procworker.IsWorker() {
		os.Exit(procworker.ServeProcess())
	}
	os.Exit(app.Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
