package main

import (
	"os"

	"github.com/agbru/taskbench/internal/app"
	"github.com/agbru/taskbench/internal/config"
)

func main() {
	os.Exit(app.RunDemo(config.DemoThreads))
}
