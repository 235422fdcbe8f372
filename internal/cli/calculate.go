package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/agbru/taskbench/internal/config"
	"github.com/agbru/taskbench/internal/ui"
)

// PrintExecutionConfig displays the parameters a demo runs with.
func PrintExecutionConfig(cfg config.AppConfig, out io.Writer) {
	fmt.Fprintf(out, "%s\n", ui.Header("--- Execution Configuration ---"))
	fmt.Fprintf(out, "Batch of %s tasks, time unit %s, pools of %s workers, failing tasks %v.\n",
		ui.Accent(fmt.Sprint(cfg.Tasks)), ui.Warning(cfg.Unit.String()), ui.Accent(fmt.Sprint(cfg.Workers)), cfg.FailOn)
	fmt.Fprintf(out, "CPU work: %s mode, %s iterations per unit.\n",
		ui.Accent(cfg.CPUMode), ui.Accent(fmt.Sprint(cfg.Iterations)))
	fmt.Fprintf(out, "Environment: %s logical processors, Go %s.\n\n",
		ui.Accent(fmt.Sprint(runtime.NumCPU())), ui.Accent(runtime.Version()))
}
