// # Naming Conventions
//
//   - Display* functions write formatted output to an [io.Writer].
//   - Format* functions return a formatted string without performing I/O.

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/agbru/taskbench/internal/format"
	"github.com/agbru/taskbench/internal/task"
	"github.com/agbru/taskbench/internal/ui"
)

// FormatOutcome renders the line printed for one finished task:
//
//	Completed task 101 in 1.001 seconds
//	io_bound_simulator raised an exception: Some type of error in IO bound call
//
// The elapsed time is measured from the start of the run.
func FormatOutcome(o task.Outcome, workName string) string {
	if o.Failed() {
		return fmt.Sprintf("%s raised an exception: %v", workName, o.Err)
	}
	return fmt.Sprintf("Completed task %d in %s seconds", o.Value, format.FormatSeconds(o.Elapsed))
}

// colorOutcome renders the line for o, coloured by status.
func colorOutcome(o task.Outcome, workName string) string {
	line := FormatOutcome(o, workName)
	if o.Failed() {
		return ui.Failure(line)
	}
	return ui.Success(line)
}

// DisplayHeader writes a pass title, e.g. "Multi-threaded", followed by a
// rule of the same width.
func DisplayHeader(out io.Writer, title string) {
	fmt.Fprintln(out, ui.Header(title))
	fmt.Fprintln(out, ui.Dim(strings.Repeat("-", len(title))))
}

// DisplayNote writes a dimmed explanatory line.
func DisplayNote(out io.Writer, note string) {
	fmt.Fprintln(out, ui.Dim(note))
}
