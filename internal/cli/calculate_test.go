package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/agbru/taskbench/internal/config"
)

// TestPrintExecutionConfig tests the PrintExecutionConfig function.
func TestPrintExecutionConfig(t *testing.T) {
	withoutColor(t)
	var buf bytes.Buffer
	cfg := config.Defaults()

	PrintExecutionConfig(cfg, &buf)

	output := buf.String()
	for _, want := range []string{"Batch of 8 tasks", "time unit 1s", "8 workers", "[2]", "iterations mode"} {
		if !strings.Contains(output, want) {
			t.Errorf("output should contain %q:\n%s", want, output)
		}
	}
}
