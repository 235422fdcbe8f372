package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/spf13/pflag"

	apperrors "github.com/agbru/taskbench/internal/errors"
)

func parse(t *testing.T, args ...string) (AppConfig, *pflag.FlagSet) {
	t.Helper()
	cfg := Defaults()
	cfg.EnvFile = ""
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}
	return cfg, fs
}

func TestDefaults(t *testing.T) {
	t.Parallel()
	c := Defaults()
	if c.Tasks != 8 || c.Workers != 8 || c.Unit != time.Second || c.Iterations != 3_800_000 {
		t.Errorf("unexpected defaults %s", c)
	}
	if len(c.FailOn) != 1 || c.FailOn[0] != 2 {
		t.Errorf("FailOn = %v, want [2]", c.FailOn)
	}
	if c.CPUMode != CPUModeAuto || c.Strategy != "" {
		t.Errorf("cpu mode %q and strategy %q, want auto and none", c.CPUMode, c.Strategy)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestBindFlags(t *testing.T) {
	t.Parallel()
	c, _ := parse(t, "-n", "4", "--workers=2", "--unit", "10ms", "--fail-on", "2,3", "--cpu-mode", "timed", "-q")
	if c.Tasks != 4 || c.Workers != 2 || c.Unit != 10*time.Millisecond || c.CPUMode != CPUModeTimed || !c.Quiet {
		t.Errorf("flags not applied: %s quiet=%v", c, c.Quiet)
	}
	if len(c.FailOn) != 2 || c.FailOn[1] != 3 {
		t.Errorf("FailOn = %v, want [2 3]", c.FailOn)
	}
}

// Environment tests mutate the process environment and cannot run in
// parallel.

func TestResolve_EnvOverrides(t *testing.T) {
	t.Setenv("TASKBENCH_TASKS", "5")
	t.Setenv("TASKBENCH_UNIT", "20ms")
	t.Setenv("TASKBENCH_FAIL_ON", "none")
	t.Setenv("TASKBENCH_QUIET", "yes")
	t.Setenv("TASKBENCH_WORKERS", "3")
	t.Setenv("TASKBENCH_TUI", "1")
	t.Setenv("TASKBENCH_STRATEGY", "cooperative")

	c, fs := parse(t, "--workers", "6")
	c, err := Resolve(c, fs)
	if err != nil {
		t.Fatal(err)
	}
	if c.Tasks != 5 || c.Unit != 20*time.Millisecond || !c.Quiet || !c.TUI {
		t.Errorf("env not applied: %s quiet=%v", c, c.Quiet)
	}
	if len(c.FailOn) != 0 {
		t.Errorf("FailOn = %v, want none", c.FailOn)
	}
	if c.Workers != 6 {
		t.Errorf("flag must win over env: workers = %d", c.Workers)
	}
	if c.Strategy != "cooperative" {
		t.Errorf("strategy = %q, want cooperative from the environment", c.Strategy)
	}
}

func TestResolve_InvalidEnvIgnored(t *testing.T) {
	t.Setenv("TASKBENCH_TASKS", "many")
	c, err := Resolve(Defaults(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if c.Tasks != DefaultTasks {
		t.Errorf("invalid env value should be ignored, tasks = %d", c.Tasks)
	}
}

func TestResolve_DotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("TASKBENCH_ITERATIONS=1234\nTASKBENCH_CPU_MODE=timed\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// Real environment wins over the file.
	t.Setenv("TASKBENCH_CPU_MODE", "iterations")
	// Keep variables the file sets from leaking into other tests.
	t.Setenv("TASKBENCH_ITERATIONS", "")
	os.Unsetenv("TASKBENCH_ITERATIONS")

	c := Defaults()
	c.EnvFile = path
	c, err := Resolve(c, nil)
	if err != nil {
		t.Fatal(err)
	}
	if c.Iterations != 1234 {
		t.Errorf("iterations = %d, want 1234 from the dotenv file", c.Iterations)
	}
	if c.CPUMode != CPUModeIterations {
		t.Errorf("cpu mode = %q, environment should win", c.CPUMode)
	}
}

func TestResolve_MissingDotEnv(t *testing.T) {
	c := Defaults()
	c.EnvFile = filepath.Join(t.TempDir(), "absent.env")
	if _, err := Resolve(c, nil); err != nil {
		t.Errorf("a missing dotenv file should be ignored: %v", err)
	}
}

func TestResolve_VerboseRaisesLogLevel(t *testing.T) {
	c, fs := parse(t, "-v")
	c, err := Resolve(c, fs)
	if err != nil {
		t.Fatal(err)
	}
	if c.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", c.LogLevel)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("TASKBENCH_UNIT", "5ms")
	c, err := FromEnv(DemoThreads)
	if err != nil {
		t.Fatal(err)
	}
	if c.Demo != DemoThreads || c.Unit != 5*time.Millisecond {
		t.Errorf("FromEnv = %s", c)
	}
}

func TestApplyAdaptiveDefaults(t *testing.T) {
	t.Parallel()
	c := Defaults()
	c.Workers = 0
	c.Iterations = 0
	c = ApplyAdaptiveDefaults(c)
	if c.Workers != runtime.NumCPU() {
		t.Errorf("Workers = %d, want %d", c.Workers, runtime.NumCPU())
	}
	if c.Iterations != DefaultIterations {
		t.Errorf("Iterations = %d, want %d", c.Iterations, DefaultIterations)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"unknown demo", func(c *AppConfig) { c.Demo = "gpu" }},
		{"zero tasks", func(c *AppConfig) { c.Tasks = 0 }},
		{"negative workers", func(c *AppConfig) { c.Workers = -1 }},
		{"zero unit", func(c *AppConfig) { c.Unit = 0 }},
		{"negative iterations", func(c *AppConfig) { c.Iterations = -5 }},
		{"unknown cpu mode", func(c *AppConfig) { c.CPUMode = "turbo" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := Defaults()
			tt.mutate(&c)
			err := c.Validate()
			var ce apperrors.ConfigError
			if !errors.As(err, &ce) {
				t.Errorf("expected ConfigError, got %v", err)
			}
		})
	}
}

func TestParseIntList(t *testing.T) {
	t.Parallel()
	if got, ok := parseIntList(" 2, 5 "); !ok || len(got) != 2 || got[1] != 5 {
		t.Errorf("parseIntList = %v, %v", got, ok)
	}
	if _, ok := parseIntList("2,x"); ok {
		t.Error("expected failure for a non-numeric entry")
	}
}
