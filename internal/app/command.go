package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agbru/taskbench/internal/config"
	apperrors "github.com/agbru/taskbench/internal/errors"
)

// exitError carries an exit code out of a cobra RunE.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// NewRootCommand builds the taskbench command tree. Every demo is reachable
// both as a subcommand and as the positional argument of the root command.
func NewRootCommand(ctx context.Context, out, errWriter io.Writer, opts ...AppOption) *cobra.Command {
	cfg := config.Defaults()

	run := func(cmd *cobra.Command, demo string) error {
		cfg.Demo = demo
		resolved, err := config.Resolve(cfg, cmd.Flags())
		if err != nil {
			return err
		}
		if code := New(resolved, out, errWriter, opts...).Run(ctx); code != apperrors.ExitSuccess {
			return exitError{code: code}
		}
		return nil
	}

	root := &cobra.Command{
		Use:   "taskbench [demo]",
		Short: "Compare sequential, threaded, multiprocess and cooperative task execution",
		Long: `taskbench runs a batch of tasks numbered N..1 under several execution
strategies and prints each outcome as it completes, so the effect of
concurrency on wall-clock time is visible.

Demos: ` + strings.Join(config.Demos(), ", ") + `

Every flag can also be set through a TASKBENCH_* environment variable or a
.env file.`,
		Args:          cobra.MaximumNArgs(1),
		ValidArgs:     config.Demos(),
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			demo := cfg.Demo
			if len(args) == 1 {
				demo = args[0]
			}
			return run(cmd, demo)
		},
	}
	root.SetOut(out)
	root.SetErr(errWriter)
	root.SetVersionTemplate(VersionInfo() + "\n")
	cfg.BindFlags(root.PersistentFlags())

	for _, d := range Catalogue() {
		name := d.Name
		root.AddCommand(&cobra.Command{
			Use:   name,
			Short: d.Description,
			Args:  cobra.NoArgs,
			RunE:  func(cmd *cobra.Command, _ []string) error { return run(cmd, name) },
		})
	}
	root.AddCommand(&cobra.Command{
		Use:   config.DemoAll,
		Short: "Run the threads, processes and async demos in turn",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, _ []string) error { return run(cmd, config.DemoAll) },
	})
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run:   func(cmd *cobra.Command, _ []string) { PrintVersion(cmd.OutOrStdout()) },
	})
	return root
}

// Execute runs the taskbench command line and returns the exit code.
func Execute(ctx context.Context, args []string, out, errWriter io.Writer, opts ...AppOption) int {
	root := NewRootCommand(ctx, out, errWriter, opts...)
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return apperrors.ExitSuccess
	}
	var ee exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintln(errWriter, "Error:", err)
	if apperrors.ExitCodeFor(err) == apperrors.ExitErrorGeneric {
		// Unknown flags and bad arguments come back from cobra as plain errors.
		return apperrors.ExitErrorConfig
	}
	return apperrors.ExitCodeFor(err)
}
