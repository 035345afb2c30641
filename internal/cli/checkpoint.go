package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/joseignaciorc/great-expectations/internal/checkpoint"
	"github.com/joseignaciorc/great-expectations/internal/config"
	"github.com/joseignaciorc/great-expectations/internal/datacontext"
)

// CheckpointRunOptions holds flags for checkpoint run.
type CheckpointRunOptions struct {
	RunName   string
	Overrides string // path to an override document
}

// NewCheckpointCommand creates the checkpoint command group.
func NewCheckpointCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Test, register and run checkpoints",
	}
	cmd.AddCommand(newCheckpointTestCommand(rootOpts))
	cmd.AddCommand(newCheckpointAddCommand(rootOpts))
	cmd.AddCommand(newCheckpointListCommand(rootOpts))
	cmd.AddCommand(newCheckpointRunCommand(rootOpts))
	cmd.AddCommand(newCheckpointRunsCommand(rootOpts))
	cmd.AddCommand(newCheckpointDeleteCommand(rootOpts))
	return cmd
}

func newCheckpointTestCommand(rootOpts *RootOptions) *cobra.Command {
	var classHint string

	cmd := &cobra.Command{
		Use:   "test <file>",
		Short: "Dry-run a checkpoint or datasource document",
		Long: `Dry-run a checkpoint or datasource document ("-" reads stdin).

The document is parsed and validated, a SimpleCheckpoint is expanded and a
registered template is layered underneath. Nothing is saved or executed.
References to datasources, suites or templates that are not registered yet
are reported as warnings.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckpointTest(rootOpts, args[0], classHint, cmd)
		},
	}

	cmd.Flags().StringVar(&classHint, "class-name", "", "class_name to assume when the document has none")
	return cmd
}

func runCheckpointTest(opts *RootOptions, path, classHint string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	data, err := LoadDocument(path, cmd.InOrStdin())
	if err != nil {
		return reportError(formatter, err)
	}

	dc, err := openProject(opts, cmd)
	if err != nil {
		return reportError(formatter, err)
	}
	defer dc.Close()

	res, err := dc.TestYAMLConfig(cmd.Context(), data, classHint)
	if err != nil {
		return reportError(formatter, err)
	}
	return formatter.Render(res, func(w io.Writer) {
		writeTestResult(w, res)
	})
}

func writeTestResult(w io.Writer, res *datacontext.TestResult) {
	fmt.Fprintf(w, "✓ %s %s (%s) is valid\n", res.Kind, res.Name, res.ClassName)
	if cfg := res.Checkpoint; cfg != nil {
		fmt.Fprintf(w, "  validations: %d\n", len(cfg.Validations))
		for _, a := range cfg.ActionList {
			fmt.Fprintf(w, "  action %s: %s\n", a.Name, a.ClassName())
		}
	}
	if res.Datasource != nil {
		writeReport(w, res.Datasource)
	}
	for _, warning := range res.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warning)
	}
}

func newCheckpointAddCommand(rootOpts *RootOptions) *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:           "add <file>",
		Short:         "Register a checkpoint from a YAML document",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			data, err := LoadDocument(args[0], cmd.InOrStdin())
			if err != nil {
				return reportError(formatter, err)
			}
			cfg, err := config.ParseCheckpoint(data)
			if err != nil {
				return reportError(formatter, err)
			}

			dc, err := openProject(rootOpts, cmd)
			if err != nil {
				return reportError(formatter, err)
			}
			defer dc.Close()

			save, verb := dc.AddCheckpoint, "added"
			if replace {
				save, verb = dc.ReplaceCheckpoint, "replaced"
			}
			saved, err := save(cmd.Context(), cfg)
			if err != nil {
				return reportError(formatter, err)
			}
			return formatter.Render(saved, func(w io.Writer) {
				fmt.Fprintf(w, "✓ checkpoint %s %s\n", saved.Name, verb)
			})
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "replace a registered checkpoint of the same name")
	return cmd
}

func newCheckpointListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List registered checkpoints",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			dc, err := openProject(rootOpts, cmd)
			if err != nil {
				return reportError(formatter, err)
			}
			defer dc.Close()

			names, err := dc.ListCheckpoints(cmd.Context())
			if err != nil {
				return reportError(formatter, err)
			}
			return formatter.Render(names, func(w io.Writer) {
				if len(names) == 0 {
					fmt.Fprintln(w, "No checkpoints registered.")
					return
				}
				for _, name := range names {
					fmt.Fprintln(w, name)
				}
			})
		},
	}
}

func newCheckpointRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckpointRunOptions{}

	cmd := &cobra.Command{
		Use:   "run <name>",
		Short: "Run a registered checkpoint",
		Long: `Run a registered checkpoint: validate each batch against its suite and
run the action list. The run is recorded in the project store.

Exits with status 1 when any validation or action fails.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckpointRun(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.RunName, "run-name", "", "run name (replaces run_name_template)")
	cmd.Flags().StringVar(&opts.Overrides, "overrides", "", "YAML document layered over the registered config")
	return cmd
}

func runCheckpointRun(rootOpts *RootOptions, opts *CheckpointRunOptions, name string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	runOpts := datacontext.RunOptions{RunName: opts.RunName}
	if opts.Overrides != "" {
		data, err := LoadDocument(opts.Overrides, cmd.InOrStdin())
		if err != nil {
			return reportError(formatter, err)
		}
		runOpts.Overrides, err = config.ParseOverrides(data)
		if err != nil {
			return reportError(formatter, err)
		}
	}

	dc, err := openProject(rootOpts, cmd)
	if err != nil {
		return reportError(formatter, err)
	}
	defer dc.Close()

	formatter.VerboseLog("running checkpoint %s", name)
	res, err := dc.RunCheckpoint(cmd.Context(), name, runOpts)
	if err != nil {
		return reportError(formatter, err)
	}

	if err := formatter.Render(res, func(w io.Writer) { writeRunResult(w, name, res) }); err != nil {
		return err
	}
	if !res.Success {
		return NewExitError(ExitFailure, fmt.Sprintf("checkpoint %s failed", name))
	}
	return nil
}

func writeRunResult(w io.Writer, name string, res *checkpoint.Result) {
	mark := "✓"
	if !res.Success {
		mark = "✗"
	}
	fmt.Fprintf(w, "%s checkpoint %s run %s\n", mark, name, res.RunID)
	for _, vr := range res.RunResults {
		status := "passed"
		if !vr.Success() {
			status = "failed"
		}
		stats := vr.ValidationResult.Statistics
		fmt.Fprintf(w, "  %s: %s (%d/%d expectations)\n", vr.Identifier.ExpectationSuite.Name, status,
			stats.SuccessfulExpectations, stats.EvaluatedExpectations)
		for _, actionName := range vr.ActionOrder {
			if msg, failed := vr.ActionErrors[actionName]; failed {
				fmt.Fprintf(w, "    %s: error: %s\n", actionName, msg)
				continue
			}
			fmt.Fprintf(w, "    %s: ok\n", actionName)
		}
	}
}

func newCheckpointRunsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "runs [name]",
		Short:         "List recorded checkpoint runs",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			var name string
			if len(args) == 1 {
				name = args[0]
			}

			dc, err := openProject(rootOpts, cmd)
			if err != nil {
				return reportError(formatter, err)
			}
			defer dc.Close()

			runs, err := dc.ListRuns(cmd.Context(), name)
			if err != nil {
				return reportError(formatter, err)
			}
			return formatter.Render(runs, func(w io.Writer) {
				if len(runs) == 0 {
					fmt.Fprintln(w, "No runs recorded.")
					return
				}
				for _, run := range runs {
					status := "success"
					if !run.Success {
						status = "failure"
					}
					fmt.Fprintf(w, "%s  %s  %s  %s\n", run.RunID.RunTimeString(), run.CheckpointName, run.RunID.RunName, status)
				}
			})
		},
	}
}

func newCheckpointDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <name>",
		Short:         "Delete a registered checkpoint",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			dc, err := openProject(rootOpts, cmd)
			if err != nil {
				return reportError(formatter, err)
			}
			defer dc.Close()

			if err := dc.DeleteCheckpoint(cmd.Context(), args[0]); err != nil {
				return reportError(formatter, err)
			}
			return formatter.Render(map[string]string{"deleted": args[0]}, func(w io.Writer) {
				fmt.Fprintf(w, "✓ checkpoint %s deleted\n", args[0])
			})
		},
	}
}
