package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/joseignaciorc/great-expectations/internal/expectation"
)

// NewSuiteCommand creates the suite command group.
func NewSuiteCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suite",
		Short: "Manage expectation suites",
	}
	cmd.AddCommand(newSuiteCreateCommand(rootOpts))
	cmd.AddCommand(newSuiteAddCommand(rootOpts))
	cmd.AddCommand(newSuiteListCommand(rootOpts))
	return cmd
}

func newSuiteCreateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "create <name>",
		Short:         "Create an empty expectation suite",
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

			suite, err := dc.CreateExpectationSuite(cmd.Context(), args[0])
			if err != nil {
				return reportError(formatter, err)
			}
			return formatter.Render(suite, func(w io.Writer) {
				fmt.Fprintf(w, "✓ expectation suite %s created\n", suite.Name)
			})
		},
	}
}

func newSuiteAddCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <file>",
		Short: "Register an expectation suite from a YAML or JSON document",
		Long: `Register an expectation suite from a YAML or JSON document ("-" reads
stdin). The document holds expectation_suite_name and expectations.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			data, err := LoadDocument(args[0], cmd.InOrStdin())
			if err != nil {
				return reportError(formatter, err)
			}
			suite, err := expectation.ParseSuite(data)
			if err != nil {
				return reportError(formatter, err)
			}

			dc, err := openProject(rootOpts, cmd)
			if err != nil {
				return reportError(formatter, err)
			}
			defer dc.Close()

			if err := dc.AddExpectationSuite(cmd.Context(), suite); err != nil {
				return reportError(formatter, err)
			}
			return formatter.Render(suite, func(w io.Writer) {
				fmt.Fprintf(w, "✓ expectation suite %s added (%d expectations)\n", suite.Name, len(suite.Expectations))
			})
		},
	}
}

func newSuiteListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List expectation suites",
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

			names, err := dc.ListExpectationSuites(cmd.Context())
			if err != nil {
				return reportError(formatter, err)
			}
			return formatter.Render(names, func(w io.Writer) {
				if len(names) == 0 {
					fmt.Fprintln(w, "No expectation suites.")
					return
				}
				for _, name := range names {
					fmt.Fprintln(w, name)
				}
			})
		},
	}
}
