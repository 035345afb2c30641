package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/joseignaciorc/great-expectations/internal/config"
	"github.com/joseignaciorc/great-expectations/internal/datasource"
	"github.com/joseignaciorc/great-expectations/internal/ir"
)

// NewDatasourceCommand creates the datasource command group.
func NewDatasourceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "datasource",
		Short: "Manage datasources",
	}
	cmd.AddCommand(newDatasourceAddCommand(rootOpts))
	cmd.AddCommand(newDatasourceListCommand(rootOpts))
	return cmd
}

func newDatasourceAddCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <file>",
		Short: "Register a datasource from a YAML document",
		Long: `Register a datasource from a YAML document ("-" reads stdin).

A datasource of the same name is replaced. The assets each data connector
can see are reported.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDatasourceAdd(rootOpts, args[0], cmd)
		},
	}
}

func runDatasourceAdd(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	data, err := LoadDocument(path, cmd.InOrStdin())
	if err != nil {
		return reportError(formatter, err)
	}
	cfg, err := config.ParseDatasource(data)
	if err != nil {
		return reportError(formatter, err)
	}

	dc, err := openProject(opts, cmd)
	if err != nil {
		return reportError(formatter, err)
	}
	defer dc.Close()

	ctx := cmd.Context()
	ds, err := dc.AddDatasource(ctx, cfg)
	if err != nil {
		return reportError(formatter, err)
	}
	report, err := ds.Describe(ctx)
	if err != nil {
		return reportError(formatter, err)
	}

	return formatter.Render(report, func(w io.Writer) {
		fmt.Fprintf(w, "✓ datasource %s added\n", report.Name)
		writeReport(w, report)
	})
}

// writeReport prints the assets per connector, in name order.
func writeReport(w io.Writer, report *datasource.Report) {
	for _, name := range ir.SortedKeys(report.DataConnectors) {
		conn := report.DataConnectors[name]
		fmt.Fprintf(w, "  %s (%s)\n", name, conn.ClassName)
		for _, asset := range ir.SortedKeys(conn.Assets) {
			fmt.Fprintf(w, "    %s: %d batches\n", asset, conn.Assets[asset])
		}
	}
}

func newDatasourceListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List registered datasources",
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

			configs, err := dc.ListDatasources(cmd.Context())
			if err != nil {
				return reportError(formatter, err)
			}
			return formatter.Render(configs, func(w io.Writer) {
				if len(configs) == 0 {
					fmt.Fprintln(w, "No datasources registered.")
					return
				}
				for _, cfg := range configs {
					fmt.Fprintf(w, "%s (%s)\n", cfg.Name, cfg.ClassName)
				}
			})
		},
	}
}
