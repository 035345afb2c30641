package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/joseignaciorc/great-expectations/internal/harness"
)

// ScenarioOptions holds flags for the scenario command.
type ScenarioOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario name filter (glob pattern)
	Keep   bool   // keep the scratch project directories
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name    string               `json:"name"`
	File    string               `json:"file"`
	Pass    bool                 `json:"pass"`
	Golden  string               `json:"golden,omitempty"` // "match", "updated" or "mismatch"
	Project string               `json:"project,omitempty"`
	Errors  []string             `json:"errors,omitempty"`
	Trace   []harness.TraceEvent `json:"trace,omitempty"`
}

// ScenarioReport holds the overall result.
type ScenarioReport struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewScenarioCommand creates the scenario command.
func NewScenarioCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScenarioOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scenario <file-or-dir>...",
		Short: "Run scenario files",
		Long: `Run scenario files. Each scenario runs in a fresh scratch project with a
deterministic clock and its own variables, then its assertions are checked.

A scenario at scenarios/<name>.yaml is also compared with
golden/<name>.golden next to the scenarios directory when that file exists.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  gx scenario ./scenarios
  gx scenario ./scenarios --filter "checkpoint*"
  gx scenario ./scenarios/checkpoints_and_actions.yaml --update`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().BoolVar(&opts.Keep, "keep", false, "keep scratch project directories")

	return cmd
}

func runScenarios(opts *ScenarioOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	var files []string
	for _, path := range paths {
		found, err := findScenarioFiles(path, opts.Filter)
		if err != nil {
			return reportError(formatter, err)
		}
		files = append(files, found...)
	}

	report := ScenarioReport{
		Scenarios: make([]ScenarioResult, 0, len(files)),
		Total:     len(files),
	}
	for _, file := range files {
		res := runScenarioFile(opts, file, cmd)
		report.Scenarios = append(report.Scenarios, res)
		if res.Pass {
			report.Passed++
		} else {
			report.Failed++
		}
	}

	if err := formatter.Render(report, func(w io.Writer) { writeScenarioReport(w, report, opts.Verbose) }); err != nil {
		return err
	}
	if report.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", report.Failed))
	}
	return nil
}

// findScenarioFiles returns path itself, or the YAML files below it.
func findScenarioFiles(path, filter string) ([]string, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("scenario path not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: err.Error()}
	}
	if filter != "" && !doublestar.ValidatePattern(filter) {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("invalid filter pattern %q", filter)}
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	matches, err := doublestar.Glob(os.DirFS(path), "**/*.{yaml,yml}", doublestar.WithFilesOnly())
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: err.Error()}
	}

	var files []string
	for _, m := range matches {
		name := strings.TrimSuffix(filepath.Base(m), filepath.Ext(m))
		if filter != "" {
			if matched, _ := doublestar.Match(filter, name); !matched {
				continue
			}
		}
		files = append(files, filepath.Join(path, filepath.FromSlash(m)))
	}
	return files, nil
}

// runScenarioFile runs one scenario in a scratch project.
func runScenarioFile(opts *ScenarioOptions, file string, cmd *cobra.Command) ScenarioResult {
	out := ScenarioResult{Name: filepath.Base(file), File: file}

	scenario, err := harness.LoadScenario(file)
	if err != nil {
		out.Errors = []string{fmt.Sprintf("load error: %v", err)}
		return out
	}
	out.Name = scenario.Name

	dir, err := os.MkdirTemp("", "gx-scenario-*")
	if err != nil {
		out.Errors = []string{fmt.Sprintf("scratch project: %v", err)}
		return out
	}
	if opts.Keep {
		out.Project = dir
	} else {
		defer os.RemoveAll(dir)
	}

	result, err := harness.Run(cmd.Context(), scenario, dir, harness.WithLogger(newLogger(opts.RootOptions, cmd)))
	if err != nil {
		out.Errors = []string{fmt.Sprintf("execution error: %v", err)}
		return out
	}
	out.Pass = result.Pass
	out.Errors = result.Errors
	out.Trace = result.Trace

	golden := goldenFilePath(file)
	snapshot, err := harness.Snapshot(scenario.Name, result)
	if err != nil {
		out.Pass = false
		out.Errors = append(out.Errors, fmt.Sprintf("snapshot: %v", err))
		return out
	}

	switch {
	case opts.Update:
		err := os.MkdirAll(filepath.Dir(golden), 0o755)
		if err == nil {
			err = os.WriteFile(golden, snapshot, 0o644)
		}
		if err != nil {
			out.Pass = false
			out.Errors = append(out.Errors, fmt.Sprintf("golden update: %v", err))
			return out
		}
		out.Golden = "updated"
	default:
		want, err := os.ReadFile(golden)
		if errors.Is(err, os.ErrNotExist) {
			return out
		}
		if err != nil {
			out.Pass = false
			out.Errors = append(out.Errors, fmt.Sprintf("golden read: %v", err))
			return out
		}
		out.Golden = "match"
		if string(want) != string(snapshot) {
			out.Golden = "mismatch"
			out.Pass = false
			out.Errors = append(out.Errors, "golden file mismatch (run with --update to regenerate)")
		}
	}
	return out
}

// goldenFilePath maps scenarios/<name>.yaml to golden/<name>.golden.
func goldenFilePath(scenarioFile string) string {
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(filepath.Dir(scenarioFile)), "golden", name+".golden")
}

func writeScenarioReport(w io.Writer, report ScenarioReport, verbose bool) {
	if report.Total == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return
	}
	for _, s := range report.Scenarios {
		mark := "✓"
		if !s.Pass {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %s\n", mark, s.Name)
		if verbose {
			for _, ev := range s.Trace {
				fmt.Fprintf(w, "  step %d %s %s: %s\n", ev.Step, ev.Op, ev.Target, ev.Outcome)
				for _, warning := range ev.Warnings {
					fmt.Fprintf(w, "    warning: %s\n", warning)
				}
			}
		}
		for _, e := range s.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
		if s.Project != "" {
			fmt.Fprintf(w, "  project kept at %s\n", s.Project)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Scenario Summary: %d passed, %d failed, %d total\n", report.Passed, report.Failed, report.Total)
	if report.Failed == 0 {
		fmt.Fprintln(w, "✓ All scenarios passed")
	}
}
