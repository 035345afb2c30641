package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/joseignaciorc/great-expectations/internal/checkpoint"
	"github.com/joseignaciorc/great-expectations/internal/datacontext"
	"github.com/joseignaciorc/great-expectations/internal/ir"
)

// Snapshot renders a result as canonical JSON for golden comparison.
// Batch identifiers are left out: they hash file paths that differ
// between machines.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	trace := make([]any, len(result.Trace))
	for i, ev := range result.Trace {
		event := map[string]any{
			"step":    ev.Step,
			"op":      ev.Op,
			"outcome": ev.Outcome,
		}
		if ev.Target != "" {
			event["target"] = ev.Target
		}
		if len(ev.Warnings) > 0 {
			event["warnings"] = ev.Warnings
		}
		if ev.Success != nil {
			event["success"] = *ev.Success
		}
		trace[i] = event
	}

	runs := make(map[string]any, len(result.Runs))
	for label, res := range result.Runs {
		runs[label] = runSnapshot(res)
	}

	dryRuns := make(map[string]any, len(result.DryRuns))
	for label, dry := range result.DryRuns {
		dryRuns[label] = dryRunSnapshot(dry)
	}

	return ir.MarshalCanonical(map[string]any{
		"scenario_name": scenarioName,
		"pass":          result.Pass,
		"trace":         trace,
		"runs":          runs,
		"dry_runs":      dryRuns,
	})
}

func runSnapshot(res *checkpoint.Result) map[string]any {
	validations := make([]any, len(res.RunResults))
	for i, vr := range res.RunResults {
		validations[i] = map[string]any{
			"expectation_suite_name": vr.Identifier.ExpectationSuite.Name,
			"success":                vr.Success(),
			"actions":                append([]string{}, vr.ActionOrder...),
		}
	}
	return map[string]any{
		"run_name":    res.RunID.RunName,
		"run_time":    res.RunID.RunTimeString(),
		"shape":       ResultShape(res),
		"validations": validations,
	}
}

func dryRunSnapshot(dry *datacontext.TestResult) map[string]any {
	out := map[string]any{
		"kind":       string(dry.Kind),
		"name":       dry.Name,
		"class_name": dry.ClassName,
	}
	if cfg := dry.Checkpoint; cfg != nil {
		actions := make([]any, len(cfg.ActionList))
		for i, a := range cfg.ActionList {
			actions[i] = a.Name + ":" + a.ClassName()
		}
		out["actions"] = actions
		out["validations"] = len(cfg.Validations)
	}
	if ds := dry.Datasource; ds != nil {
		out["data_connectors"] = len(ds.DataConnectors)
	}
	return out
}

// RunWithGolden executes a scenario in a temporary project and compares
// its snapshot against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// The returned result lets callers assert beyond the snapshot.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario, t.TempDir())
	if err != nil {
		return nil, err
	}

	snapshot, err := Snapshot(scenario.Name, result)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, snapshot)

	return result, nil
}
