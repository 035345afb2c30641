package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseignaciorc/great-expectations/internal/action"
	"github.com/joseignaciorc/great-expectations/internal/checkpoint"
	"github.com/joseignaciorc/great-expectations/internal/config"
	"github.com/joseignaciorc/great-expectations/internal/datacontext"
	"github.com/joseignaciorc/great-expectations/internal/expectation"
	"github.com/joseignaciorc/great-expectations/internal/ir"
)

func sampleRun(success bool) *checkpoint.Result {
	return &checkpoint.Result{
		Success: success,
		RunID:   ir.RunIdentifier{RunName: "r"},
		RunResults: []checkpoint.ValidationRun{{
			Identifier:       ir.ValidationResultIdentifier{ExpectationSuite: ir.ExpectationSuiteIdentifier{Name: "s"}},
			ValidationResult: &expectation.SuiteValidationResult{Success: success},
			ActionsResults: map[string]action.Result{
				"store": {"class": config.ActionStoreValidationResult},
				"docs":  {"class": config.ActionUpdateDataDocs, "local_site": "file:///x"},
			},
			ActionOrder: []string{"store", "docs"},
		}},
		CheckpointConfig: &config.CheckpointConfig{Name: "cp"},
	}
}

func TestResultShape(t *testing.T) {
	shape := ResultShape(sampleRun(true))

	assert.Equal(t, map[string]any{
		"run_id": "RunIdentifier",
		"run_results": map[string]any{
			"ValidationResultIdentifier": map[string]any{
				"validation_result": "SuiteValidationResult",
				"actions_results": map[string]any{
					"store": map[string]any{"class": config.ActionStoreValidationResult},
					"docs":  map[string]any{"class": config.ActionUpdateDataDocs},
				},
			},
		},
		"checkpoint_config": "CheckpointConfig",
		"success":           true,
	}, shape)
}

func TestMatchSubset(t *testing.T) {
	actual := map[string]any{
		"a": "x",
		"b": map[string]any{"c": true, "d": "y"},
	}

	assert.True(t, matchSubset(actual, map[string]any{}))
	assert.True(t, matchSubset(actual, map[string]any{"a": "x"}))
	assert.True(t, matchSubset(actual, map[string]any{"b": map[string]any{"c": true}}))
	assert.False(t, matchSubset(actual, map[string]any{"a": "z"}))
	assert.False(t, matchSubset(actual, map[string]any{"missing": "x"}))
	assert.False(t, matchSubset(actual, map[string]any{"a": map[string]any{"c": true}}))
	assert.False(t, matchSubset("scalar", map[string]any{"a": "x"}))
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "RunIdentifier", typeName(ir.RunIdentifier{}))
	assert.Equal(t, "CheckpointConfig", typeName(&config.CheckpointConfig{}))
	assert.Equal(t, "nil", typeName(nil))
}

func TestEvaluateAssertions(t *testing.T) {
	result := NewResult()
	result.Datasources = []string{"a", "b"}
	result.Runs["ok"] = sampleRun(true)
	result.Runs["bad"] = sampleRun(false)

	simple := &config.CheckpointConfig{ActionList: []config.ActionSpec{
		{Name: "store", Action: map[string]any{"class_name": config.ActionStoreValidationResult}},
	}}
	result.DryRuns["one"] = &datacontext.TestResult{Checkpoint: simple}
	result.DryRuns["two"] = &datacontext.TestResult{Checkpoint: simple.Clone()}
	result.DryRuns["three"] = &datacontext.TestResult{Checkpoint: &config.CheckpointConfig{}}

	no := false
	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertListDatasources, Names: []string{"a", "b"}},
		{Type: AssertListCheckpoints},
		{Type: AssertRunSuccess, Run: "ok"},
		{Type: AssertRunSuccess, Run: "bad", Success: &no},
		{Type: AssertResultShape, Run: "ok", Expect: map[string]any{"run_id": "RunIdentifier", "success": true}},
		{Type: AssertActionsEqual, DryRuns: []string{"one", "two"}},
	})
	assert.Empty(t, errs)

	errs = EvaluateAssertions(result, []Assertion{
		{Type: AssertListDatasources, Names: []string{"b", "a"}},
		{Type: AssertResultShape, Run: "bad", Expect: map[string]any{"success": true}},
		{Type: AssertActionsEqual, DryRuns: []string{"one", "three"}},
		{Type: AssertActionsEqual, DryRuns: []string{"one", "missing"}},
		{Type: "bogus"},
	})
	assert.Len(t, errs, 5)
	assert.Contains(t, errs[0], "list_datasources")
	assert.Contains(t, errs[2], "actions_equal")
	assert.Contains(t, errs[3], "no such dry run")
	assert.Contains(t, errs[4], `unknown assertion type "bogus"`)
}
