package harness

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/joseignaciorc/great-expectations/internal/checkpoint"
	"github.com/joseignaciorc/great-expectations/internal/ir"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// assertNames checks a registry listing, order included.
func assertNames(kind string, actual, expected []string) error {
	if actual == nil {
		actual = []string{}
	}
	if expected == nil {
		expected = []string{}
	}
	if reflect.DeepEqual(actual, expected) {
		return nil
	}
	return &AssertionError{
		Type:     kind,
		Expected: fmt.Sprintf("%q", expected),
		Actual:   fmt.Sprintf("%q", actual),
	}
}

// assertRunSuccess checks the success flag of a labelled run.
func assertRunSuccess(runs map[string]*checkpoint.Result, assertion Assertion) error {
	res, ok := runs[assertion.Run]
	if !ok {
		return &AssertionError{
			Type:     AssertRunSuccess,
			Expected: fmt.Sprintf("run %q", assertion.Run),
			Actual:   "no such run",
		}
	}
	want := true
	if assertion.Success != nil {
		want = *assertion.Success
	}
	if res.Success != want {
		return &AssertionError{
			Type:     AssertRunSuccess,
			Expected: fmt.Sprintf("run %q success=%t", assertion.Run, want),
			Actual:   fmt.Sprintf("success=%t", res.Success),
		}
	}
	return nil
}

// assertResultShape matches the expected shape as a subset of the run's.
func assertResultShape(runs map[string]*checkpoint.Result, assertion Assertion) error {
	res, ok := runs[assertion.Run]
	if !ok {
		return &AssertionError{
			Type:     AssertResultShape,
			Expected: fmt.Sprintf("run %q", assertion.Run),
			Actual:   "no such run",
		}
	}
	shape := ResultShape(res)
	if matchSubset(shape, assertion.Expect) {
		return nil
	}
	return &AssertionError{
		Type:     AssertResultShape,
		Expected: fmt.Sprintf("%v", assertion.Expect),
		Actual:   fmt.Sprintf("%v", shape),
	}
}

// assertActionsEqual checks that every listed dry run resolved to the
// same action list.
func assertActionsEqual(result *Result, assertion Assertion) error {
	var first []byte
	for i, label := range assertion.DryRuns {
		dry, ok := result.DryRuns[label]
		if !ok || dry.Checkpoint == nil {
			return &AssertionError{
				Type:     AssertActionsEqual,
				Expected: fmt.Sprintf("checkpoint dry run %q", label),
				Actual:   "no such dry run",
			}
		}
		actions, err := ir.MarshalCanonical(dry.Checkpoint.ActionList)
		if err != nil {
			return fmt.Errorf("%s: dry run %q: %w", AssertActionsEqual, label, err)
		}
		if i == 0 {
			first = actions
			continue
		}
		if string(actions) != string(first) {
			return &AssertionError{
				Type:     AssertActionsEqual,
				Expected: fmt.Sprintf("%s: %s", assertion.DryRuns[0], first),
				Actual:   fmt.Sprintf("%s: %s", label, actions),
			}
		}
	}
	return nil
}

// ResultShape describes a run by the types of its parts, the way the
// documentation presents results:
//
//	{"run_id": "RunIdentifier",
//	 "run_results": {"ValidationResultIdentifier": {
//	     "validation_result": "SuiteValidationResult",
//	     "actions_results": {"<name>": {"class": "<ActionClass>"}}}},
//	 "checkpoint_config": "CheckpointConfig",
//	 "success": true}
//
// Run results sharing an identifier type collapse into the first one.
func ResultShape(res *checkpoint.Result) map[string]any {
	runResults := map[string]any{}
	for _, vr := range res.RunResults {
		key := typeName(vr.Identifier)
		if _, seen := runResults[key]; seen {
			continue
		}
		actions := make(map[string]any, len(vr.ActionsResults))
		for name, ar := range vr.ActionsResults {
			actions[name] = map[string]any{"class": ar.Class()}
		}
		runResults[key] = map[string]any{
			"validation_result": typeName(vr.ValidationResult),
			"actions_results":   actions,
		}
	}
	return map[string]any{
		"run_id":            typeName(res.RunID),
		"run_results":       runResults,
		"checkpoint_config": typeName(res.CheckpointConfig),
		"success":           res.Success,
	}
}

// typeName is the name of v's type, pointers dereferenced.
func typeName(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return "nil"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

// matchSubset checks if actual contains everything in expected. Maps
// match by subset, recursively; extra keys in actual are ignored.
func matchSubset(actual any, expected map[string]any) bool {
	actualMap, ok := actual.(map[string]any)
	if !ok {
		return false
	}

	for key, expectedVal := range expected {
		actualVal, exists := actualMap[key]
		if !exists {
			return false
		}
		if !valuesEqual(actualVal, expectedVal) {
			return false
		}
	}
	return true
}

// valuesEqual compares two values, recursing into maps with subset
// semantics.
func valuesEqual(actual, expected any) bool {
	if actual == nil && expected == nil {
		return true
	}
	if actual == nil || expected == nil {
		return false
	}
	if m, ok := expected.(map[string]any); ok {
		return matchSubset(actual, m)
	}
	return reflect.DeepEqual(actual, expected)
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertListDatasources:
			err = assertNames(AssertListDatasources, result.Datasources, assertion.Names)
		case AssertListCheckpoints:
			err = assertNames(AssertListCheckpoints, result.Checkpoints, assertion.Names)
		case AssertRunSuccess:
			err = assertRunSuccess(result.Runs, assertion)
		case AssertResultShape:
			err = assertResultShape(result.Runs, assertion)
		case AssertActionsEqual:
			err = assertActionsEqual(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
