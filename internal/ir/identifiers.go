package ir

import (
	"fmt"
	"strings"
	"time"
)

// RunTimeLayout is the textual form of a run time inside identifiers.
const RunTimeLayout = "20060102T150405.000000Z"

// RunIdentifier names one checkpoint run: a (possibly templated) run name
// plus the UTC time the run started.
type RunIdentifier struct {
	RunName string    `json:"run_name"`
	RunTime time.Time `json:"run_time"`
}

// NewRunIdentifier builds a run identifier. The run time is normalized to
// UTC; an empty run name defaults to the formatted run time.
func NewRunIdentifier(runName string, runTime time.Time) RunIdentifier {
	runTime = runTime.UTC()
	if runName == "" {
		runName = runTime.Format(RunTimeLayout)
	}
	return RunIdentifier{RunName: runName, RunTime: runTime}
}

// RunTimeString returns the run time in RunTimeLayout.
func (r RunIdentifier) RunTimeString() string {
	return r.RunTime.UTC().Format(RunTimeLayout)
}

// String returns "run_name/run_time".
func (r RunIdentifier) String() string {
	return r.RunName + "/" + r.RunTimeString()
}

// ExpectationSuiteIdentifier names an expectation suite.
type ExpectationSuiteIdentifier struct {
	Name string `json:"expectation_suite_name"`
}

func (s ExpectationSuiteIdentifier) String() string {
	return s.Name
}

// ValidationResultIdentifier names the result of validating one batch
// against one suite within one run.
type ValidationResultIdentifier struct {
	ExpectationSuite ExpectationSuiteIdentifier `json:"expectation_suite_identifier"`
	RunID            RunIdentifier              `json:"run_id"`
	BatchIdentifier  string                     `json:"batch_identifier"`
}

// NewValidationResultIdentifier builds an identifier from its parts.
func NewValidationResultIdentifier(suite string, runID RunIdentifier, batchID string) ValidationResultIdentifier {
	return ValidationResultIdentifier{
		ExpectationSuite: ExpectationSuiteIdentifier{Name: suite},
		RunID:            runID,
		BatchIdentifier:  batchID,
	}
}

// Key returns the path segments of the identifier:
// suite, run name, run time, batch identifier.
func (v ValidationResultIdentifier) Key() []string {
	return []string{
		v.ExpectationSuite.Name,
		v.RunID.RunName,
		v.RunID.RunTimeString(),
		v.BatchIdentifier,
	}
}

// String joins Key with "/". It is the stable map/store key of a result.
func (v ValidationResultIdentifier) String() string {
	return strings.Join(v.Key(), "/")
}

// ParseValidationResultIdentifier reverses String. Suite names may not
// contain "/", run names may.
func ParseValidationResultIdentifier(s string) (ValidationResultIdentifier, error) {
	parts := strings.Split(s, "/")
	if len(parts) < 4 {
		return ValidationResultIdentifier{}, fmt.Errorf("validation result identifier %q: expected at least 4 segments", s)
	}
	n := len(parts)
	runTime, err := time.Parse(RunTimeLayout, parts[n-2])
	if err != nil {
		return ValidationResultIdentifier{}, fmt.Errorf("validation result identifier %q: run time: %w", s, err)
	}
	runName := strings.Join(parts[1:n-2], "/")
	return NewValidationResultIdentifier(parts[0], RunIdentifier{RunName: runName, RunTime: runTime}, parts[n-1]), nil
}
