package expectation

import (
	"github.com/joseignaciorc/great-expectations/internal/ir"
)

// ExceptionInfo describes an expectation that could not be evaluated.
type ExceptionInfo struct {
	RaisedException  bool   `json:"raised_exception"`
	ExceptionMessage string `json:"exception_message,omitempty"`
}

// ValidationResult is the outcome of one expectation.
type ValidationResult struct {
	Success           bool           `json:"success"`
	ExpectationConfig Configuration  `json:"expectation_config"`
	Result            map[string]any `json:"result"`
	ExceptionInfo     ExceptionInfo  `json:"exception_info"`
}

// Statistics summarizes a suite validation.
type Statistics struct {
	EvaluatedExpectations    int     `json:"evaluated_expectations"`
	SuccessfulExpectations   int     `json:"successful_expectations"`
	UnsuccessfulExpectations int     `json:"unsuccessful_expectations"`
	SuccessPercent           float64 `json:"success_percent"`
}

// Meta describes what a suite validation ran against.
type Meta struct {
	ExpectationSuiteName string           `json:"expectation_suite_name"`
	RunID                ir.RunIdentifier `json:"run_id"`
	BatchID              string           `json:"batch_id"`
	BatchDefinition      map[string]any   `json:"active_batch_definition"`
	BatchSpec            map[string]any   `json:"batch_spec"`
	ValidationTime       string           `json:"validation_time"`
	ResultFormat         string           `json:"result_format"`
}

// SuiteValidationResult is the outcome of validating one batch against one
// expectation suite.
type SuiteValidationResult struct {
	Success              bool               `json:"success"`
	Results              []ValidationResult `json:"results"`
	Statistics           Statistics         `json:"statistics"`
	EvaluationParameters map[string]any     `json:"evaluation_parameters"`
	Meta                 Meta               `json:"meta"`
}

// computeStatistics fills Statistics and Success from Results. An empty
// suite succeeds.
func (r *SuiteValidationResult) computeStatistics() {
	s := Statistics{EvaluatedExpectations: len(r.Results)}
	for _, res := range r.Results {
		if res.Success {
			s.SuccessfulExpectations++
		} else {
			s.UnsuccessfulExpectations++
		}
	}
	if s.EvaluatedExpectations > 0 {
		s.SuccessPercent = float64(s.SuccessfulExpectations) / float64(s.EvaluatedExpectations) * 100
	} else {
		s.SuccessPercent = 100
	}
	r.Statistics = s
	r.Success = s.UnsuccessfulExpectations == 0
}

// ObservedMetrics returns the observed values of table-level expectations
// and unexpected counts of column expectations, keyed
// "<expectation_type>[.<column>].<metric>".
func (r *SuiteValidationResult) ObservedMetrics() map[string]any {
	out := make(map[string]any)
	for _, res := range r.Results {
		key := res.ExpectationConfig.ExpectationType
		if col := res.ExpectationConfig.Column(); col != "" {
			key += "." + col
		}
		if v, ok := res.Result["observed_value"]; ok {
			out[key+".observed_value"] = v
		}
		if v, ok := res.Result["unexpected_count"]; ok {
			out[key+".unexpected_count"] = v
		}
	}
	return out
}
