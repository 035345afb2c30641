package expectation

import (
	"context"
	"fmt"
	"time"

	"github.com/joseignaciorc/great-expectations/internal/datasource"
	"github.com/joseignaciorc/great-expectations/internal/ir"
)

// Options parameterize one suite validation.
type Options struct {
	RunID ir.RunIdentifier

	// EvaluationParameters are already resolved (see ResolveParameters).
	EvaluationParameters map[string]any

	ResultFormat ResultFormat

	// ValidationTime defaults to RunID.RunTime.
	ValidationTime time.Time
}

// Validator checks batches against suites.
type Validator struct {
	eval *Evaluator
}

// NewValidator returns a validator with its own expression cache.
func NewValidator() *Validator {
	return &Validator{eval: NewEvaluator()}
}

// Evaluator returns the validator's expression evaluator.
func (v *Validator) Evaluator() *Evaluator {
	return v.eval
}

// Validate evaluates every expectation of suite against batch. Problems
// with individual expectations (unknown type, bad kwargs, missing column)
// fail that expectation with exception_info instead of aborting. Only
// context cancellation returns an error.
func (v *Validator) Validate(ctx context.Context, suite *Suite, batch *datasource.Batch, opts Options) (*SuiteValidationResult, error) {
	rf := opts.ResultFormat
	if rf.Format == "" {
		rf = DefaultResultFormat()
	}
	params := opts.EvaluationParameters
	if params == nil {
		params = map[string]any{}
	}
	when := opts.ValidationTime
	if when.IsZero() {
		when = opts.RunID.RunTime
	}

	res := &SuiteValidationResult{
		Results:              make([]ValidationResult, 0, len(suite.Expectations)),
		EvaluationParameters: params,
		Meta: Meta{
			ExpectationSuiteName: suite.Name,
			RunID:                opts.RunID,
			BatchID:              batch.ID,
			BatchDefinition:      batch.Definition.Spec(),
			BatchSpec:            batch.Spec,
			ValidationTime:       when.UTC().Format(ir.RunTimeLayout),
			ResultFormat:         rf.Format,
		},
	}

	for _, cfg := range suite.Expectations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res.Results = append(res.Results, v.evaluate(cfg, batch.Data, params, rf))
	}
	res.computeStatistics()
	return res, nil
}

func (v *Validator) evaluate(cfg Configuration, data *datasource.Table, params map[string]any, rf ResultFormat) ValidationResult {
	out := ValidationResult{ExpectationConfig: cfg, Result: map[string]any{}}

	fn, ok := registry[cfg.ExpectationType]
	if !ok {
		out.ExceptionInfo = ExceptionInfo{
			RaisedException:  true,
			ExceptionMessage: fmt.Sprintf("unknown expectation type %q", cfg.ExpectationType),
		}
		return out
	}

	kwargs, err := v.eval.ResolveKwargs(cfg.Kwargs, params)
	if err != nil {
		out.ExceptionInfo = ExceptionInfo{RaisedException: true, ExceptionMessage: err.Error()}
		return out
	}
	if data == nil {
		data = &datasource.Table{}
	}

	success, result, err := fn(data, kwargs, rf)
	if err != nil {
		out.ExceptionInfo = ExceptionInfo{RaisedException: true, ExceptionMessage: err.Error()}
		return out
	}
	out.ExpectationConfig = Configuration{ExpectationType: cfg.ExpectationType, Kwargs: kwargs, Meta: cfg.Meta}
	out.Success = success
	out.Result = result
	return out
}
