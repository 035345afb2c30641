package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/itchyny/timefmt-go"

	"github.com/joseignaciorc/great-expectations/internal/action"
	"github.com/joseignaciorc/great-expectations/internal/config"
	"github.com/joseignaciorc/great-expectations/internal/datasource"
	"github.com/joseignaciorc/great-expectations/internal/expectation"
	"github.com/joseignaciorc/great-expectations/internal/ir"
)

// ErrDuplicateValidation is returned when two validations of a run would
// validate the same batch against the same suite.
var ErrDuplicateValidation = errors.New("duplicate validation")

// Catalog supplies registered objects by name.
type Catalog interface {
	Checkpoint(ctx context.Context, name string) (*config.CheckpointConfig, error)
	Datasource(ctx context.Context, name string) (*datasource.Datasource, error)
	Suite(ctx context.Context, name string) (*expectation.Suite, error)
}

// Options configure a Runner.
type Options struct {
	Catalog Catalog
	Actions *action.Registry
	Deps    action.Deps

	// Lookup resolves $VAR references. Nil leaves them verbatim.
	Lookup config.Lookup

	Clock     ir.Clock
	Validator *expectation.Validator
	Metrics   *Metrics
	Logger    *slog.Logger
}

// Runner executes checkpoints.
type Runner struct {
	catalog   Catalog
	actions   *action.Registry
	deps      action.Deps
	lookup    config.Lookup
	clock     ir.Clock
	validator *expectation.Validator
	metrics   *Metrics
	logger    *slog.Logger
}

// NewRunner builds a runner. Catalog is required.
func NewRunner(opts Options) *Runner {
	r := &Runner{
		catalog:   opts.Catalog,
		actions:   opts.Actions,
		deps:      opts.Deps,
		lookup:    opts.Lookup,
		clock:     opts.Clock,
		validator: opts.Validator,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
	}
	if r.actions == nil {
		r.actions = action.NewRegistry()
	}
	if r.clock == nil {
		r.clock = ir.SystemClock{}
	}
	if r.validator == nil {
		r.validator = expectation.NewValidator()
	}
	if r.metrics == nil {
		r.metrics = NewMetrics(nil)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if r.deps.Logger == nil {
		r.deps.Logger = r.logger
	}
	return r
}

// RunOptions parameterize one run.
type RunOptions struct {
	// RunName replaces the rendered run_name_template.
	RunName string

	// RunTime defaults to the runner's clock.
	RunTime time.Time

	// Overrides is layered over the resolved config like a child config.
	Overrides *config.CheckpointConfig
}

// Resolve returns the config a run of cfg would execute: template chain
// merged, SimpleCheckpoint expanded, overrides layered and variables
// substituted.
func (r *Runner) Resolve(ctx context.Context, cfg *config.CheckpointConfig, overrides *config.CheckpointConfig) (*config.CheckpointConfig, error) {
	resolved, err := config.ResolveTemplate(cfg, func(name string) (*config.CheckpointConfig, error) {
		return r.catalog.Checkpoint(ctx, name)
	})
	if err != nil {
		return nil, err
	}
	if overrides != nil {
		resolved = config.Layer(resolved, config.Expand(overrides))
	}
	resolved = config.SubstituteCheckpoint(resolved, r.lookup)

	if errs := config.ValidateActionClasses(resolved, r.actions.Known); len(errs) > 0 {
		return nil, config.ValidationErrors(errs)
	}
	return resolved, nil
}

// RunName renders a run_name_template against runTime with strftime
// directives. An empty template yields "".
func RunName(template string, runTime time.Time) string {
	if template == "" {
		return ""
	}
	return timefmt.Format(runTime.UTC(), template)
}

// plannedValidation is a validation with everything it needs loaded.
type plannedValidation struct {
	batch   *datasource.Batch
	suite   *expectation.Suite
	params  map[string]any
	format  expectation.ResultFormat
	names   []string
	classes []string
	actions []action.Action
}

// Run executes cfg. Everything a validation needs (batch, suite, actions)
// is loaded before the first validation runs, so a config problem aborts
// the run without side effects. A failing action is recorded in its
// result and fails the run without stopping the others.
func (r *Runner) Run(ctx context.Context, cfg *config.CheckpointConfig, opts RunOptions) (*Result, error) {
	resolved, err := r.Resolve(ctx, cfg, opts.Overrides)
	if err != nil {
		return nil, fmt.Errorf("checkpoint %q: %w", cfg.Name, err)
	}

	runTime := opts.RunTime
	if runTime.IsZero() {
		runTime = r.clock.Now()
	}
	runName := opts.RunName
	if runName == "" {
		runName = RunName(resolved.RunNameTemplate, runTime)
	}
	runID := ir.NewRunIdentifier(runName, runTime)

	validations, err := config.ResolveValidations(resolved)
	if err != nil {
		return nil, fmt.Errorf("checkpoint %q: %w", cfg.Name, err)
	}

	plans := make([]plannedValidation, 0, len(validations))
	seen := make(map[string]int, len(validations))
	for _, v := range validations {
		p, err := r.plan(ctx, v)
		if err != nil {
			return nil, fmt.Errorf("checkpoint %q: validations[%d]: %w", cfg.Name, v.Index, err)
		}
		// the suite and batch name the validation result
		key := p.suite.Name + "\x00" + p.batch.ID
		if first, dup := seen[key]; dup {
			return nil, fmt.Errorf("checkpoint %q: validations[%d]: %w: suite %q on batch %q already validated by validations[%d]",
				cfg.Name, v.Index, ErrDuplicateValidation, p.suite.Name, p.batch.ID, first)
		}
		seen[key] = v.Index
		plans = append(plans, p)
	}

	logger := r.logger.With("checkpoint", resolved.Name, "run_name", runID.RunName)
	logger.Info("checkpoint run started", "validations", len(plans))

	result := &Result{
		Success:          true,
		RunID:            runID,
		RunResults:       make([]ValidationRun, 0, len(plans)),
		CheckpointConfig: resolved,
	}
	for _, p := range plans {
		vr, err := r.execute(ctx, logger, resolved.Name, runID, p)
		if err != nil {
			return nil, fmt.Errorf("checkpoint %q: %w", cfg.Name, err)
		}
		if !vr.Success() {
			result.Success = false
		}
		result.RunResults = append(result.RunResults, vr)
	}

	r.metrics.recordRun(resolved.Name, result.Success)
	logger.Info("checkpoint run finished", "success", result.Success)
	return result, nil
}

func (r *Runner) plan(ctx context.Context, v config.ResolvedValidation) (plannedValidation, error) {
	ds, err := r.catalog.Datasource(ctx, v.BatchRequest.DatasourceName)
	if err != nil {
		return plannedValidation{}, err
	}
	batch, err := ds.GetBatch(ctx, &v.BatchRequest)
	if err != nil {
		return plannedValidation{}, err
	}
	suite, err := r.catalog.Suite(ctx, v.ExpectationSuiteName)
	if err != nil {
		return plannedValidation{}, err
	}
	format, err := expectation.ParseResultFormat(v.RuntimeConfiguration)
	if err != nil {
		return plannedValidation{}, err
	}

	p := plannedValidation{
		batch:  batch,
		suite:  suite,
		params: r.validator.Evaluator().ResolveParameters(v.EvaluationParameters, r.lookup),
		format: format,
	}
	for _, spec := range v.ActionList {
		a, err := r.actions.Build(spec, r.deps)
		if err != nil {
			return plannedValidation{}, err
		}
		p.names = append(p.names, spec.Name)
		p.classes = append(p.classes, spec.ClassName())
		p.actions = append(p.actions, a)
	}
	return p, nil
}

func (r *Runner) execute(ctx context.Context, logger *slog.Logger, checkpoint string, runID ir.RunIdentifier, p plannedValidation) (ValidationRun, error) {
	logger = logger.With("suite", p.suite.Name)

	start := time.Now()
	res, err := r.validator.Validate(ctx, p.suite, p.batch, expectation.Options{
		RunID:                runID,
		EvaluationParameters: p.params,
		ResultFormat:         p.format,
	})
	if err != nil {
		return ValidationRun{}, err
	}
	r.metrics.recordValidation(p.suite.Name, time.Since(start).Seconds())
	logger.Debug("suite validated", "success", res.Success, "evaluated", res.Statistics.EvaluatedExpectations)

	id := ir.NewValidationResultIdentifier(p.suite.Name, runID, p.batch.ID)
	vr := ValidationRun{
		Identifier:       id,
		ValidationResult: res,
		ActionsResults:   make(map[string]action.Result, len(p.actions)),
	}

	in := &action.Input{
		CheckpointName:       checkpoint,
		Identifier:           id,
		Result:               res,
		EvaluationParameters: p.params,
		Prior:                vr.ActionsResults,
	}
	for i, a := range p.actions {
		name := p.names[i]
		out, err := a.Run(ctx, in)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ValidationRun{}, err
			}
			logger.Warn("action failed", "action", name, "error", err)
			r.metrics.recordActionFailure(name)
			out = action.Result{action.ResultClassKey: p.classes[i], action.ResultErrorKey: err.Error()}
			if vr.ActionErrors == nil {
				vr.ActionErrors = make(map[string]string)
			}
			vr.ActionErrors[name] = err.Error()
		}
		vr.ActionsResults[name] = out
		vr.ActionOrder = append(vr.ActionOrder, name)
	}
	return vr, nil
}
