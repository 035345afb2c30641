package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseignaciorc/great-expectations/internal/config"
	"github.com/joseignaciorc/great-expectations/internal/datacontext"
	"github.com/joseignaciorc/great-expectations/internal/expectation"
	"github.com/joseignaciorc/great-expectations/internal/ir"
	"github.com/joseignaciorc/great-expectations/internal/testutil"
)

// Harness executes one scenario against one project.
type Harness struct {
	scenario *Scenario
	dc       *datacontext.Context
	env      map[string]string
	logger   *slog.Logger
}

// Option configures Run.
type Option func(*runOptions)

type runOptions struct {
	logger *slog.Logger
}

// WithLogger logs step progress to l. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(o *runOptions) { o.logger = l }
}

// Run executes a scenario in a fresh project rooted at root, which should
// be an empty directory, and returns the result.
//
// Execution flow:
// 1. Write the scenario's files and open the project
// 2. Execute steps until one fails unexpectedly
// 3. Evaluate assertions
//
// An error is returned only when the project cannot be set up.
func Run(ctx context.Context, scenario *Scenario, root string, opts ...Option) (*Result, error) {
	o := runOptions{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	for _, rel := range ir.SortedKeys(scenario.Files) {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to write scenario file %s: %w", rel, err)
		}
		if err := os.WriteFile(path, []byte(scenario.Files[rel]), 0o644); err != nil {
			return nil, fmt.Errorf("failed to write scenario file %s: %w", rel, err)
		}
	}

	h := &Harness{
		scenario: scenario,
		env:      maps.Clone(scenario.Env),
		logger:   o.logger,
	}
	if h.env == nil {
		h.env = map[string]string{}
	}

	dc, err := datacontext.Open(root,
		datacontext.WithProjectConfig(&datacontext.ProjectConfig{}),
		datacontext.WithClock(testutil.NewDeterministicClock()),
		datacontext.WithIDGenerator(testutil.NewSequenceIDGenerator("scenario")),
		datacontext.WithLookup(h.lookup),
		datacontext.WithLogger(o.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open project: %w", err)
	}
	defer dc.Close()
	h.dc = dc

	result := NewResult()
	h.executeSteps(ctx, result)

	if result.Datasources, err = h.datasourceNames(ctx); err != nil {
		return nil, err
	}
	if result.Checkpoints, err = dc.ListCheckpoints(ctx); err != nil {
		return nil, err
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// lookup resolves $NAME against the scenario's variables only, so a run
// never depends on the process environment.
func (h *Harness) lookup(name string) (string, bool) {
	v, ok := h.env[name]
	return v, ok
}

// executeSteps runs steps in order. A step failing without expect_error
// stops execution.
func (h *Harness) executeSteps(ctx context.Context, result *Result) {
	for i, step := range h.scenario.Steps {
		ev := TraceEvent{Step: i, Op: step.Op, Target: step.label(), Outcome: OutcomeOK}
		err := h.execute(ctx, step, &ev, result)
		if err != nil {
			ev.Outcome = OutcomeError
		}
		result.addTrace(ev)

		switch {
		case step.ExpectError != "" && err == nil:
			result.AddError(fmt.Sprintf("step %d (%s): expected error containing %q, got success", i, step.Op, step.ExpectError))
		case step.ExpectError != "" && !strings.Contains(err.Error(), step.ExpectError):
			result.AddError(fmt.Sprintf("step %d (%s): expected error containing %q, got: %v", i, step.Op, step.ExpectError, err))
		case step.ExpectError == "" && err != nil:
			result.AddError(fmt.Sprintf("step %d (%s): %v", i, step.Op, err))
			return
		}

		h.logger.Info("scenario step completed",
			"step", i,
			"op", step.Op,
			"target", ev.Target,
			"outcome", ev.Outcome,
		)
	}
}

func (h *Harness) execute(ctx context.Context, step Step, ev *TraceEvent, result *Result) error {
	switch step.Op {
	case OpSetenv:
		maps.Copy(h.env, step.Env)
		return nil

	case OpAddDatasource:
		data, err := h.scenario.document(step)
		if err != nil {
			return err
		}
		cfg, err := config.ParseDatasource(data)
		if err != nil {
			return err
		}
		ev.Target = cfg.Name
		_, err = h.dc.AddDatasource(ctx, cfg)
		return err

	case OpCreateExpectationSuite:
		_, err := h.dc.CreateExpectationSuite(ctx, step.Name)
		return err

	case OpAddExpectationSuite:
		suite := expectation.NewSuite(step.Name)
		for _, e := range step.Expectations {
			suite.Add(e.Type, e.Kwargs)
		}
		return h.dc.AddExpectationSuite(ctx, suite)

	case OpTestYAMLConfig:
		data, err := h.scenario.document(step)
		if err != nil {
			return err
		}
		res, err := h.dc.TestYAMLConfig(ctx, data, step.ClassHint)
		if err != nil {
			return err
		}
		label := step.label()
		if label == "" {
			label = res.Name
		}
		ev.Target = label
		ev.Warnings = res.Warnings
		result.DryRuns[label] = res
		return nil

	case OpAddCheckpoint:
		data, err := h.scenario.document(step)
		if err != nil {
			return err
		}
		cfg, err := config.ParseCheckpoint(data)
		if err != nil {
			return err
		}
		ev.Target = cfg.Name
		_, err = h.dc.AddCheckpoint(ctx, cfg)
		return err

	case OpRunCheckpoint:
		opts := datacontext.RunOptions{RunName: step.RunName}
		if step.Overrides != "" {
			overrides, err := config.ParseOverrides([]byte(step.Overrides))
			if err != nil {
				return err
			}
			opts.Overrides = overrides
		}
		res, err := h.dc.RunCheckpoint(ctx, step.Name, opts)
		if err != nil {
			return err
		}
		success := res.Success
		ev.Success = &success
		result.Runs[step.label()] = res
		return nil
	}
	return fmt.Errorf("unknown op %q", step.Op)
}

func (h *Harness) datasourceNames(ctx context.Context) ([]string, error) {
	cfgs, err := h.dc.ListDatasources(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(cfgs))
	for _, cfg := range cfgs {
		names = append(names, cfg.Name)
	}
	return names, nil
}
