package datacontext

import (
	"context"
	"fmt"

	"github.com/joseignaciorc/great-expectations/internal/checkpoint"
	"github.com/joseignaciorc/great-expectations/internal/config"
	"github.com/joseignaciorc/great-expectations/internal/ir"
	"github.com/joseignaciorc/great-expectations/internal/store"
)

// AddCheckpoint validates cfg and registers it as written (a
// SimpleCheckpoint stays simple). Fails with store.ErrAlreadyExists when
// the name is taken.
func (c *Context) AddCheckpoint(ctx context.Context, cfg *config.CheckpointConfig) (*config.CheckpointConfig, error) {
	if err := c.checkCheckpoint(cfg); err != nil {
		return nil, err
	}
	if err := c.store.InsertCheckpoint(ctx, cfg); err != nil {
		return nil, err
	}
	c.logger.Info("checkpoint added", "checkpoint", cfg.Name)
	return cfg, nil
}

// ReplaceCheckpoint validates cfg and registers it, replacing any
// checkpoint of the same name. A replaced checkpoint keeps its place in
// ListCheckpoints.
func (c *Context) ReplaceCheckpoint(ctx context.Context, cfg *config.CheckpointConfig) (*config.CheckpointConfig, error) {
	if err := c.checkCheckpoint(cfg); err != nil {
		return nil, err
	}
	if err := c.store.PutCheckpoint(ctx, cfg); err != nil {
		return nil, err
	}
	c.logger.Info("checkpoint replaced", "checkpoint", cfg.Name)
	return cfg, nil
}

func (c *Context) checkCheckpoint(cfg *config.CheckpointConfig) error {
	if cfg.ClassName == "" {
		cfg.ClassName = config.ClassCheckpoint
	}
	errs := config.ValidateCheckpoint(cfg, false)
	errs = append(errs, config.ValidateActionClasses(config.Expand(cfg), c.actions.Known)...)
	if len(errs) > 0 {
		return config.ValidationErrors(errs)
	}
	return nil
}

// GetCheckpoint loads a registered checkpoint config as written.
func (c *Context) GetCheckpoint(ctx context.Context, name string) (*config.CheckpointConfig, error) {
	return c.store.GetCheckpoint(ctx, name)
}

// ListCheckpoints returns checkpoint names in registration order.
func (c *Context) ListCheckpoints(ctx context.Context) ([]string, error) {
	return c.store.ListCheckpointNames(ctx)
}

// DeleteCheckpoint removes a registered checkpoint.
func (c *Context) DeleteCheckpoint(ctx context.Context, name string) error {
	if err := c.store.DeleteCheckpoint(ctx, name); err != nil {
		return err
	}
	c.logger.Info("checkpoint deleted", "checkpoint", name)
	return nil
}

// RunOptions parameterize RunCheckpoint.
type RunOptions struct {
	// RunName replaces the rendered run_name_template.
	RunName string

	// Overrides is layered over the registered config.
	Overrides *config.CheckpointConfig
}

// RunCheckpoint runs a registered checkpoint and records the run.
func (c *Context) RunCheckpoint(ctx context.Context, name string, opts RunOptions) (*checkpoint.Result, error) {
	cfg, err := c.store.GetCheckpoint(ctx, name)
	if err != nil {
		return nil, err
	}
	fingerprint, err := c.store.CheckpointFingerprint(ctx, name)
	if err != nil {
		return nil, err
	}
	res, err := c.runner.Run(ctx, cfg, checkpoint.RunOptions{
		RunName:   opts.RunName,
		Overrides: opts.Overrides,
	})
	if err != nil {
		return nil, err
	}

	summary, err := ir.MarshalCanonical(runSummary(res, fingerprint))
	if err != nil {
		return nil, fmt.Errorf("checkpoint %q: summarize run: %w", name, err)
	}
	err = c.store.InsertRun(ctx, &store.RunRecord{
		CheckpointName: name,
		RunID:          res.RunID,
		Success:        res.Success,
		Result:         summary,
	})
	if err != nil {
		return nil, fmt.Errorf("checkpoint %q: record run: %w", name, err)
	}
	return res, nil
}

// ListRuns returns recorded runs of a checkpoint, oldest first. An empty
// name lists every run.
func (c *Context) ListRuns(ctx context.Context, name string) ([]store.RunRecord, error) {
	return c.store.ListRuns(ctx, name)
}

// runSummary is the recorded form of a run. config_fingerprint identifies
// the registered config the run executed.
func runSummary(res *checkpoint.Result, fingerprint string) map[string]any {
	validations := make([]any, 0, len(res.RunResults))
	for _, vr := range res.RunResults {
		stats := vr.ValidationResult.Statistics
		validations = append(validations, map[string]any{
			"validation_result_identifier": vr.Identifier.String(),
			"success":                      vr.Success(),
			"evaluated_expectations":       stats.EvaluatedExpectations,
			"successful_expectations":      stats.SuccessfulExpectations,
			"actions":                      append([]string(nil), vr.ActionOrder...),
		})
	}
	return map[string]any{
		"success":            res.Success,
		"run_id":             res.RunID.String(),
		"config_fingerprint": fingerprint,
		"validations":        validations,
	}
}
