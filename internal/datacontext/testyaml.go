package datacontext

import (
	"context"
	"errors"
	"fmt"

	"github.com/joseignaciorc/great-expectations/internal/config"
	"github.com/joseignaciorc/great-expectations/internal/datasource"
	"github.com/joseignaciorc/great-expectations/internal/store"
)

// TestResult is the outcome of a dry run.
type TestResult struct {
	Kind      config.Kind `json:"kind"`
	Name      string      `json:"name"`
	ClassName string      `json:"class_name"`

	// Checkpoint is the explicit form of a checkpoint document, layered
	// over its template when the template is registered.
	Checkpoint *config.CheckpointConfig `json:"checkpoint,omitempty"`

	// Datasource reports the assets a datasource document can see.
	Datasource *datasource.Report `json:"datasource,omitempty"`

	// Warnings name references that do not resolve yet. They do not fail
	// the dry run.
	Warnings []string `json:"warnings"`
}

// TestYAMLConfig dry-runs a checkpoint or datasource document: parse,
// schema and semantic checks, SimpleCheckpoint expansion, template
// resolution. Nothing is persisted or executed. classHint is used when the
// document has no class_name.
func (c *Context) TestYAMLConfig(ctx context.Context, data []byte, classHint string) (*TestResult, error) {
	doc, errs := config.Parse(data, classHint)
	if len(errs) > 0 {
		return nil, config.ValidationErrors(errs)
	}

	switch doc.Kind {
	case config.KindDatasource:
		return c.testDatasource(ctx, doc)
	default:
		return c.testCheckpoint(ctx, doc)
	}
}

func (c *Context) testDatasource(ctx context.Context, doc *config.Document) (*TestResult, error) {
	ds, err := datasource.New(doc.Datasource, c.root)
	if err != nil {
		return nil, err
	}
	report, err := ds.Describe(ctx)
	if err != nil {
		return nil, err
	}
	return &TestResult{
		Kind:       config.KindDatasource,
		Name:       doc.Datasource.Name,
		ClassName:  doc.ClassName,
		Datasource: report,
		Warnings:   []string{},
	}, nil
}

func (c *Context) testCheckpoint(ctx context.Context, doc *config.Document) (*TestResult, error) {
	cfg := doc.Checkpoint
	out := &TestResult{
		Kind:      config.KindCheckpoint,
		Name:      cfg.Name,
		ClassName: doc.ClassName,
		Warnings:  []string{},
	}

	resolved, err := config.ResolveTemplate(cfg, func(name string) (*config.CheckpointConfig, error) {
		return c.store.GetCheckpoint(ctx, name)
	})
	switch {
	case errors.Is(err, store.ErrNotFound):
		out.Warnings = append(out.Warnings, fmt.Sprintf("template %q is not registered yet", cfg.TemplateName))
		resolved = config.Expand(cfg)
	case err != nil:
		return nil, err
	}

	if errs := config.ValidateActionClasses(resolved, c.actions.Known); len(errs) > 0 {
		return nil, config.ValidationErrors(errs)
	}
	out.Checkpoint = resolved

	if len(resolved.Validations) == 0 && resolved.BatchRequest == nil {
		out.Warnings = append(out.Warnings, "no validations: they must be supplied when the checkpoint is run")
	}
	out.Warnings = append(out.Warnings, c.referenceWarnings(ctx, resolved)...)
	return out, nil
}

// referenceWarnings reports datasources and suites that are not
// registered.
func (c *Context) referenceWarnings(ctx context.Context, cfg *config.CheckpointConfig) []string {
	var warnings []string
	seen := map[string]bool{}
	warn := func(kind, name string, err error) {
		key := kind + "\x00" + name
		if seen[key] || !errors.Is(err, store.ErrNotFound) {
			return
		}
		seen[key] = true
		warnings = append(warnings, fmt.Sprintf("%s %q is not registered yet", kind, name))
	}

	check := func(br *config.BatchRequest, suite string) {
		if br != nil && br.DatasourceName != "" {
			_, err := c.store.GetDatasource(ctx, br.DatasourceName)
			warn("datasource", br.DatasourceName, err)
		}
		if suite != "" {
			_, err := c.store.GetSuite(ctx, suite)
			warn("expectation suite", suite, err)
		}
	}

	check(cfg.BatchRequest, cfg.ExpectationSuiteName)
	for _, v := range cfg.Validations {
		check(v.BatchRequest, v.ExpectationSuiteName)
	}
	return warnings
}
