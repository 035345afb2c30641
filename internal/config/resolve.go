package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoValidations is returned when a checkpoint is run without any
	// validation, neither declared nor supplied at run time.
	ErrNoValidations = errors.New("checkpoint has no validations")

	// ErrTemplateCycle is returned when template_name links loop.
	ErrTemplateCycle = errors.New("checkpoint template cycle")
)

// TemplateLookup loads a registered checkpoint config by name.
type TemplateLookup func(name string) (*CheckpointConfig, error)

// ResolveTemplate expands c and layers it over its template chain.
// Every layer is expanded before merging, so a SimpleCheckpoint template
// contributes its implied actions.
func ResolveTemplate(c *CheckpointConfig, lookup TemplateLookup) (*CheckpointConfig, error) {
	return resolveTemplate(c, lookup, []string{c.Name})
}

func resolveTemplate(c *CheckpointConfig, lookup TemplateLookup, chain []string) (*CheckpointConfig, error) {
	self := Expand(c)
	if c.TemplateName == "" {
		return self, nil
	}
	for _, name := range chain {
		if name == c.TemplateName {
			path := append(append([]string(nil), chain...), c.TemplateName)
			return nil, fmt.Errorf("%w: %s", ErrTemplateCycle, strings.Join(path, " -> "))
		}
	}

	tmpl, err := lookup(c.TemplateName)
	if err != nil {
		return nil, fmt.Errorf("template %q: %w", c.TemplateName, err)
	}

	next := append(append([]string(nil), chain...), c.TemplateName)
	base, err := resolveTemplate(tmpl, lookup, next)
	if err != nil {
		return nil, err
	}
	return Layer(base, self), nil
}

// ResolvedValidation is one validation with checkpoint-level defaults
// applied.
type ResolvedValidation struct {
	Index                int
	BatchRequest         BatchRequest
	ExpectationSuiteName string
	ActionList           []ActionSpec
	EvaluationParameters map[string]any
	RuntimeConfiguration map[string]any
}

// ResolveValidations applies the checkpoint-level batch_request, suite
// name, action_list, evaluation_parameters and runtime_configuration to
// each validation. A checkpoint with no validations but a top-level
// batch_request yields one validation.
func ResolveValidations(c *CheckpointConfig) ([]ResolvedValidation, error) {
	specs := c.Validations
	if len(specs) == 0 {
		if c.BatchRequest == nil {
			return nil, ErrNoValidations
		}
		specs = []ValidationSpec{{}}
	}

	var errs ValidationErrors
	out := make([]ResolvedValidation, 0, len(specs))
	for i, v := range specs {
		field := fmt.Sprintf("validations[%d]", i)

		br := MergeBatchRequest(c.BatchRequest, v.BatchRequest)
		if br == nil || br.DatasourceName == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".batch_request",
				Message: "batch_request with datasource_name is required",
				Code:    ErrBatchRequestRequired,
			})
			continue
		}

		suite := v.ExpectationSuiteName
		if suite == "" {
			suite = c.ExpectationSuiteName
		}
		if suite == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".expectation_suite_name",
				Message: "expectation_suite_name is required",
				Code:    ErrSuiteRequired,
			})
			continue
		}

		out = append(out, ResolvedValidation{
			Index:                i,
			BatchRequest:         *br,
			ExpectationSuiteName: suite,
			ActionList:           MergeActionLists(c.ActionList, v.ActionList),
			EvaluationParameters: DeepMerge(c.EvaluationParameters, v.EvaluationParameters),
			RuntimeConfiguration: DeepMerge(c.RuntimeConfiguration, v.RuntimeConfiguration),
		})
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}
