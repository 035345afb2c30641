package config

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type templates map[string]*CheckpointConfig

var errMissing = errors.New("missing")

func (m templates) lookup(name string) (*CheckpointConfig, error) {
	c, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("checkpoint %q: %w", name, errMissing)
	}
	return c, nil
}

func TestResolveValidationsNestingWithDefaults(t *testing.T) {
	cfg, err := ParseCheckpoint(readTestdata(t, "nesting_with_defaults.yaml"))
	require.NoError(t, err)

	got, err := ResolveValidations(cfg)
	require.NoError(t, err)
	require.Len(t, got, 2)

	for i, v := range got {
		assert.Equal(t, i, v.Index)
		assert.Equal(t, "users.delivery", v.ExpectationSuiteName)
		assert.Equal(t, []string{"store_validation_result", "store_evaluation_params", "update_data_docs"}, actionNames(v.ActionList))
		assert.Equal(t, "$MY_PARAM", v.EvaluationParameters["param1"])
		assert.Contains(t, v.RuntimeConfiguration, "result_format")
	}
	assert.Equal(t, "my_special_data_connector", got[0].BatchRequest.DataConnectorName)
	assert.Equal(t, -1, *got[0].BatchRequest.DataConnectorQuery.Index)
	assert.Equal(t, "my_other_data_connector", got[1].BatchRequest.DataConnectorName)
	assert.Equal(t, -2, *got[1].BatchRequest.DataConnectorQuery.Index)
}

func TestResolveValidationsMissingValidations(t *testing.T) {
	cfg, err := ParseCheckpoint(readTestdata(t, "keys_passed_at_runtime.yaml"))
	require.NoError(t, err)

	_, err = ResolveValidations(cfg)
	assert.ErrorIs(t, err, ErrNoValidations)
}

func TestResolveValidationsTopLevelBatchRequest(t *testing.T) {
	cfg := &CheckpointConfig{
		Name:                 "c",
		ExpectationSuiteName: "s",
		BatchRequest:         &BatchRequest{DatasourceName: "ds", DataAssetName: "a"},
	}
	got, err := ResolveValidations(cfg)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ds", got[0].BatchRequest.DatasourceName)
	assert.Equal(t, "s", got[0].ExpectationSuiteName)
}

func TestResolveValidationsCollectsErrors(t *testing.T) {
	cfg := &CheckpointConfig{
		Name: "c",
		Validations: []ValidationSpec{
			{ExpectationSuiteName: "s"},
			{BatchRequest: &BatchRequest{DatasourceName: "ds"}},
		},
	}
	_, err := ResolveValidations(cfg)
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Len(t, verrs, 2)
	assert.Equal(t, ErrBatchRequestRequired, verrs[0].Code)
	assert.Equal(t, "validations[0].batch_request", verrs[0].Field)
	assert.Equal(t, ErrSuiteRequired, verrs[1].Code)
}

func TestResolveTemplate(t *testing.T) {
	base, err := ParseCheckpoint(readTestdata(t, "keys_passed_at_runtime.yaml"))
	require.NoError(t, err)
	base.Name = "my_base_checkpoint"

	child, err := ParseCheckpoint(readTestdata(t, "using_template.yaml"))
	require.NoError(t, err)

	got, err := ResolveTemplate(child, templates{"my_base_checkpoint": base}.lookup)
	require.NoError(t, err)

	assert.Equal(t, "my_checkpoint", got.Name)
	assert.Equal(t, "%Y-%M-foo-bar-template-$VAR", got.RunNameTemplate)
	assert.Len(t, got.ActionList, 3)
	require.Len(t, got.Validations, 2)

	resolved, err := ResolveValidations(got)
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	assert.Equal(t, "users.delivery", resolved[0].ExpectationSuiteName)
	assert.Equal(t, "users.diagnostic", resolved[1].ExpectationSuiteName)
	assert.Len(t, resolved[1].ActionList, 3)
}

func TestResolveTemplateSimpleBase(t *testing.T) {
	base, err := ParseCheckpoint(readTestdata(t, "using_simple_checkpoint.yaml"))
	require.NoError(t, err)
	base.Name = "simple_base"

	child := &CheckpointConfig{
		Name:         "child",
		ClassName:    ClassCheckpoint,
		TemplateName: "simple_base",
		ActionList:   []ActionSpec{{Name: DefaultSlackNotificationName}},
	}

	got, err := ResolveTemplate(child, templates{"simple_base": base}.lookup)
	require.NoError(t, err)
	assert.Equal(t, ClassCheckpoint, got.ClassName)
	assert.Equal(t, []string{
		DefaultStoreValidationResultName,
		DefaultStoreEvaluationParamsName,
		DefaultUpdateDataDocsName,
	}, actionNames(got.ActionList))
	assert.Empty(t, got.SlackWebhook)
	assert.Len(t, got.Validations, 1)
}

func TestResolveTemplateMissing(t *testing.T) {
	child := &CheckpointConfig{Name: "c", TemplateName: "nope"}
	_, err := ResolveTemplate(child, templates{}.lookup)
	assert.ErrorIs(t, err, errMissing)
}

func TestResolveTemplateCycle(t *testing.T) {
	m := templates{
		"a": {Name: "a", TemplateName: "b"},
		"b": {Name: "b", TemplateName: "a"},
	}
	_, err := ResolveTemplate(m["a"], m.lookup)
	require.ErrorIs(t, err, ErrTemplateCycle)
	assert.Contains(t, err.Error(), "a -> b -> a")
}

func TestResolveTemplateSelfReference(t *testing.T) {
	c := &CheckpointConfig{Name: "self", TemplateName: "self"}
	_, err := ResolveTemplate(c, templates{"self": c}.lookup)
	assert.ErrorIs(t, err, ErrTemplateCycle)
}
