package expectation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

func TestResolveParametersDocumentationExample(t *testing.T) {
	e := NewEvaluator()
	got := e.ResolveParameters(map[string]any{
		"param1": "$MY_PARAM",
		"param2": "1 + $OLD_PARAM",
	}, env(map[string]string{"MY_PARAM": "1000", "OLD_PARAM": "500"}))

	assert.Equal(t, map[string]any{"param1": 1000, "param2": 501}, got)
}

func TestResolveParametersReferencesOtherParameters(t *testing.T) {
	e := NewEvaluator()
	got := e.ResolveParameters(map[string]any{
		"a_total": "b_base * 2",
		"b_base":  "c_seed + 1",
		"c_seed":  10,
	}, nil)

	assert.Equal(t, 10, got["c_seed"])
	assert.Equal(t, 11, got["b_base"])
	assert.Equal(t, 22, got["a_total"])
}

func TestResolveParametersKeepsPlainStrings(t *testing.T) {
	e := NewEvaluator()
	got := e.ResolveParameters(map[string]any{
		"label":   "users delivery",
		"unknown": "$NOT_SET",
		"flag":    true,
		"list":    []any{"$X"},
	}, env(map[string]string{"X": "x"}))

	assert.Equal(t, "users delivery", got["label"])
	assert.Equal(t, "$NOT_SET", got["unknown"])
	assert.Equal(t, true, got["flag"])
	assert.Equal(t, []any{"x"}, got["list"])
}

func TestResolveParametersKeepsLiteralsAsWritten(t *testing.T) {
	e := NewEvaluator()
	got := e.ResolveParameters(map[string]any{
		"run_date": "2021-01-01",
		"flag":     "true",
		"sum":      "1 + 1",
		"date_var": "$RUN_DATE",
		"ratio":    "$RATIO",
	}, env(map[string]string{"RUN_DATE": "2021-02-03", "RATIO": "0.5"}))

	assert.Equal(t, "2021-01-01", got["run_date"])
	assert.Equal(t, "true", got["flag"])
	assert.Equal(t, "1 + 1", got["sum"])
	assert.Equal(t, "2021-02-03", got["date_var"])
	assert.Equal(t, 0.5, got["ratio"])
}

func TestResolveKwargs(t *testing.T) {
	e := NewEvaluator()
	params := map[string]any{"param2": 501}

	got, err := e.ResolveKwargs(map[string]any{
		"column":    "fare_amount",
		"min_value": map[string]any{ParameterKey: "param2 - 1"},
		"max_value": map[string]any{ParameterKey: "param2 * 2"},
		"nested":    []any{map[string]any{ParameterKey: "param2"}},
	}, params)
	require.NoError(t, err)

	assert.Equal(t, "fare_amount", got["column"])
	assert.Equal(t, 500, got["min_value"])
	assert.Equal(t, 1002, got["max_value"])
	assert.Equal(t, []any{501}, got["nested"])
}

func TestResolveKwargsUnknownParameter(t *testing.T) {
	e := NewEvaluator()
	_, err := e.ResolveKwargs(map[string]any{
		"min_value": map[string]any{ParameterKey: "missing + 1"},
	}, map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min_value")
}

func TestEvaluatorCachesByParameterTypes(t *testing.T) {
	e := NewEvaluator()
	v, err := e.Evaluate("x + 1", map[string]any{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	v, err = e.Evaluate("x + 1", map[string]any{"x": 1.5})
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)
	assert.Len(t, e.cache, 2)
}
