package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(m map[string]string) Lookup {
	return func(name string) (string, bool) {
		v, ok := m[name]
		return v, ok
	}
}

func TestSubstitute(t *testing.T) {
	lookup := mapLookup(map[string]string{"VAR": "ge", "OLD_PARAM": "500"})

	tests := []struct {
		in, want string
	}{
		{"%Y-%M-foo-bar-template-$VAR", "%Y-%M-foo-bar-template-ge"},
		{"1 + $OLD_PARAM", "1 + 500"},
		{"${VAR}_suffix", "ge_suffix"},
		{"$VAR_suffix", "$VAR_suffix"},
		{"$UNKNOWN and ${ALSO_UNKNOWN}", "$UNKNOWN and ${ALSO_UNKNOWN}"},
		{"no vars", "no vars"},
		{"cost: $5", "cost: $5"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Substitute(tt.in, lookup), tt.in)
	}
}

func TestSubstituteNilLookup(t *testing.T) {
	assert.Equal(t, "$VAR", Substitute("$VAR", nil))
}

func TestEnvLookupPrefersConfigVariables(t *testing.T) {
	t.Setenv("GX_TEST_VAR", "from-env")
	t.Setenv("GX_TEST_OTHER", "env-only")

	lookup := EnvLookup(map[string]string{"GX_TEST_VAR": "from-config"})
	assert.Equal(t, "from-config", Substitute("$GX_TEST_VAR", lookup))
	assert.Equal(t, "env-only", Substitute("$GX_TEST_OTHER", lookup))
}

func TestSubstituteCheckpoint(t *testing.T) {
	cfg, err := ParseCheckpoint(readTestdata(t, "no_nesting.yaml"))
	require.NoError(t, err)

	lookup := mapLookup(map[string]string{"VAR": "ge", "MY_PARAM": "1000", "OLD_PARAM": "500"})
	got := SubstituteCheckpoint(cfg, lookup)

	assert.Equal(t, "%Y-%M-foo-bar-template-ge", got.RunNameTemplate)
	// parameters are substituted when they are resolved
	assert.Equal(t, "$MY_PARAM", got.Validations[0].EvaluationParameters["param1"])
	assert.Equal(t, "1 + $OLD_PARAM", got.Validations[0].EvaluationParameters["param2"])

	// input untouched
	assert.Equal(t, "%Y-%M-foo-bar-template-$VAR", cfg.RunNameTemplate)
}

func TestIsReference(t *testing.T) {
	assert.True(t, IsReference("$MY_PARAM"))
	assert.True(t, IsReference("${MY_PARAM}"))
	assert.False(t, IsReference("1 + $OLD_PARAM"))
	assert.False(t, IsReference("$A$B"))
	assert.False(t, IsReference("plain"))
}

func TestSubstituteValueNested(t *testing.T) {
	lookup := mapLookup(map[string]string{"HOOK": "http://hook"})
	got := SubstituteValue(map[string]any{
		"slack_webhook": "$HOOK",
		"list":          []any{"${HOOK}/a", 3},
	}, lookup)
	assert.Equal(t, map[string]any{
		"slack_webhook": "http://hook",
		"list":          []any{"http://hook/a", 3},
	}, got)
}
