package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_Documented(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/checkpoints_and_actions.yaml")
	require.NoError(t, err)

	assert.Equal(t, "checkpoints_and_actions", s.Name)
	assert.Len(t, s.Steps, 13)
	assert.Len(t, s.Assertions, 5)
	assert.Contains(t, s.Files, "data/yellow_tripdata_sample_2019-01.csv")

	// aliases resolve to the anchored document
	assert.Equal(t, s.Steps[0].Config, s.Steps[1].Config)
	assert.Equal(t, OpAddDatasource, s.Steps[1].Op)
}

func TestLoadScenario_StepFileRelativeToScenario(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ds.yaml"), []byte("name: ds\n"), 0o644))
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`name: s
description: d
steps:
  - op: add_datasource
    file: ds.yaml
`), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	data, err := s.document(s.Steps[0])
	require.NoError(t, err)
	assert.Equal(t, "name: ds\n", string(data))
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/nope.yaml")
	assert.ErrorContains(t, err, "failed to read scenario file")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown field",
			yaml: "name: s\ndescription: d\nstep: []\n",
			want: "failed to parse YAML",
		},
		{
			name: "missing name",
			yaml: "description: d\nsteps:\n  - op: setenv\n    env: {A: b}\n",
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: "name: s\nsteps:\n  - op: setenv\n    env: {A: b}\n",
			want: "description is required",
		},
		{
			name: "no steps",
			yaml: "name: s\ndescription: d\n",
			want: "steps list is required",
		},
		{
			name: "unknown op",
			yaml: "name: s\ndescription: d\nsteps:\n  - op: explode\n",
			want: `unknown op "explode"`,
		},
		{
			name: "setenv without env",
			yaml: "name: s\ndescription: d\nsteps:\n  - op: setenv\n",
			want: "env is required for setenv",
		},
		{
			name: "config and file",
			yaml: "name: s\ndescription: d\nsteps:\n  - op: add_checkpoint\n    config: x\n    file: y\n",
			want: "exactly one of config or file",
		},
		{
			name: "run without name",
			yaml: "name: s\ndescription: d\nsteps:\n  - op: run_checkpoint\n",
			want: "name is required for run_checkpoint",
		},
		{
			name: "file escaping the project",
			yaml: "name: s\ndescription: d\nfiles:\n  ../x.csv: a\nsteps:\n  - op: setenv\n    env: {A: b}\n",
			want: "must be a relative path inside the project",
		},
		{
			name: "result_shape without expect",
			yaml: "name: s\ndescription: d\nsteps:\n  - op: setenv\n    env: {A: b}\nassertions:\n  - type: result_shape\n    run: r\n",
			want: "expect is required for result_shape",
		},
		{
			name: "actions_equal with one dry run",
			yaml: "name: s\ndescription: d\nsteps:\n  - op: setenv\n    env: {A: b}\nassertions:\n  - type: actions_equal\n    dry_runs: [a]\n",
			want: "at least two dry_runs",
		},
		{
			name: "unknown assertion",
			yaml: "name: s\ndescription: d\nsteps:\n  - op: setenv\n    env: {A: b}\nassertions:\n  - type: trace_contains\n",
			want: `unknown assertion type "trace_contains"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
