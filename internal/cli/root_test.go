package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "gx", cmd.Use)
	assert.Contains(t, cmd.Long, "checkpoints")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"datasource", "add"},
		{"datasource", "list"},
		{"suite", "create"},
		{"suite", "add"},
		{"suite", "list"},
		{"checkpoint", "test"},
		{"checkpoint", "add"},
		{"checkpoint", "list"},
		{"checkpoint", "run"},
		{"checkpoint", "runs"},
		{"checkpoint", "delete"},
		{"scenario"},
	}

	for _, path := range commands {
		name := path[len(path)-1]
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	projectFlag := cmd.PersistentFlags().Lookup("project")
	require.NotNil(t, projectFlag)
	assert.Equal(t, ".", projectFlag.DefValue)
}

func TestCheckpointRunFlags(t *testing.T) {
	cmd := NewRootCommand()
	runCmd, _, err := cmd.Find([]string{"checkpoint", "run"})
	require.NoError(t, err)

	require.NotNil(t, runCmd.Flags().Lookup("run-name"))
	require.NotNil(t, runCmd.Flags().Lookup("overrides"))

	addCmd, _, err := cmd.Find([]string{"checkpoint", "add"})
	require.NoError(t, err)
	require.NotNil(t, addCmd.Flags().Lookup("replace"))
}

func TestScenarioFlags(t *testing.T) {
	cmd := NewRootCommand()
	scenarioCmd, _, err := cmd.Find([]string{"scenario"})
	require.NoError(t, err)

	for _, name := range []string{"update", "filter", "keep"} {
		assert.NotNil(t, scenarioCmd.Flags().Lookup(name), name)
	}
}

func TestInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "xml", "suite", "list"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}
