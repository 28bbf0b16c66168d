package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"gcodepp.dev/pkg/gcodepp/internal/adapter"
)

func newInitTestCmd() *cobra.Command {
	cmd := newRootCmd()
	cmd.AddCommand(newInitCmd())

	return cmd
}

func TestInitCmd_WritesConfigFile(t *testing.T) {
	tempDir := chdirTemp(t)

	out, _, err := executeCmd(t, newInitTestCmd(), "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+configFileName)

	contents, err := os.ReadFile(filepath.Join(tempDir, configFileName))
	require.NoError(t, err)

	var config struct {
		Watch struct {
			Interval string `yaml:"interval"`
			OnError  string `yaml:"on_error"`
		} `yaml:"watch"`
		Rules struct {
			Dir string `yaml:"dir"`
		} `yaml:"rules"`
	}
	require.NoError(t, yaml.Unmarshal(contents, &config))

	assert.Equal(t, "1s", config.Watch.Interval)
	assert.Equal(t, "continue", config.Watch.OnError)
	assert.Equal(t, ".", config.Rules.Dir)
}

func TestInitCmd_WritesExampleRules(t *testing.T) {
	tempDir := chdirTemp(t)

	out, _, err := executeCmd(t, newInitTestCmd(), "init")
	require.NoError(t, err)
	assert.Contains(t, out, "rules[example].yml")

	data, err := os.ReadFile(filepath.Join(tempDir, adapter.RulesFilename(exampleRuleID)))
	require.NoError(t, err)

	rules, err := adapter.ParseRulesYAML(data)
	require.NoError(t, err)
	assert.Equal(t, exampleRules, rules)
}

func TestInitCmd_KeepsExistingRules(t *testing.T) {
	tempDir := chdirTemp(t)

	rulesPath := filepath.Join(tempDir, adapter.RulesFilename(exampleRuleID))
	require.NoError(t, os.WriteFile(rulesPath, []byte("- layer: 9\n  code: MINE\n"), 0o600))

	out, _, err := executeCmd(t, newInitTestCmd(), "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Kept existing")

	data, err := os.ReadFile(rulesPath)
	require.NoError(t, err)
	assert.Equal(t, "- layer: 9\n  code: MINE\n", string(data))
}

func TestInitCmd_NoExample(t *testing.T) {
	tempDir := chdirTemp(t)

	_, _, err := executeCmd(t, newInitTestCmd(), "init", "--no-example")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(tempDir, configFileName))
	assert.NoFileExists(t, filepath.Join(tempDir, adapter.RulesFilename(exampleRuleID)))
}

func TestInitCmd_ErrorsWhenFileExists(t *testing.T) {
	tempDir := chdirTemp(t)

	targetPath := filepath.Join(tempDir, configFileName)
	require.NoError(t, os.WriteFile(targetPath, []byte("existing: true\n"), 0o600))

	_, _, err := executeCmd(t, newInitTestCmd(), "init")
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(tempDir, adapter.RulesFilename(exampleRuleID)))
}
