package cmd

import (
	"os"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "gcodepp.dev/pkg/gcodepp/internal/model"
)

func newRulesTestCmd() *cobra.Command {
	cmd := newRootCmd()
	cmd.AddCommand(newRulesCmd())

	return cmd
}

func TestRulesCmd_ListsRules(t *testing.T) {
	chdirTemp(t)
	t.Cleanup(func() { rulesSourceFlag = "" })

	require.NoError(t, os.WriteFile("rules[pause].yml", []byte("- layer: 3\n  code: M600\n- layer: 7\n  code: |\n    G1 Z10\n    M0\n"), 0o600))

	out, _, err := executeCmd(t, newRulesTestCmd(), "rules", "pause")
	require.NoError(t, err)

	assert.Contains(t, out, "M600")
	assert.Contains(t, out, "2 RULES")
}

func TestRulesCmd_ChecksAgainstSource(t *testing.T) {
	chdirTemp(t)
	t.Cleanup(func() { rulesSourceFlag = "" })

	require.NoError(t, os.WriteFile("part.gcode", []byte(";LAYER_COUNT:5\n;LAYER:0\n"), 0o600))
	require.NoError(t, os.WriteFile("rules[ok].yml", []byte("- layer: 4\n  code: M600\n"), 0o600))
	require.NoError(t, os.WriteFile("rules[far].yml", []byte("- layer: 5\n  code: M600\n"), 0o600))

	out, _, err := executeCmd(t, newRulesTestCmd(), "rules", "ok", "--source", "part.gcode")
	require.NoError(t, err)
	assert.Contains(t, out, "1 rule(s) fit part.gcode")

	_, errOut, err := executeCmd(t, newRulesTestCmd(), "rules", "far", "-s", "part.gcode")
	require.ErrorIs(t, err, m.ErrLayerOutOfRange)
	assert.Contains(t, errOut, "out of range for 5 layers")
}

func TestRulesCmd_MissingFile(t *testing.T) {
	chdirTemp(t)
	t.Cleanup(func() { rulesSourceFlag = "" })

	_, errOut, err := executeCmd(t, newRulesTestCmd(), "rules", "nope")
	require.ErrorIs(t, err, m.ErrRulesNotFound)
	assert.Contains(t, errOut, "rules[nope].yml")
}

func TestRulesCmd_RulesDirFlag(t *testing.T) {
	chdirTemp(t)
	t.Cleanup(func() { rulesSourceFlag = "" })

	require.NoError(t, os.Mkdir("profiles", 0o750))
	require.NoError(t, os.WriteFile("profiles/rules[fan].yml", []byte("- layer: 1\n  code: M106 S255\n"), 0o600))

	out, _, err := executeCmd(t, newRulesTestCmd(), "rules", "fan", "--rules-dir", "profiles")
	require.NoError(t, err)
	assert.Contains(t, out, "M106 S255")
}
