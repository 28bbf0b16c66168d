package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gcodepp.dev/pkg/gcodepp/internal/adapter"
	m "gcodepp.dev/pkg/gcodepp/internal/model"
)

const exampleRuleID = "example"

// exampleRules pauses for a filament swap at the start of layer 1.
var exampleRules = []m.Rule{
	{Layer: 1, Code: "M117 Swap filament\nM600"},
}

// initCmd represents the init command.
var initCmd = newInitCmd()

func newInitCmd() *cobra.Command {
	var skipExample bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate gcodepp.yaml and a sample rules file",
		Long: `Create a gcodepp.yaml in the current working directory populated with the
current watch, rules and logging defaults, and a sample "rules[example].yml" in
the rules directory. An existing config file is an error; an existing rules
file is left alone.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			targetPath := filepath.Join(configFolderPath, configFileName)

			if err := viper.SafeWriteConfigAs(targetPath); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", targetPath)

			if skipExample {
				return nil
			}

			return writeExampleRules(cmd, newRulesStore().Path(exampleRuleID))
		},
	}

	cmd.Flags().BoolVar(&skipExample, "no-example", false, "do not write "+adapter.RulesFilename(exampleRuleID))

	return cmd
}

func writeExampleRules(cmd *cobra.Command, path m.Path) error {
	if _, err := os.Stat(string(path)); err == nil {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Kept existing %s\n", path)
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("check %s: %w", path, err)
	}

	data, err := adapter.EncodeRulesYAML(exampleRules)
	if err != nil {
		return err
	}

	out, err := fsAdapter.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if _, err := out.Write(data); err != nil {
		_ = out.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (run: gcodepp <source-file> %s)\n", path, exampleRuleID)

	return nil
}

func init() {
	rootCmd.AddCommand(initCmd)
}
