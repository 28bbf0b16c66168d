package cmd

import (
	"github.com/spf13/cobra"

	m "gcodepp.dev/pkg/gcodepp/internal/model"
)

// previewCmd represents the preview command.
var previewCmd = newPreviewCmd()

func newPreviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview <source-file> <rule-id>",
		Short: "Show the changes a rule would make as a unified diff",
		Long: `Apply a rule in memory and print a unified diff between the source and the
result. No output file is written.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionArgs, err := sessionArgsFromConfig(m.Path(args[0]))
			if err != nil {
				return err
			}

			sessionArgs.Watch = false
			sessionArgs.Notifier = nil

			diff, err := newSession(cmd, sessionArgs).Preview(cmd.Context(), args[1])
			if err != nil {
				return err
			}

			return newCommandUI(cmd, false).DisplayPreview(cmd.Context(), diff)
		},
	}
}

func init() {
	rootCmd.AddCommand(previewCmd)
}
