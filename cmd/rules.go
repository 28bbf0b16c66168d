package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"gcodepp.dev/pkg/gcodepp/internal/domain"
	m "gcodepp.dev/pkg/gcodepp/internal/model"
)

const rulesLongDescription = `List the rules of one or more rule ids as a table.

With --source the rules are also checked against the layer count the source
declares with ";LAYER_COUNT:<N>".

` + rulesFileHelp

var rulesSourceFlag string

// rulesCmd represents the rules command.
var rulesCmd = newRulesCmd()

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules <rule-id> [rule-id...]",
		Short: "List and check rule files",
		Long:  rulesLongDescription,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := newRulesStore()
			ui := newCommandUI(cmd, false)

			var errs []error

			for _, ruleID := range args {
				set, err := store.Load(ruleID)
				if err != nil {
					ui.DisplayError(cmd.Context(), ruleID, err)
					errs = append(errs, err)

					continue
				}

				if err := ui.DisplayRules(cmd.Context(), set); err != nil {
					return err
				}

				if rulesSourceFlag == "" {
					continue
				}

				if err := checkRules(m.Path(rulesSourceFlag), set); err != nil {
					ui.DisplayError(cmd.Context(), ruleID, err)
					errs = append(errs, err)

					continue
				}

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d rule(s) fit %s\n", len(set.Rules), rulesSourceFlag)
			}

			if len(errs) > 0 {
				return &rulesFailedError{failed: len(errs), total: len(args), errs: errs}
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&rulesSourceFlag, sourceFlagName, "s", "", "G-code source to validate the rules against")

	return cmd
}

func checkRules(source m.Path, set m.RuleSet) error {
	code, err := domain.OpenSource(fsAdapter, source)
	if err != nil {
		return err
	}

	defer func() { _ = code.Close() }()

	if err := domain.ValidateRules(set.Rules, code.LayerCount()); err != nil {
		return fmt.Errorf("%s: %w", set.Filename, err)
	}

	return nil
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}
