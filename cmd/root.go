// Package cmd provides the root command and CLI setup for gcodepp.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"gcodepp.dev/pkg/gcodepp/internal/adapter"
	"gcodepp.dev/pkg/gcodepp/internal/controller"
	"gcodepp.dev/pkg/gcodepp/internal/domain"
	m "gcodepp.dev/pkg/gcodepp/internal/model"
)

var fsAdapter adapter.SourceFSAdapter

// newSession builds the Postprocessor for a command; tests replace it.
var newSession = func(cmd *cobra.Command, args domain.SessionArgs) domain.Postprocessor {
	return domain.NewSession(fsAdapter, newRulesStore(), newCommandUI(cmd, args.Watch), args)
}

var (
	watchFlag    bool
	intervalFlag string
	onErrorFlag  string
	notifyFlag   bool
	rulesDirFlag string
	outputFlag   string
	logFlag      string
	verboseFlag  bool
)

func init() {
	configureRootFlags(rootCmd)

	fsAdapter = adapter.NewLocalSourceFSAdapter()
}

const rulesFileHelp = `Rules are read from "rules[<rule-id>].yml", a YAML list of mappings:

  - layer: 10
    code: M600

Each code block is inserted right after the ";LAYER:<layer>" line.`

const rootLongDescription = `gcodepp post-processes G-code: for every rule id it copies the source file
to "<source-stem>[<rule-id>].gcode", inserting the rule's code blocks after
the matching layer markers.

With --watch it keeps running and re-applies every rule whenever the source
file's modification time advances.

` + rulesFileHelp

// rootCmd represents the base command.
var rootCmd = baseRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "gcodepp <source-file> <rule-id> [rule-id...]",
		Short:        "Insert per-layer G-code snippets",
		Long:         rootLongDescription,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(viper.GetString(logFilenameKey), viper.GetBool(logVerboseKey))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}

			if len(args) < 2 {
				return fmt.Errorf("requires a source file and at least one rule id")
			}

			sessionArgs, err := sessionArgsFromConfig(m.Path(args[0]))
			if err != nil {
				return err
			}

			session := newSession(cmd, sessionArgs)

			return runPostprocess(cmd.Context(), session, args[1:], sessionArgs.Watch)
		},
	}
}

// newRootCmd builds a root command with its flags, without subcommands.
func newRootCmd() *cobra.Command {
	cmd := baseRootCmd()
	configureRootFlags(cmd)

	return cmd
}

// configureRootFlags registers the root flags on cmd and rebinds their config keys to them.
func configureRootFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&watchFlag, watchFlagName, "w", defaultWatch, "reapply rules when the source file changes")
	bindFlagToConfig(cmd.Flags().Lookup(watchFlagName), watchConfigKey)

	cmd.Flags().StringVar(&intervalFlag, intervalFlagName, defaultInterval.String(), "poll interval in watch mode (e.g. 500ms, 2s)")
	bindFlagToConfig(cmd.Flags().Lookup(intervalFlagName), intervalConfigKey)

	cmd.Flags().StringVar(&onErrorFlag, onErrorFlagName, defaultOnError, `what a failing rule does in watch mode: "continue" or "stop"`)
	bindFlagToConfig(cmd.Flags().Lookup(onErrorFlagName), onErrorConfigKey)

	cmd.Flags().BoolVar(&notifyFlag, notifyFlagName, defaultNotify, "also react to filesystem events between polls")
	bindFlagToConfig(cmd.Flags().Lookup(notifyFlagName), notifyConfigKey)

	cmd.PersistentFlags().StringVarP(&rulesDirFlag, rulesDirFlagName, "r", defaultRulesDir, "directory holding rules[<rule-id>].yml files")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(rulesDirFlagName), rulesDirConfigKey)

	cmd.PersistentFlags().StringVarP(&outputFlag, outputFlagName, "o", defaultOutput, "output stem (default: source path without extension)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(outputFlagName), outputConfigKey)

	cmd.PersistentFlags().StringVar(&logFlag, logFlagName, defaultLogFilename, "log file path")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(logFlagName), logFilenameKey)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", defaultLogVerbose, "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

func sessionArgsFromConfig(source m.Path) (domain.SessionArgs, error) {
	policy, err := domain.ParseWatchErrorPolicy(viper.GetString(onErrorConfigKey))
	if err != nil {
		return domain.SessionArgs{}, err
	}

	args := domain.SessionArgs{
		Source:     source,
		OutputStem: viper.GetString(outputConfigKey),
		Watch:      viper.GetBool(watchConfigKey),
		Interval:   watchInterval(),
		OnError:    policy,
	}

	if args.Watch && viper.GetBool(notifyConfigKey) {
		args.Notifier = adapter.NewFSNotifyChangeNotifier()
	}

	return args, nil
}

func newRulesStore() adapter.RulesStore {
	return adapter.NewYAMLRulesStore(fsAdapter, viper.GetString(rulesDirConfigKey))
}

func newCommandUI(cmd *cobra.Command, watch bool) controller.UI {
	out, _ := cmd.OutOrStdout().(*os.File)
	return controller.NewUI(cmd, controller.IsTTY(out), watch)
}

// runPostprocess compiles every rule id once. In watch mode the watcher runs
// alongside and keeps going after the initial pass until ctx is done.
func runPostprocess(ctx context.Context, session domain.Postprocessor, ruleIDs []string, watch bool) error {
	if !watch {
		return compileAll(ctx, session, ruleIDs)
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return session.Watch(groupCtx)
	})

	group.Go(func() error {
		if err := compileAll(groupCtx, session, ruleIDs); err != nil {
			slog.Warn("Initial compile failed, watching continues", "error", err)
		}

		return nil
	})

	return group.Wait()
}

func compileAll(ctx context.Context, session domain.Postprocessor, ruleIDs []string) error {
	var errs []error

	for _, ruleID := range ruleIDs {
		if _, err := session.Compile(ctx, ruleID); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) == 0 {
		return nil
	}

	return &rulesFailedError{failed: len(errs), total: len(ruleIDs), errs: errs}
}

// rulesFailedError summarizes per-rule failures that were already displayed.
type rulesFailedError struct {
	failed int
	total  int
	errs   []error
}

func (e *rulesFailedError) Error() string {
	return fmt.Sprintf("%d of %d rule(s) failed", e.failed, e.total)
}

func (e *rulesFailedError) Unwrap() []error {
	return e.errs
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		os.Exit(1)
	}
}
