package domain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pmezard/go-difflib/difflib"

	"gcodepp.dev/pkg/gcodepp/internal/adapter"
	"gcodepp.dev/pkg/gcodepp/internal/controller"
	m "gcodepp.dev/pkg/gcodepp/internal/model"
	"gcodepp.dev/pkg/gcodepp/pkg"
)

// ErrWatchDisabled is returned by Watch on a session created without watch mode.
var ErrWatchDisabled = errors.New("watch mode is not enabled")

// SessionArgs configures a Postprocessor.
type SessionArgs struct {
	Source     m.Path
	OutputStem string // "" derives the stem from Source
	Watch      bool
	Interval   time.Duration
	OnError    WatchErrorPolicy
	Notifier   adapter.ChangeNotifier
	Ticker     TickerFactory
}

// Postprocessor compiles one G-code source with rule sets and, in watch
// mode, recompiles every rule seen so far when the source changes.
type Postprocessor interface {
	Compile(ctx context.Context, ruleID string) (m.CompileReport, error)
	Preview(ctx context.Context, ruleID string) (string, error)
	Watch(ctx context.Context) error
	Stop()
	RuleIDs() []string
}

type session struct {
	adapter.SourceFSAdapter
	adapter.RulesStore
	controller.UI

	// mu serializes compiles: a watch retrigger and a caller may compile the
	// same rule id at once.
	mu sync.Mutex

	args    SessionArgs
	ruleIDs pkg.OrderedSet[string]
	watcher *Watcher
	now     func() time.Time
}

// NewSession creates a Postprocessor for args.Source.
func NewSession(
	fsAdapter adapter.SourceFSAdapter,
	rulesStore adapter.RulesStore,
	ui controller.UI,
	args SessionArgs,
) Postprocessor {
	s := &session{
		SourceFSAdapter: fsAdapter,
		RulesStore:      rulesStore,
		UI:              ui,
		args:            args,
		ruleIDs:         pkg.NewOrderedSet[string](),
		now:             time.Now,
	}

	if args.Watch {
		options := []WatcherOption{WithInterval(args.Interval), WithErrorPolicy(args.OnError)}
		if args.Notifier != nil {
			options = append(options, WithChangeNotifier(args.Notifier))
		}

		if args.Ticker != nil {
			options = append(options, WithTickerFactory(args.Ticker))
		}

		s.watcher = NewWatcher(fsAdapter, args.Source, s.ruleIDs, s.recompile, options...)
	}

	return s
}

// Compile rewrites the source with the rules of ruleID into
// "<stem>[<ruleID>].gcode". In watch mode ruleID is remembered for retriggers,
// even when this compile fails.
func (s *session) Compile(ctx context.Context, ruleID string) (m.CompileReport, error) {
	if err := ctx.Err(); err != nil {
		return m.CompileReport{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	started := s.now()
	s.DisplayCompile(ctx, s.args.Source, ruleID, started)

	if s.watcher != nil {
		s.ruleIDs.Add(ruleID)
	}

	report, err := s.compile(ruleID)
	report.Duration = s.now().Sub(started)

	if err != nil {
		slog.Error("Compile failed", "runID", report.RunID, "source", s.args.Source, "ruleID", ruleID, "error", err)
		s.DisplayError(ctx, ruleID, err)

		return report, fmt.Errorf("compile %q: %w", ruleID, err)
	}

	slog.Info("Compiled",
		"runID", report.RunID,
		"source", report.Source,
		"ruleID", ruleID,
		"output", report.Output,
		"lines", report.Lines,
		"insertions", report.Insertions,
		"duration", report.Duration,
	)
	s.DisplayCompiled(ctx, report)

	return report, nil
}

func (s *session) recompile(ctx context.Context, ruleID string) error {
	_, err := s.Compile(ctx, ruleID)
	return err
}

func (s *session) compile(ruleID string) (report m.CompileReport, err error) {
	report = m.CompileReport{
		RunID:  uuid.NewString(),
		RuleID: ruleID,
		Source: s.args.Source,
	}

	slog.Debug("Compile started", "runID", report.RunID, "source", s.args.Source, "ruleID", ruleID)

	source, set, err := s.openValidated(ruleID)
	if err != nil {
		return report, err
	}

	defer s.closeSource(source)

	report.Output = m.OutputPath(s.args.Source, s.args.OutputStem, ruleID)

	out, err := s.Create(report.Output)
	if err != nil {
		return report, fmt.Errorf("create output %s: %w", report.Output, err)
	}

	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close output %s: %w", report.Output, closeErr)
		}
	}()

	stats, err := Inject(out, source.Lines(), set.Rules)
	report.Lines = stats.Lines
	report.Insertions = stats.Insertions

	if err != nil {
		return report, fmt.Errorf("write output %s: %w", report.Output, err)
	}

	return report, nil
}

// openValidated opens the source, then loads and validates the rule set. The
// source is closed on every failure.
func (s *session) openValidated(ruleID string) (*SourceCode, m.RuleSet, error) {
	source, err := OpenSource(s.SourceFSAdapter, s.args.Source)
	if err != nil {
		return nil, m.RuleSet{}, err
	}

	set, err := s.Load(ruleID)
	if err != nil {
		s.closeSource(source)
		return nil, m.RuleSet{}, err
	}

	if err := ValidateRules(set.Rules, source.LayerCount()); err != nil {
		s.closeSource(source)
		return nil, m.RuleSet{}, fmt.Errorf("%s: %w", set.Filename, err)
	}

	return source, set, nil
}

func (s *session) closeSource(source *SourceCode) {
	if err := source.Close(); err != nil {
		slog.Warn("Failed to close source", "path", source.Path(), "error", err)
	}
}

// Preview runs the injector in memory and returns a unified diff against the
// source. Nothing is written.
func (s *session) Preview(ctx context.Context, ruleID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	source, set, err := s.openValidated(ruleID)
	if err != nil {
		return "", err
	}

	defer s.closeSource(source)

	var rendered bytes.Buffer
	if _, err := Inject(&rendered, source.Lines(), set.Rules); err != nil {
		return "", err
	}

	original, err := s.ReadFile(s.args.Source)
	if err != nil {
		return "", fmt.Errorf("read source %s: %w", s.args.Source, err)
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(original)),
		B:        difflib.SplitLines(rendered.String()),
		FromFile: string(s.args.Source),
		ToFile:   string(m.OutputPath(s.args.Source, s.args.OutputStem, ruleID)),
		Context:  3,
	})
	if err != nil {
		return "", fmt.Errorf("diff: %w", err)
	}

	return diff, nil
}

// Watch blocks, recompiling on source changes until ctx is done or Stop is called.
func (s *session) Watch(ctx context.Context) error {
	if s.watcher == nil {
		return ErrWatchDisabled
	}

	if err := s.Start(ctx, s.watcher.Stop); err != nil {
		return fmt.Errorf("start display: %w", err)
	}

	defer s.Close(ctx)

	s.DisplayWatching(ctx, s.args.Source, s.watcher.interval)

	return s.watcher.Run(ctx)
}

// Stop ends a running Watch.
func (s *session) Stop() {
	if s.watcher != nil {
		s.watcher.Stop()
	}
}

// RuleIDs returns the rule identifiers remembered for watch retriggers.
func (s *session) RuleIDs() []string {
	return s.ruleIDs.Values()
}
