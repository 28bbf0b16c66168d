package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gcodepp.dev/pkg/gcodepp/internal/adapter"
	m "gcodepp.dev/pkg/gcodepp/internal/model"
	"gcodepp.dev/pkg/gcodepp/pkg"
)

// DefaultWatchInterval is the default delay between modification-time checks.
const DefaultWatchInterval = time.Second

// errWatchInterrupted ends a recompile pass early on a stop request.
var errWatchInterrupted = errors.New("watch interrupted")

// WatchErrorPolicy decides what a failing recompile does to the watcher.
type WatchErrorPolicy string

// Available WatchErrorPolicy values.
const (
	// WatchContinue logs the failure and keeps watching the other rules.
	WatchContinue WatchErrorPolicy = "continue"
	// WatchStop ends the watcher with the failure.
	WatchStop WatchErrorPolicy = "stop"
)

// ParseWatchErrorPolicy parses a policy name; "" means WatchContinue.
func ParseWatchErrorPolicy(value string) (WatchErrorPolicy, error) {
	switch policy := WatchErrorPolicy(strings.ToLower(strings.TrimSpace(value))); policy {
	case "", WatchContinue:
		return WatchContinue, nil
	case WatchStop:
		return WatchStop, nil
	default:
		return "", fmt.Errorf("unknown watch error policy %q (want %q or %q)", value, WatchContinue, WatchStop)
	}
}

// CompileFunc recompiles the source with one rule identifier.
type CompileFunc func(ctx context.Context, ruleID string) error

// Ticker is the subset of time.Ticker the watcher uses.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates a Ticker firing every d.
type TickerFactory func(d time.Duration) Ticker

type timeTicker struct {
	*time.Ticker
}

func (t timeTicker) C() <-chan time.Time {
	return t.Ticker.C
}

// NewTimeTicker wraps time.NewTicker.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{Ticker: time.NewTicker(d)}
}

// Watcher polls the source modification time and recompiles every known rule
// identifier when it advances. The first observation only sets the baseline.
type Watcher struct {
	fs       adapter.SourceFSAdapter
	notifier adapter.ChangeNotifier
	path     m.Path
	ruleIDs  pkg.OrderedSet[string]
	compile  CompileFunc

	interval  time.Duration
	policy    WatchErrorPolicy
	newTicker TickerFactory

	stopOnce sync.Once
	stopped  chan struct{}

	baseline    time.Time
	hasBaseline bool
}

// WatcherOption is a functional option for NewWatcher.
type WatcherOption func(*Watcher)

// WithInterval sets the poll interval.
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithErrorPolicy sets what a failing recompile does.
func WithErrorPolicy(policy WatchErrorPolicy) WatcherOption {
	return func(w *Watcher) {
		w.policy = policy
	}
}

// WithTickerFactory replaces the ticker, mostly for tests.
func WithTickerFactory(factory TickerFactory) WatcherOption {
	return func(w *Watcher) {
		w.newTicker = factory
	}
}

// WithChangeNotifier wakes the watcher on file events between ticks.
func WithChangeNotifier(notifier adapter.ChangeNotifier) WatcherOption {
	return func(w *Watcher) {
		w.notifier = notifier
	}
}

// NewWatcher constructs a Watcher for path. ruleIDs is read on every trigger,
// so identifiers added after Run started are picked up.
func NewWatcher(
	fsAdapter adapter.SourceFSAdapter,
	path m.Path,
	ruleIDs pkg.OrderedSet[string],
	compile CompileFunc,
	options ...WatcherOption,
) *Watcher {
	w := &Watcher{
		fs:        fsAdapter,
		notifier:  adapter.NopChangeNotifier{},
		path:      path,
		ruleIDs:   ruleIDs,
		compile:   compile,
		interval:  DefaultWatchInterval,
		policy:    WatchContinue,
		newTicker: NewTimeTicker,
		stopped:   make(chan struct{}),
	}

	for _, option := range options {
		option(w)
	}

	return w
}

// Run polls until ctx is done or Stop is called. It returns nil on a stop
// request and the recompile error when the policy is WatchStop.
func (w *Watcher) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, err := w.notifier.Notify(ctx, w.path)
	if err != nil {
		slog.Warn("Change notifications unavailable, polling only", "path", w.path, "error", err)

		events = nil
	}

	ticker := w.newTicker(w.interval)
	defer ticker.Stop()

	slog.Info("Watching source", "path", w.path, "interval", w.interval, "policy", w.policy)

	for {
		if w.isStopped(ctx) {
			slog.Info("Stopped watching source", "path", w.path)
			return nil
		}

		if err := w.poll(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
		case <-w.stopped:
		case <-ticker.C():
		case _, ok := <-events:
			if !ok {
				events = nil
			}
		}
	}
}

// Stop requests the loop to exit. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopped)
	})
}

func (w *Watcher) isStopped(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}

	select {
	case <-w.stopped:
		return true
	default:
		return false
	}
}

func (w *Watcher) poll(ctx context.Context) error {
	modTime, err := w.fs.ModTime(w.path)
	if err != nil {
		slog.Warn("Failed to stat source", "path", w.path, "error", err)
		return nil
	}

	if !w.hasBaseline {
		w.baseline = modTime
		w.hasBaseline = true

		return nil
	}

	if !modTime.After(w.baseline) {
		return nil
	}

	slog.Info("Source changed", "path", w.path, "previous", w.baseline, "current", modTime)

	err = w.ruleIDs.Range(func(_ int, ruleID string) error {
		if w.isStopped(ctx) {
			return errWatchInterrupted
		}

		if err := w.compile(ctx, ruleID); err != nil {
			if w.policy == WatchStop {
				return fmt.Errorf("recompile %q: %w", ruleID, err)
			}

			slog.Error("Recompile failed, continuing", "path", w.path, "ruleID", ruleID, "error", err)
		}

		return nil
	})
	if errors.Is(err, errWatchInterrupted) {
		return nil
	}

	if err != nil {
		return err
	}

	w.baseline = modTime

	return nil
}
