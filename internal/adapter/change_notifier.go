package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	m "gcodepp.dev/pkg/gcodepp/internal/model"
)

// ChangeNotifier emits a signal whenever a file may have changed. Signals are
// hints: receivers still compare modification times.
type ChangeNotifier interface {
	Notify(ctx context.Context, path m.Path) (<-chan struct{}, error)
}

// NopChangeNotifier never signals.
type NopChangeNotifier struct{}

// Notify returns a nil channel, which blocks forever in a select.
func (NopChangeNotifier) Notify(_ context.Context, _ m.Path) (<-chan struct{}, error) {
	return nil, nil
}

// FSNotifyChangeNotifier signals on fsnotify events for a single file.
//
// The parent directory is watched rather than the file itself because slicers
// usually replace the file, which drops a watch placed on the old inode.
type FSNotifyChangeNotifier struct{}

// NewFSNotifyChangeNotifier constructs an FSNotifyChangeNotifier.
func NewFSNotifyChangeNotifier() *FSNotifyChangeNotifier {
	return &FSNotifyChangeNotifier{}
}

// Notify starts watching path until ctx is done.
func (n *FSNotifyChangeNotifier) Notify(ctx context.Context, path m.Path) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	target := filepath.Clean(string(path))

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	signals := make(chan struct{}, 1)

	go func() {
		defer close(signals)
		defer func() {
			if err := watcher.Close(); err != nil {
				slog.Warn("Failed to close fsnotify watcher", "path", target, "error", err)
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				if filepath.Clean(event.Name) != target || !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
					continue
				}

				slog.Debug("Source change event", "path", target, "op", event.Op.String())

				select {
				case signals <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}

				slog.Warn("fsnotify error", "path", target, "error", err)
			}
		}
	}()

	return signals, nil
}
