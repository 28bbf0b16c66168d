package adapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	m "gcodepp.dev/pkg/gcodepp/internal/model"
)

func TestNopChangeNotifier(t *testing.T) {
	ch, err := NopChangeNotifier{}.Notify(context.Background(), "part.gcode")
	require.NoError(t, err)
	require.Nil(t, ch)
}

func TestFSNotifyChangeNotifier_Notify(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "part.gcode")
	writeTestFile(t, path, "G28\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := NewFSNotifyChangeNotifier().Notify(ctx, m.Path(path))
	require.NoError(t, err)

	// A sibling file must not signal.
	writeTestFile(t, filepath.Join(dir, "other.gcode"), "G28\n")

	select {
	case <-ch:
		t.Fatal("unexpected signal for another file")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(path, []byte("G28\nG1 X1\n"), 0o644))

	select {
	case _, ok := <-ch:
		require.True(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("no signal after writing the watched file")
	}

	cancel()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 5*time.Millisecond)
}

func TestFSNotifyChangeNotifier_MissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "part.gcode")

	_, err := NewFSNotifyChangeNotifier().Notify(context.Background(), m.Path(path))
	require.Error(t, err)
}
