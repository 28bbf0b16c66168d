// Package adapter contains filesystem and console adapters for the gcodepp CLI.
package adapter

import (
	"io"
	"os"
	"path/filepath"
	"time"

	m "gcodepp.dev/pkg/gcodepp/internal/model"
)

// SourceFSAdapter abstracts the filesystem operations the domain layer relies
// on. It hides direct `os` access so compile and watch logic can be tested
// against fakes.
type SourceFSAdapter interface {
	// Open opens a file for reading. The handle must support rewinding.
	Open(path m.Path) (io.ReadSeekCloser, error)

	// Create creates or truncates a file for writing.
	Create(path m.Path) (io.WriteCloser, error)

	// ReadFile loads a file from disk and returns its contents.
	ReadFile(path m.Path) ([]byte, error)

	// ModTime returns the last modification time of a file.
	ModTime(path m.Path) (time.Time, error)

	// JoinPath joins path elements into a single path.
	JoinPath(elem ...string) m.Path
}

// LocalSourceFSAdapter implements SourceFSAdapter on the local disk.
type LocalSourceFSAdapter struct{}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter instance ready to
// be wired into the session.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{}
}

// Open opens path for reading.
func (a *LocalSourceFSAdapter) Open(path m.Path) (io.ReadSeekCloser, error) {
	// #nosec G304 - the source path is chosen by the user on purpose
	return os.Open(string(path))
}

// Create creates or truncates path. Missing parent directories are created.
func (a *LocalSourceFSAdapter) Create(path m.Path) (io.WriteCloser, error) {
	if dir := filepath.Dir(string(path)); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, err
		}
	}

	// #nosec G304 - the output path is derived from user input on purpose
	return os.Create(string(path))
}

// ReadFile loads file contents from disk.
func (a *LocalSourceFSAdapter) ReadFile(path m.Path) ([]byte, error) {
	return os.ReadFile(string(path))
}

// ModTime returns the modification time reported by os.Stat.
func (a *LocalSourceFSAdapter) ModTime(path m.Path) (time.Time, error) {
	info, err := os.Stat(string(path))
	if err != nil {
		return time.Time{}, err
	}

	return info.ModTime(), nil
}

// JoinPath joins path elements into a single path.
func (a *LocalSourceFSAdapter) JoinPath(elem ...string) m.Path {
	return m.Path(filepath.Join(elem...))
}
