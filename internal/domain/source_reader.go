// Package domain implements layer injection and source watching for gcodepp.
package domain

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"log/slog"
	"strconv"
	"strings"

	"gcodepp.dev/pkg/gcodepp/internal/adapter"
	m "gcodepp.dev/pkg/gcodepp/internal/model"
)

// SourceCode is an opened G-code source. Opening scans the whole file once for
// the ;LAYER_COUNT: marker and rewinds, so Lines can stream it a second time.
type SourceCode struct {
	path       m.Path
	file       io.ReadSeekCloser
	layerCount m.LayerCount
	consumed   bool
}

// OpenSource opens path and reads its declared layer count. The caller must
// Close the returned SourceCode.
func OpenSource(fsAdapter adapter.SourceFSAdapter, path m.Path) (*SourceCode, error) {
	file, err := fsAdapter.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &m.SourceNotFoundError{Path: path}
		}

		return nil, fmt.Errorf("open source %s: %w", path, err)
	}

	source := &SourceCode{path: path, file: file}

	if err := source.scan(); err != nil {
		_ = file.Close()
		return nil, err
	}

	slog.Debug("Scanned source", "path", path, "layerCount", source.layerCount.String())

	return source, nil
}

// scan reads every line; the last ;LAYER_COUNT: marker wins.
func (s *SourceCode) scan() error {
	reader := bufio.NewReader(s.file)

	for {
		line, err := reader.ReadString('\n')
		if n, ok := parseLayerCount(line); ok {
			s.layerCount = m.NewLayerCount(n)
		}

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return fmt.Errorf("scan source %s: %w", s.path, err)
		}
	}

	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind source %s: %w", s.path, err)
	}

	return nil
}

func parseLayerCount(line string) (int, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), m.LayerCountPrefix)
	if !ok {
		return 0, false
	}

	n, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		return 0, false
	}

	return n, true
}

// Path returns the source path.
func (s *SourceCode) Path() m.Path {
	return s.path
}

// LayerCount returns the declared layer count, unset when the marker is absent.
func (s *SourceCode) LayerCount() m.LayerCount {
	return s.layerCount
}

// Lines streams the source line by line, each line keeping its "\n"
// terminator (the last line may have none). CRLF endings are read as "\n".
// The sequence can be iterated once; later iterations yield ErrSourceConsumed.
func (s *SourceCode) Lines() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if s.consumed {
			yield("", m.ErrSourceConsumed)
			return
		}

		s.consumed = true
		reader := bufio.NewReader(s.file)

		for {
			line, err := reader.ReadString('\n')
			if line != "" {
				if !yield(normalizeLineEnding(line), nil) {
					return
				}
			}

			if errors.Is(err, io.EOF) {
				return
			}

			if err != nil {
				yield("", fmt.Errorf("read source %s: %w", s.path, err))
				return
			}
		}
	}
}

func normalizeLineEnding(line string) string {
	if trimmed, ok := strings.CutSuffix(line, "\r\n"); ok {
		return trimmed + "\n"
	}

	return line
}

// Close releases the file handle.
func (s *SourceCode) Close() error {
	return s.file.Close()
}
