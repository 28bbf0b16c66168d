package domain

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strings"

	m "gcodepp.dev/pkg/gcodepp/internal/model"
)

// InjectStats counts what Inject wrote.
type InjectStats struct {
	Lines      int
	Insertions int
}

// Inject copies lines to w and writes the code of every rule whose layer
// marker the line contains right after that line, in rule order.
//
// A marker ends with "\n" and a line holds a single "\n" at its end, so a
// matching line ends with the marker and "after the marker" is "after the line".
// Each rule is tested against the line together with the blocks inserted by
// earlier rules, so a block carrying a marker triggers later rules.
func Inject(w io.Writer, lines iter.Seq2[string, error], rules []m.Rule) (InjectStats, error) {
	var stats InjectStats

	markers := make([]string, len(rules))
	for i, rule := range rules {
		markers[i] = m.LayerMarker(rule.Layer)
	}

	out := bufio.NewWriter(w)

	var unit strings.Builder

	for line, err := range lines {
		if err != nil {
			return stats, err
		}

		stats.Lines++

		if _, err := out.WriteString(line); err != nil {
			return stats, fmt.Errorf("write line %d: %w", stats.Lines, err)
		}

		if !strings.Contains(line, m.LayerPrefix) {
			continue
		}

		unit.Reset()
		unit.WriteString(line)

		for i, rule := range rules {
			if !strings.Contains(unit.String(), markers[i]) {
				continue
			}

			block := rule.Code + "\n"
			unit.WriteString(block)

			if _, err := out.WriteString(block); err != nil {
				return stats, fmt.Errorf("write layer %d code: %w", rule.Layer, err)
			}

			stats.Insertions++
		}
	}

	if err := out.Flush(); err != nil {
		return stats, fmt.Errorf("flush output: %w", err)
	}

	return stats, nil
}
