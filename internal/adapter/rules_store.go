package adapter

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"gopkg.in/yaml.v3"

	m "gcodepp.dev/pkg/gcodepp/internal/model"
)

// RulesStore loads the rule set selected by a rule identifier.
type RulesStore interface {
	// Path returns the rules file that backs ruleID.
	Path(ruleID string) m.Path
	// Load reads and decodes the rules file for ruleID.
	Load(ruleID string) (m.RuleSet, error)
}

// RulesFilename returns the conventional rules filename for ruleID.
func RulesFilename(ruleID string) string {
	return "rules[" + ruleID + "].yml"
}

// YAMLRulesStore reads rules[<id>].yml files from a directory.
type YAMLRulesStore struct {
	dir string
	fs  SourceFSAdapter
}

// NewYAMLRulesStore constructs a store rooted at dir ("" means the working directory).
func NewYAMLRulesStore(fsAdapter SourceFSAdapter, dir string) *YAMLRulesStore {
	if dir == "" {
		dir = "."
	}

	return &YAMLRulesStore{dir: dir, fs: fsAdapter}
}

// Path implements RulesStore.
func (s *YAMLRulesStore) Path(ruleID string) m.Path {
	return s.fs.JoinPath(s.dir, RulesFilename(ruleID))
}

// Load implements RulesStore.
func (s *YAMLRulesStore) Load(ruleID string) (m.RuleSet, error) {
	path := s.Path(ruleID)

	data, err := s.fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return m.RuleSet{}, &m.RulesNotFoundError{RuleID: ruleID, Filename: path}
		}

		slog.Error("Failed to read rules", "ruleID", ruleID, "path", path, "error", err)

		return m.RuleSet{}, fmt.Errorf("read rules %s: %w", path, err)
	}

	rules, err := ParseRulesYAML(data)
	if err != nil {
		return m.RuleSet{}, fmt.Errorf("%s: %w", path, err)
	}

	slog.Debug("Loaded rules", "ruleID", ruleID, "path", path, "count", len(rules))

	return m.RuleSet{ID: ruleID, Filename: path, Rules: rules}, nil
}

type yamlRule struct {
	Layer *int    `yaml:"layer"`
	Code  *string `yaml:"code"`
}

// ParseRulesYAML decodes a YAML sequence of {layer, code} mappings.
func ParseRulesYAML(data []byte) ([]m.Rule, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: payload is empty", m.ErrInvalidRules)
	}

	var raw []yamlRule
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", m.ErrInvalidRules, err)
	}

	rules := make([]m.Rule, 0, len(raw))

	for i, r := range raw {
		if r.Layer == nil {
			return nil, fmt.Errorf("%w: rule #%d has no layer", m.ErrInvalidRules, i)
		}

		if r.Code == nil {
			return nil, fmt.Errorf("%w: rule #%d has no code", m.ErrInvalidRules, i)
		}

		rules = append(rules, m.Rule{Layer: *r.Layer, Code: *r.Code})
	}

	return rules, nil
}

// EncodeRulesYAML renders rules in the format ParseRulesYAML reads.
func EncodeRulesYAML(rules []m.Rule) ([]byte, error) {
	var buf bytes.Buffer

	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(rules); err != nil {
		return nil, fmt.Errorf("encode rules: %w", err)
	}

	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("encode rules: %w", err)
	}

	return buf.Bytes(), nil
}
