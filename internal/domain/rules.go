package domain

import (
	m "gcodepp.dev/pkg/gcodepp/internal/model"
)

// ValidateRules checks every rule layer against the declared layer count.
// Layers are numbered from 0, so a valid layer is in [0, count).
func ValidateRules(rules []m.Rule, count m.LayerCount) error {
	total, ok := count.Get()
	if !ok {
		return m.ErrMissingLayerCount
	}

	for _, rule := range rules {
		if rule.Layer < 0 || rule.Layer >= total {
			return &m.LayerOutOfRangeError{Layer: rule.Layer, Count: total}
		}
	}

	return nil
}
