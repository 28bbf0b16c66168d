// Package model defines the data structures for G-code post-processing.
package model

import (
	"path/filepath"
	"strconv"
	"strings"
)

// Path represents a file system path.
type Path string

const (
	// LayerCountPrefix starts the sentinel line declaring the total number of layers.
	LayerCountPrefix = ";LAYER_COUNT:"
	// LayerPrefix starts the sentinel line marking a layer boundary.
	LayerPrefix = ";LAYER:"

	// OutputExtension is appended to every generated file.
	OutputExtension = ".gcode"
)

// LayerCount is the declared total layer count of a source document.
// The zero value means the source carried no ;LAYER_COUNT: marker.
type LayerCount struct {
	value int
	set   bool
}

// NewLayerCount returns a LayerCount holding n.
func NewLayerCount(n int) LayerCount {
	return LayerCount{value: n, set: true}
}

// Get returns the count and whether it was declared.
func (c LayerCount) Get() (int, bool) {
	return c.value, c.set
}

// IsSet reports whether the source declared a layer count.
func (c LayerCount) IsSet() bool {
	return c.set
}

func (c LayerCount) String() string {
	if !c.set {
		return "unset"
	}

	return strconv.Itoa(c.value)
}

// LayerMarker returns the text that marks the start of layer n, including the
// terminating newline.
func LayerMarker(layer int) string {
	return LayerPrefix + strconv.Itoa(layer) + "\n"
}

// OutputPath builds "<stem>[<ruleID>].gcode". An empty stem falls back to the
// source path with its extension stripped.
func OutputPath(source Path, stem string, ruleID string) Path {
	if strings.TrimSpace(stem) == "" {
		src := string(source)
		stem = strings.TrimSuffix(src, filepath.Ext(src))
	}

	return Path(stem + "[" + ruleID + "]" + OutputExtension)
}
