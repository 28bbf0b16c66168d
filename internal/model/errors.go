package model

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceNotFound is returned when the G-code source file does not exist.
	ErrSourceNotFound = errors.New("source file not found")
	// ErrRulesNotFound is returned when the rules file for an identifier does not exist.
	ErrRulesNotFound = errors.New("rules file not found")
	// ErrInvalidRules is returned when a rules file cannot be decoded.
	ErrInvalidRules = errors.New("invalid rules file")
	// ErrLayerOutOfRange is returned when a rule targets a layer the source does not have.
	ErrLayerOutOfRange = errors.New("layer out of range")
	// ErrMissingLayerCount is returned when the source has no ;LAYER_COUNT: marker.
	ErrMissingLayerCount = errors.New("source declares no layer count")
	// ErrSourceConsumed is returned when the source lines are requested a second time.
	ErrSourceConsumed = errors.New("source lines already consumed")
)

// SourceNotFoundError names the missing source file.
type SourceNotFoundError struct {
	Path Path
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("source file %q cannot be found", e.Path)
}

func (e *SourceNotFoundError) Unwrap() error {
	return ErrSourceNotFound
}

// RulesNotFoundError names the rules file that was expected for RuleID.
type RulesNotFoundError struct {
	RuleID   string
	Filename Path
}

func (e *RulesNotFoundError) Error() string {
	return fmt.Sprintf("rules with a filename %q cannot be found", e.Filename)
}

func (e *RulesNotFoundError) Unwrap() error {
	return ErrRulesNotFound
}

// LayerOutOfRangeError reports a rule layer outside [0, Count).
type LayerOutOfRangeError struct {
	Layer int
	Count int
}

func (e *LayerOutOfRangeError) Error() string {
	return fmt.Sprintf("the layer number [%d] is out of range for %d layers", e.Layer, e.Count)
}

func (e *LayerOutOfRangeError) Unwrap() error {
	return ErrLayerOutOfRange
}
