// Package controller provides console output for gcodepp.
package controller

import (
	"context"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	m "gcodepp.dev/pkg/gcodepp/internal/model"
)

// UI defines how compile progress and command results reach the user.
type UI interface {
	// Start begins a long-running display. stop is called when the user asks to quit.
	Start(ctx context.Context, stop func()) error
	// Close ends a display begun by Start and waits for it to finish.
	Close(ctx context.Context)
	DisplayCompile(ctx context.Context, source m.Path, ruleID string, at time.Time)
	DisplayCompiled(ctx context.Context, report m.CompileReport)
	DisplayError(ctx context.Context, ruleID string, err error)
	DisplayWatching(ctx context.Context, source m.Path, interval time.Duration)
	DisplayRules(ctx context.Context, set m.RuleSet) error
	DisplayPreview(ctx context.Context, diff string) error
}

// NewUI returns the watch dashboard when watching on a terminal and a
// SimpleUI otherwise, styled when tty is true.
func NewUI(cmd *cobra.Command, tty bool, watch bool) UI {
	if tty && watch {
		return NewTUI(cmd)
	}

	return NewSimpleUI(cmd, tty)
}

// IsTTY reports whether f is a terminal.
func IsTTY(f *os.File) bool {
	if f == nil {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
