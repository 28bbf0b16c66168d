package controller

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "gcodepp.dev/pkg/gcodepp/internal/model"
)

const (
	timestampLayout = "15:04:05"
	codePreviewLen  = 48
)

// SimpleUI implements UI using the cobra command's output streams.
type SimpleUI struct {
	cmd    *cobra.Command
	styled bool

	timeStyle  lipgloss.Style
	okStyle    lipgloss.Style
	errorStyle lipgloss.Style
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command, styled bool) *SimpleUI {
	return &SimpleUI{
		cmd:        cmd,
		styled:     styled,
		timeStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		okStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		errorStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}
}

// Start implements UI. SimpleUI prints as it goes, so there is nothing to start.
func (s *SimpleUI) Start(_ context.Context, _ func()) error {
	return nil
}

// Close implements UI.
func (s *SimpleUI) Close(_ context.Context) {}

// DisplayCompile prints the one-line notification for a compile invocation.
func (s *SimpleUI) DisplayCompile(ctx context.Context, source m.Path, ruleID string, at time.Time) {
	if err := ctx.Err(); err != nil {
		return
	}

	stamp := s.render(s.timeStyle, "["+at.Format(timestampLayout)+"]")
	s.printf("%s Postprocess %q with a rule %q\n", stamp, source, ruleID)
}

// DisplayCompiled prints where the output went.
func (s *SimpleUI) DisplayCompiled(ctx context.Context, report m.CompileReport) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("  %s %s (%d lines, %d insertions)\n",
		s.render(s.okStyle, "->"), report.Output, report.Lines, report.Insertions)
}

// DisplayError prints a failed compile.
func (s *SimpleUI) DisplayError(ctx context.Context, ruleID string, err error) {
	if ctx.Err() != nil || err == nil {
		return
	}

	_, _ = fmt.Fprintf(s.cmd.ErrOrStderr(), "%s rule %q: %v\n", s.render(s.errorStyle, "error:"), ruleID, err)
}

// DisplayWatching announces watch mode.
func (s *SimpleUI) DisplayWatching(ctx context.Context, source m.Path, interval time.Duration) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Watching %q every %s (Ctrl+C to stop)\n", source, interval)
}

// DisplayRules prints a rule set as a table.
func (s *SimpleUI) DisplayRules(ctx context.Context, set m.RuleSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("%s\n%s", set.Filename, renderRulesTable(set.Rules))

	return nil
}

func renderRulesTable(rules []m.Rule) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"#", "Layer", "Lines", "Code"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT,
	})

	for i, rule := range rules {
		table.Append([]string{
			strconv.Itoa(i),
			strconv.Itoa(rule.Layer),
			strconv.Itoa(strings.Count(rule.Code, "\n") + 1),
			codePreview(rule.Code),
		})
	}

	table.SetFooter([]string{"", "", "Total", fmt.Sprintf("%d rules", len(rules))})
	table.Render()

	return tableBuffer.String()
}

func codePreview(code string) string {
	first, _, multi := strings.Cut(code, "\n")
	if len(first) > codePreviewLen {
		return first[:codePreviewLen] + "..."
	}

	if multi {
		return first + " ..."
	}

	return first
}

// DisplayPreview prints a unified diff, or a note when nothing changes.
func (s *SimpleUI) DisplayPreview(ctx context.Context, diff string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if diff == "" {
		s.printf("No changes.\n")
		return nil
	}

	s.printf("%s", diff)

	return nil
}

func (s *SimpleUI) render(style lipgloss.Style, text string) string {
	if !s.styled {
		return text
	}

	return style.Render(text)
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
