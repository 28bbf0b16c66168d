package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	m "gcodepp.dev/pkg/gcodepp/internal/model"
)

// TUI implements UI with a Bubble Tea dashboard for watch mode. It shows the
// last compile of every rule id. Commands that print once (rules, preview) go
// through the embedded SimpleUI.
type TUI struct {
	*SimpleUI

	output  io.Writer
	board   *dashboard
	options []tea.ProgramOption

	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
}

// NewTUI creates a new TUI writing to cmd's output.
func NewTUI(cmd *cobra.Command) *TUI {
	return &TUI{
		SimpleUI: NewSimpleUI(cmd, true),
		output:   cmd.OutOrStdout(),
		board:    newDashboard(),
	}
}

// Start implements UI. It runs the dashboard until Close is called, ctx is
// done, or the user quits, in which case stop is called.
func (t *TUI) Start(ctx context.Context, stop func()) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.program != nil {
		return errors.New("dashboard already started")
	}

	options := append([]tea.ProgramOption{tea.WithOutput(t.output), tea.WithContext(ctx)}, t.options...)
	program := tea.NewProgram(newWatchModel(t.board, stop), options...)
	done := make(chan struct{})

	go func() {
		defer close(done)

		if _, err := program.Run(); err != nil && ctx.Err() == nil {
			slog.Warn("Dashboard stopped", "error", err)
		}
	}()

	t.program = program
	t.done = done

	return nil
}

// Close implements UI.
func (t *TUI) Close(_ context.Context) {
	t.mu.Lock()
	program, done := t.program, t.done
	t.mu.Unlock()

	if program == nil {
		return
	}

	program.Quit()
	<-done
}

// DisplayCompile implements UI.
func (t *TUI) DisplayCompile(ctx context.Context, _ m.Path, ruleID string, at time.Time) {
	if ctx.Err() != nil {
		return
	}

	t.board.compiling(ruleID, at)
	t.refresh()
}

// DisplayCompiled implements UI.
func (t *TUI) DisplayCompiled(ctx context.Context, report m.CompileReport) {
	if ctx.Err() != nil {
		return
	}

	t.board.compiled(report)
	t.refresh()
}

// DisplayError implements UI.
func (t *TUI) DisplayError(ctx context.Context, ruleID string, err error) {
	if ctx.Err() != nil || err == nil {
		return
	}

	t.board.failed(ruleID, err)
	t.refresh()
}

// DisplayWatching implements UI.
func (t *TUI) DisplayWatching(ctx context.Context, source m.Path, interval time.Duration) {
	if ctx.Err() != nil {
		return
	}

	t.board.watching(source, interval)
	t.refresh()
}

func (t *TUI) refresh() {
	t.mu.Lock()
	program := t.program
	t.mu.Unlock()

	if program != nil {
		program.Send(refreshMsg{})
	}
}

type ruleState int

const (
	ruleCompiling ruleState = iota
	ruleCompiled
	ruleFailed
)

type ruleRow struct {
	ruleID string
	state  ruleState
	at     time.Time
	report m.CompileReport
	err    error
}

// dashboard is the state the watch model renders. Compiles update it from
// other goroutines.
type dashboard struct {
	mu       sync.Mutex
	source   m.Path
	interval time.Duration
	order    []string
	rows     map[string]*ruleRow
}

func newDashboard() *dashboard {
	return &dashboard{rows: make(map[string]*ruleRow)}
}

func (d *dashboard) watching(source m.Path, interval time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.source = source
	d.interval = interval
}

func (d *dashboard) row(ruleID string) *ruleRow {
	row, ok := d.rows[ruleID]
	if !ok {
		row = &ruleRow{ruleID: ruleID}
		d.rows[ruleID] = row
		d.order = append(d.order, ruleID)
	}

	return row
}

func (d *dashboard) compiling(ruleID string, at time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	row := d.row(ruleID)
	row.state = ruleCompiling
	row.at = at
}

func (d *dashboard) compiled(report m.CompileReport) {
	d.mu.Lock()
	defer d.mu.Unlock()

	row := d.row(report.RuleID)
	row.state = ruleCompiled
	row.report = report
	row.err = nil
}

func (d *dashboard) failed(ruleID string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	row := d.row(ruleID)
	row.state = ruleFailed
	row.err = err
}

// snapshot returns copies of the rows in first-seen order.
func (d *dashboard) snapshot() (m.Path, time.Duration, []ruleRow) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rows := make([]ruleRow, 0, len(d.order))
	for _, ruleID := range d.order {
		rows = append(rows, *d.rows[ruleID])
	}

	return d.source, d.interval, rows
}

// refreshMsg asks the model to redraw after the dashboard changed.
type refreshMsg struct{}

// watchModel represents the Bubble Tea model for the watch dashboard.
type watchModel struct {
	board    *dashboard
	spinner  spinner.Model
	stop     func()
	width    int
	quitting bool

	titleStyle lipgloss.Style
	timeStyle  lipgloss.Style
	okStyle    lipgloss.Style
	errorStyle lipgloss.Style
	helpStyle  lipgloss.Style
}

func newWatchModel(board *dashboard, stop func()) watchModel {
	return watchModel{
		board:      board,
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot)),
		stop:       stop,
		titleStyle: lipgloss.NewStyle().Bold(true),
		timeStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		okStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		errorStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		helpStyle:  lipgloss.NewStyle().Faint(true),
	}
}

func (wm watchModel) Init() tea.Cmd {
	return wm.spinner.Tick
}

func (wm watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		wm.width = msg.Width

		return wm, nil

	case tea.KeyMsg:
		return wm.handleKeyPress(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd

		wm.spinner, cmd = wm.spinner.Update(msg)

		return wm, cmd

	case refreshMsg:
		return wm, nil
	}

	return wm, nil
}

func (wm watchModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	//nolint:exhaustive // Only quit keys are handled
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return wm.quit()
	default:
	}

	if msg.String() == "q" {
		return wm.quit()
	}

	return wm, nil
}

func (wm watchModel) quit() (tea.Model, tea.Cmd) {
	if !wm.quitting && wm.stop != nil {
		wm.stop()
	}

	wm.quitting = true

	return wm, tea.Quit
}

func (wm watchModel) View() string {
	source, interval, rows := wm.board.snapshot()

	var b strings.Builder

	if wm.quitting {
		fmt.Fprintf(&b, "Stopped watching %q\n", source)
		wm.renderRows(&b, rows)

		return b.String()
	}

	title := fmt.Sprintf("%s Watching %q", wm.spinner.View(), source)
	if interval > 0 {
		title += " every " + interval.String()
	}

	b.WriteString(wm.titleStyle.Render(title))
	b.WriteString("\n\n")

	if len(rows) == 0 {
		b.WriteString("  waiting for the first compile\n")
	}

	wm.renderRows(&b, rows)

	b.WriteString("\n")
	b.WriteString(wm.helpStyle.Render("  q/esc/ctrl+c: stop watching"))
	b.WriteString("\n")

	return b.String()
}

func (wm watchModel) renderRows(b *strings.Builder, rows []ruleRow) {
	for _, row := range rows {
		stamp := wm.timeStyle.Render("[" + row.at.Format(timestampLayout) + "]")

		var status string

		switch row.state {
		case ruleCompiling:
			status = "compiling..."
		case ruleCompiled:
			status = fmt.Sprintf("%s %s (%d lines, %d insertions)",
				wm.okStyle.Render("->"), row.report.Output, row.report.Lines, row.report.Insertions)
		case ruleFailed:
			status = wm.errorStyle.Render("error:") + " " + row.err.Error()
		}

		line := fmt.Sprintf("  %s %-12s %s", stamp, row.ruleID, status)
		if wm.width > 0 {
			line = lipgloss.NewStyle().MaxWidth(wm.width).Render(line)
		}

		b.WriteString(line)
		b.WriteString("\n")
	}
}
