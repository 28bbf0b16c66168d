package controller

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "gcodepp.dev/pkg/gcodepp/internal/model"
)

func newTestTUI() (*TUI, *bytes.Buffer) {
	out := &bytes.Buffer{}

	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})

	tui := NewTUI(cmd)
	tui.options = []tea.ProgramOption{tea.WithInput(nil), tea.WithoutSignalHandler()}

	return tui, out
}

func TestNewUI(t *testing.T) {
	cmd := &cobra.Command{}

	assert.IsType(t, &TUI{}, NewUI(cmd, true, true))
	assert.IsType(t, &SimpleUI{}, NewUI(cmd, true, false))
	assert.IsType(t, &SimpleUI{}, NewUI(cmd, false, true))
	assert.IsType(t, &SimpleUI{}, NewUI(cmd, false, false))
}

func TestDashboard(t *testing.T) {
	board := newDashboard()
	at := time.Date(2024, 5, 1, 9, 8, 7, 0, time.Local)

	board.watching("part.gcode", time.Second)
	board.compiling("pause", at)
	board.compiling("fan", at)
	board.compiled(m.CompileReport{RuleID: "pause", Output: "part[pause].gcode", Lines: 5, Insertions: 1})
	board.failed("fan", errors.New("bad rules"))
	board.compiling("pause", at.Add(time.Minute))

	source, interval, rows := board.snapshot()
	assert.Equal(t, m.Path("part.gcode"), source)
	assert.Equal(t, time.Second, interval)
	require.Len(t, rows, 2)

	assert.Equal(t, "pause", rows[0].ruleID)
	assert.Equal(t, ruleCompiling, rows[0].state)
	assert.Equal(t, at.Add(time.Minute), rows[0].at)

	assert.Equal(t, "fan", rows[1].ruleID)
	assert.Equal(t, ruleFailed, rows[1].state)
	assert.EqualError(t, rows[1].err, "bad rules")
}

func TestWatchModel_View(t *testing.T) {
	board := newDashboard()
	model := newWatchModel(board, nil)

	board.watching("part.gcode", 2*time.Second)
	assert.Contains(t, model.View(), "waiting for the first compile")

	board.compiling("pause", time.Date(2024, 5, 1, 9, 8, 7, 0, time.Local))
	board.compiled(m.CompileReport{RuleID: "pause", Output: "part[pause].gcode", Lines: 6, Insertions: 1})
	board.failed("fan", errors.New("layer out of range"))

	view := model.View()
	assert.Contains(t, view, `Watching "part.gcode" every 2s`)
	assert.Contains(t, view, "09:08:07")
	assert.Contains(t, view, "part[pause].gcode (6 lines, 1 insertions)")
	assert.Contains(t, view, "layer out of range")
	assert.Contains(t, view, "stop watching")
}

func TestWatchModel_QuitKeysCallStop(t *testing.T) {
	keys := []tea.KeyMsg{
		{Type: tea.KeyCtrlC},
		{Type: tea.KeyEsc},
		{Type: tea.KeyRunes, Runes: []rune("q")},
	}

	for _, key := range keys {
		t.Run(key.String(), func(t *testing.T) {
			var stops atomic.Int32

			model := newWatchModel(newDashboard(), func() { stops.Add(1) })

			updated, cmd := model.Update(key)
			require.NotNil(t, cmd)
			assert.IsType(t, tea.QuitMsg{}, cmd())
			assert.Equal(t, int32(1), stops.Load())

			board := updated.(watchModel)
			assert.True(t, board.quitting)
			assert.Contains(t, board.View(), "Stopped watching")

			_, _ = board.Update(key)
			assert.Equal(t, int32(1), stops.Load())
		})
	}
}

func TestWatchModel_OtherKeysAreIgnored(t *testing.T) {
	var stops atomic.Int32

	model := newWatchModel(newDashboard(), func() { stops.Add(1) })

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.Nil(t, cmd)
	assert.Zero(t, stops.Load())
}

func TestTUI_StartAndQuit(t *testing.T) {
	tui, out := newTestTUI()
	ctx := context.Background()

	stopped := make(chan struct{})
	require.NoError(t, tui.Start(ctx, func() { close(stopped) }))
	require.Error(t, tui.Start(ctx, func() {}))

	tui.DisplayWatching(ctx, "part.gcode", time.Second)
	tui.DisplayCompile(ctx, "part.gcode", "pause", time.Now())
	tui.DisplayCompiled(ctx, m.CompileReport{RuleID: "pause", Output: "part[pause].gcode", Lines: 3, Insertions: 1})

	tui.program.Send(tea.KeyMsg{Type: tea.KeyCtrlC})

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("quit key did not call stop")
	}

	tui.Close(ctx)
	tui.Close(ctx)

	assert.Contains(t, out.String(), "part[pause].gcode")
}

func TestTUI_CloseWithoutStart(t *testing.T) {
	tui, out := newTestTUI()

	tui.DisplayCompile(context.Background(), "part.gcode", "pause", time.Now())
	tui.Close(context.Background())

	assert.Empty(t, out.String())

	_, _, rows := tui.board.snapshot()
	require.Len(t, rows, 1)
	assert.Equal(t, "pause", rows[0].ruleID)
}

func TestTUI_DelegatesOneShotOutput(t *testing.T) {
	tui, out := newTestTUI()

	require.NoError(t, tui.DisplayPreview(context.Background(), ""))
	assert.Contains(t, out.String(), "No changes.")
}
