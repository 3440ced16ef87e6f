package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// Terminal is a scrolling traffic log. It keeps the entries so that a
// display mode change or a status update re-renders everything.
type Terminal struct {
	viewport  viewport.Model
	formatter *DataFormatter
	entries   []TrafficMsg
	lines     []string
}

func NewTerminal(width, height int) *Terminal {
	return &Terminal{
		viewport:  viewport.New(width, height),
		formatter: NewDataFormatter(true, true),
	}
}

func (t *Terminal) SetSize(width, height int) {
	t.viewport.Width = width
	t.viewport.Height = max(height, 0)
}

// Append logs msg and returns its index for SetStatus.
func (t *Terminal) Append(msg TrafficMsg) int {
	t.entries = append(t.entries, msg)
	t.lines = append(t.lines, t.formatter.FormatMessage(msg))
	t.show()
	return len(t.entries) - 1
}

// SetStatus changes the status of entry i, e.g. a TX going from
// PENDING to WRITTEN.
func (t *Terminal) SetStatus(i int, status string) {
	if i < 0 || i >= len(t.entries) {
		return
	}
	t.entries[i].Status = status
	t.lines[i] = t.formatter.FormatMessage(t.entries[i])
	t.show()
}

// Entries returns the logged traffic.
func (t *Terminal) Entries() []TrafficMsg { return t.entries }

// Lines returns the rendered log.
func (t *Terminal) Lines() []string { return t.lines }

func (t *Terminal) Clear() {
	t.entries, t.lines = nil, nil
	t.show()
}

func (t *Terminal) ToggleHex() {
	t.formatter.ToggleHex()
	t.render()
}

func (t *Terminal) ToggleASCII() {
	t.formatter.ToggleASCII()
	t.render()
}

func (t *Terminal) render() {
	t.lines = t.formatter.FormatMessages(t.entries)
	t.show()
}

func (t *Terminal) show() {
	t.viewport.SetContent(strings.Join(t.lines, "\n"))
	t.viewport.GotoBottom()
}

// Update passes resize and mouse events to the viewport. Keys belong to
// the parent model.
func (t *Terminal) Update(msg tea.Msg) tea.Cmd {
	switch msg.(type) {
	case tea.WindowSizeMsg, tea.MouseMsg:
		var cmd tea.Cmd
		t.viewport, cmd = t.viewport.Update(msg)
		return cmd
	}
	return nil
}

func (t *Terminal) View() string {
	return t.viewport.View()
}
