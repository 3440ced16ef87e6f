package components

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/allbin/go-iuu/internal/tui/colors"
	"github.com/allbin/go-iuu/internal/tui/styles"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type SendingMode int

const (
	SendingModeHex SendingMode = iota
	SendingModeASCII
)

func (s SendingMode) String() string {
	switch s {
	case SendingModeASCII:
		return "ASCII"
	default:
		return "HEX"
	}
}

const historyLimit = 100

type Input struct {
	textInput     textinput.Model
	sendingMode   SendingMode
	history       commandHistory
	terminalWidth int
}

func NewInput(placeholder string) *Input {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 3 * 261 // a short APDU with 255 data bytes, space separated
	ti.Prompt = ""

	return &Input{
		textInput:   ti,
		sendingMode: SendingModeHex,
		history:     commandHistory{pos: -1},
	}
}

func (i *Input) SetWidth(width int) {
	i.terminalWidth = width
	// border(2) + padding(2) + prompt(1) + space(1)
	i.textInput.Width = max(width-6, 20)
}

func (i *Input) Focus() {
	i.textInput.Focus()
}

func (i *Input) Blur() {
	i.textInput.Blur()
}

func (i *Input) Value() string {
	return i.textInput.Value()
}

func (i *Input) SetValue(value string) {
	i.textInput.SetValue(value)
}

// Bytes returns the current value decoded for the sending mode
func (i *Input) Bytes() ([]byte, error) {
	if i.sendingMode == SendingModeASCII {
		return []byte(i.Value()), nil
	}
	return ParseHex(i.Value())
}

func (i *Input) ToggleSendingMode() {
	switch i.sendingMode {
	case SendingModeASCII:
		i.sendingMode = SendingModeHex
		i.textInput.Placeholder = "APDU in hex, e.g. 00 A4 04 00 07 A0 00 00 00 03 10 10"
	case SendingModeHex:
		i.sendingMode = SendingModeASCII
		i.textInput.Placeholder = "Raw text sent to the card..."
	}
}

func (i *Input) GetSendingMode() SendingMode {
	return i.sendingMode
}

func (i *Input) Update(msg tea.Msg) (*Input, tea.Cmd) {
	var cmd tea.Cmd
	i.textInput, cmd = i.textInput.Update(msg)
	return i, cmd
}

func (i *Input) ViewWithMode(isInsertMode bool) string {
	promptSymbol := ">"
	promptStyle := lipgloss.NewStyle().Foreground(colors.Green).Bold(true)
	if i.sendingMode == SendingModeHex {
		promptSymbol = "#"
		promptStyle = promptStyle.Foreground(colors.Yellow)
	}
	styledPrompt := promptStyle.Render(promptSymbol)

	var content string
	if isInsertMode {
		content = lipgloss.JoinHorizontal(lipgloss.Left, styledPrompt, " ", i.textInput.View())
	} else {
		instruction := lipgloss.NewStyle().
			Foreground(colors.Overlay0).
			Render("Press 'i' to enter an APDU, 'r' to reset the card")
		content = lipgloss.JoinHorizontal(lipgloss.Left, styledPrompt, " ", instruction)
	}

	// RoundedBorder and padding take four columns
	inputStyle := styles.InputStyle.
		Width(max(i.terminalWidth-4, 10)).
		AlignHorizontal(lipgloss.Left)
	if isInsertMode {
		inputStyle = inputStyle.BorderForeground(colors.Green)
	}
	return inputStyle.Render(content)
}

// AddToHistory records a sent command. Blank commands and repeats of
// the last one are ignored.
func (i *Input) AddToHistory(command string) {
	i.history.add(command)
}

func (i *Input) History() []string {
	return i.history.entries
}

// NavigateHistoryUp recalls the previous command, saving the unsent
// input on the first step.
func (i *Input) NavigateHistoryUp() {
	if v, ok := i.history.prev(i.textInput.Value()); ok {
		i.textInput.SetValue(v)
	}
}

// NavigateHistoryDown steps towards the unsent input.
func (i *Input) NavigateHistoryDown() {
	if v, ok := i.history.next(); ok {
		i.textInput.SetValue(v)
	}
}

// commandHistory is a bounded list of sent commands with a cursor.
// pos == -1 means the input line is not showing history.
type commandHistory struct {
	entries []string
	pos     int
	draft   string
}

func (h *commandHistory) add(command string) {
	command = strings.TrimSpace(command)
	if command != "" && (len(h.entries) == 0 || h.entries[len(h.entries)-1] != command) {
		h.entries = append(h.entries, command)
		if over := len(h.entries) - historyLimit; over > 0 {
			h.entries = h.entries[over:]
		}
	}
	h.pos, h.draft = -1, ""
}

func (h *commandHistory) prev(current string) (string, bool) {
	switch {
	case len(h.entries) == 0:
		return "", false
	case h.pos == -1:
		h.draft = current
		h.pos = len(h.entries) - 1
	case h.pos > 0:
		h.pos--
	}
	return h.entries[h.pos], true
}

func (h *commandHistory) next() (string, bool) {
	switch {
	case h.pos == -1:
		return "", false
	case h.pos < len(h.entries)-1:
		h.pos++
		return h.entries[h.pos], true
	default:
		draft := h.draft
		h.pos, h.draft = -1, ""
		return draft, true
	}
}

// ParseHex converts hex strings to bytes. Supports both:
// - Space-separated: "00 A4 04 00"
// - Continuous: "00A40400", optionally with 0x prefixes
func ParseHex(s string) ([]byte, error) {
	clean := strings.NewReplacer(" ", "", "\t", "", "0x", "", "0X", "", ":", "").Replace(strings.TrimSpace(s))
	if clean == "" {
		return nil, fmt.Errorf("empty input")
	}
	if len(clean)%2 != 0 {
		return nil, fmt.Errorf("hex string must have even number of digits (got %d)", len(clean))
	}

	out := make([]byte, 0, len(clean)/2)
	for i := 0; i < len(clean); i += 2 {
		b, err := strconv.ParseUint(clean[i:i+2], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid hex byte '%s'", clean[i:i+2])
		}
		out = append(out, byte(b))
	}
	return out, nil
}
