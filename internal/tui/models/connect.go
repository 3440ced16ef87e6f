package models

import (
	"fmt"
	"time"

	"github.com/allbin/go-iuu"
	"github.com/allbin/go-iuu/internal/tui/components"
	"github.com/allbin/go-iuu/internal/tui/keys"
	"github.com/allbin/go-iuu/internal/tui/styles"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ConnectOptions configures the interactive card terminal.
type ConnectOptions struct {
	Line         components.LineInfo
	ResetWait    byte
	PollInterval time.Duration
	Exchange     ExchangeConfig
}

// Connect is an interactive APDU terminal for one programmer.
type Connect struct {
	*CardModel
	terminal  *components.Terminal
	statusBar *components.StatusBar
	input     *components.Input
	help      help.Model
	keys      keys.CardKeys
	opts      ConnectOptions
	now       func() time.Time
}

func NewConnect(name string, opts ConnectOptions) *Connect {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 500 * time.Millisecond
	}
	m := &Connect{
		CardModel: NewCardModel(name),
		terminal:  components.NewTerminal(0, 0),
		statusBar: components.NewStatusBar(name),
		input:     components.NewInput("APDU in hex, e.g. 00 A4 04 00 07 A0 00 00 00 03 10 10"),
		help:      help.New(),
		keys:      keys.NewCardKeys(),
		opts:      opts,
		now:       time.Now,
	}
	m.statusBar.SetConnecting()
	m.statusBar.SetLineInfo(&m.opts.Line)
	return m
}

func (m *Connect) Init() tea.Cmd {
	return nil
}

func (m *Connect) log(msg components.TrafficMsg) int {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = m.now()
	}
	return m.terminal.Append(msg)
}

func (m *Connect) event(format string, args ...any) {
	m.log(components.TrafficMsg{Kind: components.TrafficEvent, Status: fmt.Sprintf(format, args...)})
}

func (m *Connect) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// input (3 with border) and status bar (1)
		m.terminal.SetSize(msg.Width, msg.Height-4)
		m.input.SetWidth(msg.Width)
		m.statusBar.SetWidth(msg.Width)
		m.SetReady(true)
		cmds = append(cmds, m.terminal.Update(msg))

	case ConnectionStatusMsg:
		if msg.Error != nil {
			m.SetError(msg.Error)
			m.statusBar.SetDisconnected(msg.Error)
			m.event("open failed: %v", msg.Error)
			break
		}
		m.SetDevice(msg.Device)
		m.SetConnected(true)
		m.statusBar.SetConnected()
		m.event("connected to %s", m.Name())
		cmds = append(cmds, PollStatus(msg.Device, 0))

	case components.CardStatusMsg:
		dev := m.GetDevice()
		if dev == nil {
			break
		}
		if msg.Err != nil {
			m.event("status poll failed: %v", msg.Err)
		} else {
			m.statusBar.SetCardStatus(msg.Status)
			if change := m.ObserveCard(msg.Status); change != "" {
				m.event("%s", change)
			}
		}
		cmds = append(cmds, PollStatus(dev, m.opts.PollInterval))

	case ATRMsg:
		if msg.Err != nil {
			m.event("reset failed: %v", msg.Err)
			break
		}
		if len(msg.ATR) == 0 {
			m.event("no answer to reset")
			break
		}
		m.log(components.TrafficMsg{Kind: components.TrafficATR, Data: msg.ATR})
		if a, err := iuu.ParseATR(msg.ATR); err != nil {
			m.event("ATR: %v", err)
		} else {
			m.event("ATR protocols %v, extra guard time %d", a.Protocols, a.ExtraGuardTime())
		}

	case ResponseMsg:
		status := "WRITTEN"
		if msg.Err != nil {
			status = "ERROR"
		}
		m.terminal.SetStatus(msg.Index, status)
		if len(msg.Data) > 0 {
			m.log(components.TrafficMsg{Kind: components.TrafficRX, Data: msg.Data})
		}
		if msg.Err != nil {
			m.event("exchange failed: %v", msg.Err)
		}

	case EventMsg:
		m.event("%s", msg.Text)

	case tea.KeyMsg:
		if m.IsInInsertMode() {
			switch {
			case key.Matches(msg, m.keys.Normal):
				m.SetInputMode(InputModeNormal)
				m.input.Blur()
				return m, nil
			case key.Matches(msg, m.keys.Send):
				return m, m.send()
			case key.Matches(msg, m.keys.Prev):
				m.input.NavigateHistoryUp()
				return m, nil
			case key.Matches(msg, m.keys.Next):
				m.input.NavigateHistoryDown()
				return m, nil
			case key.Matches(msg, m.keys.Encoding):
				m.input.ToggleSendingMode()
				return m, nil
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			m.Cleanup()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Insert):
			m.SetInputMode(InputModeInsert)
			m.input.Focus()
		case key.Matches(msg, m.keys.Clear):
			m.terminal.Clear()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Hex):
			m.terminal.ToggleHex()
		case key.Matches(msg, m.keys.ASCII):
			m.terminal.ToggleASCII()
		case key.Matches(msg, m.keys.ResetCard):
			if dev := m.GetDevice(); dev != nil {
				m.event("resetting card")
				cmds = append(cmds, ResetCard(dev, m.opts.ResetWait))
			}
		case key.Matches(msg, m.keys.ClockOff):
			if dev := m.GetDevice(); dev != nil {
				cmds = append(cmds, StopClock(dev))
			}
		}
	}

	return m, tea.Batch(cmds...)
}

// send logs the input as a pending TX entry and starts the exchange.
func (m *Connect) send() tea.Cmd {
	dev := m.GetDevice()
	if dev == nil || m.input.Value() == "" {
		return nil
	}
	data, err := m.input.Bytes()
	if err != nil {
		m.event("invalid input: %v", err)
		return nil
	}

	i := m.log(components.TrafficMsg{Kind: components.TrafficTX, Data: data, Status: "PENDING"})
	m.input.AddToHistory(m.input.Value())
	m.input.SetValue("")
	return Send(dev, i, data, m.opts.Exchange)
}

// Traffic returns the logged entries.
func (m *Connect) Traffic() []components.TrafficMsg {
	return m.terminal.Entries()
}

// Lines exposes the rendered traffic log.
func (m *Connect) Lines() []string {
	return m.terminal.Lines()
}

// CardStatus returns the last polled state register.
func (m *Connect) CardStatus() (iuu.Status, bool) {
	return m.statusBar.CardStatus()
}

func (m *Connect) View() string {
	content := "Initializing..."
	if m.IsReady() {
		content = m.terminal.View()
	}

	mode := m.GetInputMode().String()
	input := m.input.ViewWithMode(m.IsInInsertMode())
	bar := m.statusBar.Render(mode, m.input.GetSendingMode().String(), m.IsConnected(), m.now().Format("15:04:05"))

	parts := []string{styles.ContentBorderStyle.Render(content), input, bar}
	if m.help.ShowAll {
		parts = append(parts, m.help.View(m.keys))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
