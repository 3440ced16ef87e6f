package models

import (
	"context"
	"sync"
	"time"

	"github.com/allbin/go-iuu"
	"github.com/allbin/go-iuu/internal/tui/components"
	tea "github.com/charmbracelet/bubbletea"
)

// Device is the part of a session the card views drive.
type Device interface {
	Status() (iuu.Status, error)
	ResetCard(wait byte) error
	ReadATR() ([]byte, error)
	TransmitPaced(data []byte, p iuu.Pacing) error
	UARTReceive() ([]byte, error)
	SetClock(freq int) (iuu.ClockSolution, error)
	Close() error
}

var _ Device = (*iuu.Session)(nil)

// InputMode represents the current input mode (vim-like)
type InputMode int

const (
	InputModeNormal InputMode = iota
	InputModeInsert
)

func (m InputMode) String() string {
	switch m {
	case InputModeInsert:
		return "INSERT"
	default:
		return "NORMAL"
	}
}

// ConnectionStatusMsg reports the outcome of opening the programmer.
type ConnectionStatusMsg struct {
	Device Device
	Error  error
}

// ATRMsg carries the answer to a card reset.
type ATRMsg struct {
	ATR []byte
	Err error
}

// ResponseMsg carries the card's reply to the TX entry at Index.
type ResponseMsg struct {
	Index int
	Data  []byte
	Err   error
}

// EventMsg is a free-form line for the traffic log.
type EventMsg struct {
	Text string
}

// ExchangeConfig controls how a reply is collected after a transmit.
type ExchangeConfig struct {
	Pacing  iuu.Pacing
	Poll    time.Duration // delay between receive polls
	Settle  time.Duration // quiet time that ends a reply
	Timeout time.Duration // overall limit
}

// DefaultExchangeConfig suits T=0 cards at 9600 baud.
func DefaultExchangeConfig() ExchangeConfig {
	return ExchangeConfig{
		Poll:    10 * time.Millisecond,
		Settle:  50 * time.Millisecond,
		Timeout: 2 * time.Second,
	}
}

// Exchange transmits data and collects the reply until the UART has
// been quiet for cfg.Settle after the first byte, or cfg.Timeout passes.
func Exchange(dev Device, data []byte, cfg ExchangeConfig) ([]byte, error) {
	if err := dev.TransmitPaced(data, cfg.Pacing); err != nil {
		return nil, err
	}

	var resp []byte
	deadline := time.Now().Add(cfg.Timeout)
	lastData := time.Now()
	for time.Now().Before(deadline) {
		b, err := dev.UARTReceive()
		if err != nil {
			return resp, err
		}
		if len(b) > 0 {
			resp = append(resp, b...)
			lastData = time.Now()
		} else if len(resp) > 0 && time.Since(lastData) >= cfg.Settle {
			break
		}
		time.Sleep(cfg.Poll)
	}
	return resp, nil
}

// CardModel is the state shared by the card views.
type CardModel struct {
	device Device
	name   string

	connected bool
	err       error
	ready     bool

	inputMode InputMode
	lastCard  iuu.Status
	polled    bool

	cancel context.CancelFunc
	ctx    context.Context
	mu     sync.RWMutex
}

func NewCardModel(name string) *CardModel {
	ctx, cancel := context.WithCancel(context.Background())
	return &CardModel{
		name:      name,
		inputMode: InputModeNormal,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (m *CardModel) GetDevice() Device {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.device
}

func (m *CardModel) SetDevice(d Device) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.device = d
}

func (m *CardModel) Name() string { return m.name }

func (m *CardModel) IsConnected() bool { return m.connected }

func (m *CardModel) SetConnected(connected bool) { m.connected = connected }

func (m *CardModel) GetError() error { return m.err }

func (m *CardModel) SetError(err error) { m.err = err }

func (m *CardModel) IsReady() bool { return m.ready }

func (m *CardModel) SetReady(ready bool) { m.ready = ready }

func (m *CardModel) GetInputMode() InputMode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.inputMode
}

func (m *CardModel) SetInputMode(mode InputMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputMode = mode
}

func (m *CardModel) IsInInsertMode() bool {
	return m.GetInputMode() == InputModeInsert
}

// ObserveCard records a state register value and describes the change
// from the previous one, or returns "" if nothing changed.
func (m *CardModel) ObserveCard(st iuu.Status) string {
	prev, polled := m.lastCard, m.polled
	m.lastCard, m.polled = st, true

	switch {
	case !polled:
		return "card state " + st.String()
	case prev.CardPresent() && !st.CardPresent():
		return "card removed"
	case !prev.CardPresent() && st.CardPresent():
		return "card inserted (" + st.String() + ")"
	case prev != st:
		return "card state " + st.String()
	default:
		return ""
	}
}

func (m *CardModel) GetContext() context.Context { return m.ctx }

// Cleanup stops background work and closes the device.
func (m *CardModel) Cleanup() {
	if m.cancel != nil {
		m.cancel()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.device != nil {
		m.device.Close()
		m.device = nil
	}
}

// PollStatus reads the state register after interval.
func PollStatus(dev Device, interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		st, err := dev.Status()
		return components.CardStatusMsg{Status: st, Err: err}
	})
}

// ResetCard pulses RST and reads the ATR.
func ResetCard(dev Device, wait byte) tea.Cmd {
	return func() tea.Msg {
		if err := dev.ResetCard(wait); err != nil {
			return ATRMsg{Err: err}
		}
		atr, err := dev.ReadATR()
		return ATRMsg{ATR: atr, Err: err}
	}
}

// Send runs Exchange for the TX entry at index.
func Send(dev Device, index int, data []byte, cfg ExchangeConfig) tea.Cmd {
	return func() tea.Msg {
		resp, err := Exchange(dev, data, cfg)
		return ResponseMsg{Index: index, Data: resp, Err: err}
	}
}

// StopClock turns the card clock off.
func StopClock(dev Device) tea.Cmd {
	return func() tea.Msg {
		if _, err := dev.SetClock(0); err != nil {
			return EventMsg{Text: "clock off failed: " + err.Error()}
		}
		return EventMsg{Text: "card clock stopped"}
	}
}
