package models

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/allbin/go-iuu"
	"github.com/allbin/go-iuu/internal/tui/components"
	tea "github.com/charmbracelet/bubbletea"
)

// fakeDevice replays receive chunks and records what was sent.
type fakeDevice struct {
	mu       sync.Mutex
	status   iuu.Status
	atr      []byte
	rx       [][]byte
	sent     [][]byte
	resets   []byte
	clock    []int
	closed   bool
	sendErr  error
	resetErr error
}

func (f *fakeDevice) Status() (iuu.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, nil
}

func (f *fakeDevice) ResetCard(wait byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, wait)
	return f.resetErr
}

func (f *fakeDevice) ReadATR() ([]byte, error) { return f.atr, nil }

func (f *fakeDevice) TransmitPaced(data []byte, p iuu.Pacing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, append([]byte(nil), data...))
	return nil
}

func (f *fakeDevice) UARTReceive() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.rx) == 0 {
		return []byte{}, nil
	}
	b := f.rx[0]
	f.rx = f.rx[1:]
	return b, nil
}

func (f *fakeDevice) SetClock(freq int) (iuu.ClockSolution, error) {
	f.clock = append(f.clock, freq)
	return iuu.Synthesize(freq)
}

func (f *fakeDevice) Close() error {
	f.closed = true
	return nil
}

func fastExchange() ExchangeConfig {
	return ExchangeConfig{Timeout: 200 * time.Millisecond}
}

// run executes cmd and any batched commands it produces, skipping nil
// results. Tick commands are run too, so intervals must be short.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestExchange(t *testing.T) {
	dev := &fakeDevice{rx: [][]byte{{}, {0x61}, {0x10}, {}}}
	resp, err := Exchange(dev, []byte{0x00, 0xA4, 0x04, 0x00}, fastExchange())
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}
	if !bytes.Equal(resp, []byte{0x61, 0x10}) {
		t.Errorf("Exchange() = % X, want 61 10", resp)
	}
	if len(dev.sent) != 1 {
		t.Errorf("sent %d frames", len(dev.sent))
	}

	dev = &fakeDevice{sendErr: errors.New("usb gone")}
	if _, err := Exchange(dev, []byte{0x00}, fastExchange()); err == nil {
		t.Error("Exchange() ignored transmit error")
	}
}

func TestExchangeTimesOutWithoutReply(t *testing.T) {
	cfg := ExchangeConfig{Timeout: 20 * time.Millisecond}
	start := time.Now()
	resp, err := Exchange(&fakeDevice{}, []byte{0x00}, cfg)
	if err != nil || len(resp) != 0 {
		t.Errorf("Exchange() = % X, %v", resp, err)
	}
	if time.Since(start) < cfg.Timeout {
		t.Error("Exchange() returned before the timeout")
	}
}

func TestObserveCard(t *testing.T) {
	m := NewCardModel("dev")
	steps := []struct {
		st   iuu.Status
		want string
	}{
		{0, "card state empty"},
		{0, ""},
		{iuu.StatusFullCard, "card inserted (full-card)"},
		{iuu.StatusFullCard | iuu.StatusVerifyError, "card state full-card|verify-error"},
		{0, "card removed"},
	}
	for i, s := range steps {
		if got := m.ObserveCard(s.st); got != s.want {
			t.Errorf("step %d: ObserveCard(%v) = %q, want %q", i, s.st, got, s.want)
		}
	}
}

func TestConnectFlow(t *testing.T) {
	dev := &fakeDevice{
		status: iuu.StatusFullCard,
		atr:    []byte{0x3B, 0x53, 0x11, 0x02, 0x41, 0x42, 0x43},
		rx:     [][]byte{{0x90, 0x00}},
	}
	m := NewConnect("001/004", ConnectOptions{
		ResetWait:    iuu.DefaultResetWait,
		PollInterval: time.Millisecond,
		Exchange:     fastExchange(),
	})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})

	// Connecting schedules an immediate status poll
	_, cmd := m.Update(ConnectionStatusMsg{Device: dev})
	if !m.IsConnected() {
		t.Fatal("not connected")
	}
	msgs := run(cmd)
	if len(msgs) != 1 {
		t.Fatalf("connect produced %v", msgs)
	}
	m.Update(msgs[0])
	if st, ok := m.CardStatus(); !ok || st != iuu.StatusFullCard {
		t.Errorf("CardStatus() = %v, %v", st, ok)
	}

	// Reset reads and annotates the ATR
	_, cmd = m.Update(runes("r"))
	for _, msg := range run(cmd) {
		m.Update(msg)
	}
	if len(dev.resets) != 1 || dev.resets[0] != iuu.DefaultResetWait {
		t.Errorf("resets = %v", dev.resets)
	}

	// Insert mode, enter an APDU, send it
	m.Update(runes("i"))
	if !m.IsInInsertMode() {
		t.Fatal("not in insert mode")
	}
	m.input.SetValue("00 A4 04 00")
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	for _, msg := range run(cmd) {
		m.Update(msg)
	}
	if len(dev.sent) != 1 || !bytes.Equal(dev.sent[0], []byte{0x00, 0xA4, 0x04, 0x00}) {
		t.Errorf("sent = % X", dev.sent)
	}

	log := strings.Join(m.Lines(), "\n")
	for _, want := range []string{
		"connected to 001/004",
		"card state full-card",
		"3B 53 11 02 41 42 43",
		"extra guard time 2",
		"TX ✓",
		"SW: 9000 ok",
	} {
		if !strings.Contains(log, want) {
			t.Errorf("log missing %q:\n%s", want, log)
		}
	}

	raw := m.Traffic()
	var tx *components.TrafficMsg
	for i := range raw {
		if raw[i].Kind == components.TrafficTX {
			tx = &raw[i]
		}
	}
	if tx == nil || tx.Status != "WRITTEN" {
		t.Errorf("TX entry = %+v", tx)
	}

	// Quit from normal mode closes the device
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	_, cmd = m.Update(runes("q"))
	if cmd == nil || !dev.closed {
		t.Error("quit did not close the device")
	}
}

func TestConnectInvalidInput(t *testing.T) {
	dev := &fakeDevice{}
	m := NewConnect("dev", ConnectOptions{Exchange: fastExchange()})
	m.Update(ConnectionStatusMsg{Device: dev})
	m.Update(runes("i"))
	m.input.SetValue("0G")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("invalid input produced a command")
	}
	if len(dev.sent) != 0 {
		t.Error("invalid input reached the device")
	}
	if log := strings.Join(m.Lines(), "\n"); !strings.Contains(log, "invalid input") {
		t.Errorf("log = %s", log)
	}
}

func TestConnectOpenFailure(t *testing.T) {
	m := NewConnect("dev", ConnectOptions{})
	_, cmd := m.Update(ConnectionStatusMsg{Error: iuu.ErrDeviceNotFound})
	if cmd != nil && len(run(cmd)) != 0 {
		t.Error("failed open scheduled work")
	}
	if m.IsConnected() || !errors.Is(m.GetError(), iuu.ErrDeviceNotFound) {
		t.Errorf("connected = %v, err = %v", m.IsConnected(), m.GetError())
	}

	// Normal mode keys without a device are ignored
	if _, cmd := m.Update(runes("r")); cmd != nil && len(run(cmd)) != 0 {
		t.Error("reset without device produced work")
	}
}

func TestStopClock(t *testing.T) {
	dev := &fakeDevice{}
	msg := StopClock(dev)()
	if ev, ok := msg.(EventMsg); !ok || ev.Text != "card clock stopped" {
		t.Errorf("StopClock() = %#v", msg)
	}
	if len(dev.clock) != 1 || dev.clock[0] != 0 {
		t.Errorf("clock = %v", dev.clock)
	}
}
