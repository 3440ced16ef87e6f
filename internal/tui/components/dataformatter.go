package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/allbin/go-iuu"
	"github.com/allbin/go-iuu/internal/tui/colors"
	"github.com/charmbracelet/lipgloss"
)

// TrafficKind tells what a logged line carries.
type TrafficKind int

const (
	TrafficRX TrafficKind = iota
	TrafficTX
	TrafficATR
	TrafficEvent
)

// TrafficMsg is one line of card traffic.
type TrafficMsg struct {
	Timestamp time.Time
	Kind      TrafficKind
	Data      []byte
	Status    string // For TX: "PENDING", "WRITTEN", "ERROR". For events: the text.
}

type DisplayMode struct {
	ShowHex   bool
	ShowASCII bool
}

type DataFormatter struct {
	mode DisplayMode
}

func NewDataFormatter(showHex, showASCII bool) *DataFormatter {
	return &DataFormatter{
		mode: DisplayMode{
			ShowHex:   showHex,
			ShowASCII: showASCII,
		},
	}
}

func (df *DataFormatter) SetDisplayMode(showHex, showASCII bool) {
	df.mode.ShowHex = showHex
	df.mode.ShowASCII = showASCII
}

func (df *DataFormatter) GetDisplayMode() DisplayMode {
	return df.mode
}

func (df *DataFormatter) indicator(msg TrafficMsg) string {
	style := lipgloss.NewStyle().Bold(true)
	switch msg.Kind {
	case TrafficTX:
		color := colors.Transmit
		text := "TX"
		switch msg.Status {
		case "PENDING":
			color, text = colors.Yellow, "TX ○"
		case "WRITTEN":
			color, text = colors.Green, "TX ✓"
		case "ERROR":
			color, text = colors.Red, "TX ✗"
		}
		return style.Foreground(color).Render("↗ " + text)
	case TrafficATR:
		return style.Foreground(colors.Answer).Render("⚑ ATR")
	case TrafficEvent:
		return style.Foreground(colors.Event).Render("• ---")
	default:
		return style.Foreground(colors.Receive).Render("↙ RX")
	}
}

func (df *DataFormatter) FormatMessage(msg TrafficMsg) string {
	timestamp := lipgloss.NewStyle().
		Foreground(colors.Subtext0).
		Render(fmt.Sprintf("[%s]", msg.Timestamp.Format("15:04:05.000")))

	if msg.Kind == TrafficEvent {
		return fmt.Sprintf("%s %s: %s", timestamp, df.indicator(msg), msg.Status)
	}

	var parts []string
	if df.mode.ShowHex {
		parts = append(parts, "HEX: "+iuu.Hex(msg.Data))
	}
	if df.mode.ShowASCII {
		parts = append(parts, "ASCII: "+printable(msg.Data))
	}
	if !df.mode.ShowHex && !df.mode.ShowASCII {
		parts = append(parts, fmt.Sprintf("BYTES: %d", len(msg.Data)))
	}
	if msg.Kind == TrafficRX && len(msg.Data) >= 2 {
		parts = append(parts, "SW: "+StatusWord(msg.Data))
	}

	return fmt.Sprintf("%s %s: %s", timestamp, df.indicator(msg), strings.Join(parts, "  "))
}

func (df *DataFormatter) FormatMessages(messages []TrafficMsg) []string {
	formatted := make([]string, len(messages))
	for i, msg := range messages {
		formatted[i] = df.FormatMessage(msg)
	}
	return formatted
}

func (df *DataFormatter) ToggleHex() {
	df.mode.ShowHex = !df.mode.ShowHex
}

func (df *DataFormatter) ToggleASCII() {
	df.mode.ShowASCII = !df.mode.ShowASCII
}

// printable replaces control and non-ASCII bytes with dots
func printable(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		if c >= 32 && c <= 126 {
			sb.WriteByte(c)
		} else {
			sb.WriteByte('.')
		}
	}
	return sb.String()
}

// StatusWord renders the trailing SW1 SW2 of a card response.
func StatusWord(resp []byte) string {
	if len(resp) < 2 {
		return ""
	}
	sw := fmt.Sprintf("%02X%02X", resp[len(resp)-2], resp[len(resp)-1])
	switch {
	case sw == "9000":
		return sw + " ok"
	case sw[:2] == "61":
		return sw + " more data"
	case sw[:2] == "6C":
		return sw + " wrong Le"
	default:
		return sw
	}
}
