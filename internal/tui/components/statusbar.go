package components

import (
	"fmt"

	"github.com/allbin/go-iuu"
	"github.com/allbin/go-iuu/internal/tui/colors"
	"github.com/allbin/go-iuu/internal/tui/styles"
	"github.com/charmbracelet/lipgloss"
)

// CardStatusMsg reports a state register poll
type CardStatusMsg struct {
	Status iuu.Status
	Err    error
}

// LineInfo is the card interface setup shown in the status bar
type LineInfo struct {
	VCC      iuu.VCC
	Clock    int
	Baud     uint32
	Parity   iuu.Parity
	StopBits iuu.StopBits
	Pacing   iuu.Pacing

	ResetWait byte // RST hold time in ms
}

func (l LineInfo) String() string {
	stop := 1
	if l.StopBits == iuu.TwoStopBits {
		stop = 2
	}
	s := fmt.Sprintf("⚡ %s %.3fMHz %d 8%s%d", l.VCC, float64(l.Clock)/1e6, l.Baud, parityLetter(l.Parity), stop)
	if l.Pacing.Mode != iuu.PaceNone {
		s += fmt.Sprintf(" pace:%s/%d", l.Pacing.Mode, l.Pacing.Value)
	}
	return s
}

func parityLetter(p iuu.Parity) string {
	switch p {
	case iuu.ParityEven:
		return "E"
	case iuu.ParityOdd:
		return "O"
	case iuu.ParityMark:
		return "M"
	case iuu.ParitySpace:
		return "S"
	default:
		return "N"
	}
}

type StatusBar struct {
	device string
	status string
	err    error
	width  int
	card   iuu.Status
	polled bool
	line   *LineInfo
}

func NewStatusBar(device string) *StatusBar {
	return &StatusBar{
		device: device,
		status: "Initializing...",
	}
}

func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

func (sb *StatusBar) SetLineInfo(info *LineInfo) {
	sb.line = info
}

func (sb *StatusBar) SetCardStatus(st iuu.Status) {
	sb.card = st
	sb.polled = true
}

func (sb *StatusBar) CardStatus() (iuu.Status, bool) {
	return sb.card, sb.polled
}

func (sb *StatusBar) SetConnecting() {
	sb.status = "Connecting..."
	sb.err = nil
}

func (sb *StatusBar) SetConnected() {
	sb.status = "Connected"
	sb.err = nil
}

func (sb *StatusBar) SetDisconnected(err error) {
	sb.err = err
	if err != nil {
		sb.status = fmt.Sprintf("Connection failed: %v", err)
	} else {
		sb.status = "Disconnected"
	}
}

func (sb *StatusBar) Status() string {
	return sb.status
}

// Render draws the bar: mode, device and link state on the left, card
// state, line settings and time on the right.
func (sb *StatusBar) Render(inputMode, sendingMode string, connected bool, timestamp string) string {
	width := sb.width
	if width <= 0 {
		width = 80
	}

	modeBg := colors.Blue
	if inputMode == "INSERT" {
		modeBg = colors.Green
	}
	mode := lipgloss.NewStyle().
		Foreground(colors.Base).
		Background(modeBg).
		Bold(true).
		Padding(0, 1).
		Render(inputMode)

	device := lipgloss.NewStyle().
		Foreground(colors.Mauve).
		Bold(true).
		Padding(0, 1).
		Render(sb.device)

	var link string
	switch {
	case sb.err != nil:
		link = lipgloss.NewStyle().Foreground(colors.Red).Render("✗")
	case connected:
		link = lipgloss.NewStyle().Foreground(colors.Green).Render("●")
	case sb.status == "Connecting...":
		link = lipgloss.NewStyle().Foreground(colors.Yellow).Render("○")
	default:
		link = lipgloss.NewStyle().Foreground(colors.Red).Render("○")
	}

	divider := lipgloss.NewStyle().
		Foreground(colors.Surface2).
		Padding(0, 1).
		Render("│")

	left := []string{mode, device, link}
	if inputMode == "INSERT" {
		left = append(left, lipgloss.NewStyle().
			Foreground(colors.Peach).
			Bold(true).
			Padding(0, 1).
			Render(fmt.Sprintf("[%s] Tab to toggle", sendingMode)))
	}
	left = append(left, divider)
	leftSide := lipgloss.JoinHorizontal(lipgloss.Left, left...)

	cardText := "card: ?"
	if sb.polled {
		cardText = "card: " + sb.card.String()
	}
	card := styles.CardStyle(sb.card).Padding(0, 1).Render(cardText)

	lineText := "⚡ iuu"
	if sb.line != nil {
		lineText = sb.line.String()
	}
	line := lipgloss.NewStyle().
		Foreground(colors.Subtext0).
		Padding(0, 1).
		Render(lineText)

	clock := lipgloss.NewStyle().
		Foreground(colors.Subtext1).
		Padding(0, 1).
		Render(timestamp)

	rightSide := lipgloss.JoinHorizontal(lipgloss.Left, card, divider, line, divider, clock)

	spacer := lipgloss.NewStyle().
		Width(max(width-lipgloss.Width(leftSide)-lipgloss.Width(rightSide), 1)).
		Render("")

	return lipgloss.NewStyle().
		Foreground(colors.Text).
		Background(colors.Surface0).
		Width(width).
		Render(lipgloss.JoinHorizontal(lipgloss.Left, leftSide, spacer, rightSide))
}
