package styles

import (
	"github.com/allbin/go-iuu"
	"github.com/allbin/go-iuu/internal/tui/colors"
	"github.com/charmbracelet/lipgloss"
)

var (
	// ContentBorderStyle separates the traffic log from the title area.
	ContentBorderStyle = lipgloss.NewStyle().
				BorderTop(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(colors.Surface1)

	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colors.Surface2).
			Padding(0, 1)
)

// CardStyle colors a state register value: red on a verify error, green
// with a card inserted, muted otherwise.
func CardStyle(st iuu.Status) lipgloss.Style {
	s := lipgloss.NewStyle().Bold(true)
	switch {
	case st.VerifyError():
		return s.Foreground(colors.CardFault)
	case st.CardPresent():
		return s.Foreground(colors.CardPresent)
	default:
		return s.Foreground(colors.CardAbsent)
	}
}
