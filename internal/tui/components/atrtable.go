package components

import (
	"fmt"

	"github.com/allbin/go-iuu"
	"github.com/allbin/go-iuu/internal/tui/colors"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

var interfaceNames = [4]string{"TA", "TB", "TC", "TD"}

// ATRRows breaks an ATR into one row per character group.
func ATRRows(a *iuu.ATR) []table.Row {
	convention := "direct convention"
	if a.Inverse() {
		convention = "inverse convention"
	}
	rows := []table.Row{
		{"TS", fmt.Sprintf("%02X", a.TS), convention},
		{"T0", fmt.Sprintf("%02X", a.T0), fmt.Sprintf("Y1=%X, %d historical bytes", a.T0>>4, a.T0&0x0F)},
	}

	for i, group := range a.Interface {
		for j, b := range group {
			if b == nil {
				continue
			}
			name := fmt.Sprintf("%s%d", interfaceNames[j], i+1)
			rows = append(rows, table.Row{name, fmt.Sprintf("%02X", *b), interfaceMeaning(i+1, j, *b)})
		}
	}

	if len(a.Historical) > 0 {
		rows = append(rows, table.Row{"T1..TK", iuu.Hex(a.Historical), printable(a.Historical)})
	}
	if a.TCK != nil {
		rows = append(rows, table.Row{"TCK", fmt.Sprintf("%02X", *a.TCK), "checksum"})
	}
	return rows
}

func interfaceMeaning(group, index int, b byte) string {
	switch {
	case index == 3:
		return fmt.Sprintf("T=%d, next Y=%X", b&0x0F, b>>4)
	case group == 1 && index == 0:
		return fmt.Sprintf("Fi index %d, Di index %d", b>>4, b&0x0F)
	case group == 1 && index == 2:
		return fmt.Sprintf("extra guard time %d etu", b)
	case group == 2 && index == 2:
		return fmt.Sprintf("work waiting integer %d", b)
	default:
		return ""
	}
}

// NewATRTable renders an ATR as a static table
func NewATRTable(a *iuu.ATR) table.Model {
	columns := []table.Column{
		{Title: "Char", Width: 8},
		{Title: "Value", Width: max(6, min(3*len(a.Historical), 48))},
		{Title: "Meaning", Width: 34},
	}
	rows := ATRRows(a)

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(len(rows)+2),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colors.Subtext0).
		BorderBottom(true).
		Bold(true).
		Foreground(colors.Text)
	// Nothing is selectable in a static view
	s.Selected = lipgloss.NewStyle()
	t.SetStyles(s)
	return t
}
