package keys

import "github.com/charmbracelet/bubbles/key"

// CardKeys are the card terminal bindings. The normal mode set drives
// the card and the display; the insert mode set edits and sends APDUs.
type CardKeys struct {
	// normal mode
	Quit      key.Binding
	Help      key.Binding
	Insert    key.Binding
	Clear     key.Binding
	Hex       key.Binding
	ASCII     key.Binding
	ResetCard key.Binding
	ClockOff  key.Binding

	// insert mode
	Normal   key.Binding
	Send     key.Binding
	Encoding key.Binding
	Prev     key.Binding
	Next     key.Binding
}

func bind(keys []string, help, desc string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

func NewCardKeys() CardKeys {
	return CardKeys{
		Quit:      bind([]string{"q", "Q", "ctrl+c"}, "q", "quit"),
		Help:      bind([]string{"?"}, "?", "help"),
		Insert:    bind([]string{"i", "I"}, "i", "enter APDU"),
		Clear:     bind([]string{"c"}, "c", "clear log"),
		Hex:       bind([]string{"h"}, "h", "hex column"),
		ASCII:     bind([]string{"a"}, "a", "ascii column"),
		ResetCard: bind([]string{"r"}, "r", "reset card"),
		ClockOff:  bind([]string{"o"}, "o", "clock off"),

		Normal:   bind([]string{"esc"}, "esc", "back"),
		Send:     bind([]string{"enter"}, "enter", "send"),
		Encoding: bind([]string{"tab"}, "tab", "hex/ascii input"),
		Prev:     bind([]string{"up"}, "↑", "older"),
		Next:     bind([]string{"down"}, "↓", "newer"),
	}
}

func (k CardKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Insert, k.ResetCard, k.Help, k.Quit}
}

func (k CardKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Insert, k.ResetCard, k.ClockOff, k.Clear},
		{k.Hex, k.ASCII, k.Help, k.Quit},
		{k.Send, k.Encoding, k.Prev, k.Next, k.Normal},
	}
}
