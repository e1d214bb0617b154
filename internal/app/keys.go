package app

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Open      key.Binding
	NextTab   key.Binding
	PrevTab   key.Binding
	VolUp     key.Binding
	VolDown   key.Binding
	StartBack key.Binding
	StartFwd  key.Binding
	Longer    key.Binding
	Shorter   key.Binding
	Apply     key.Binding
	Close     key.Binding
	Help      key.Binding
	Quit      key.Binding
	Cancel    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Open:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "open sound")),
		NextTab:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next")),
		PrevTab:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous")),
		VolUp:     key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "louder")),
		VolDown:   key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "quieter")),
		StartBack: key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "start -0.5s")),
		StartFwd:  key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "start +0.5s")),
		Longer:    key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "length +0.5s")),
		Shorter:   key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "length -0.5s")),
		Apply:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
		Close:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "close sound")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.NextTab, k.Apply, k.Close, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Open, k.NextTab, k.PrevTab, k.Close},
		{k.VolUp, k.VolDown, k.StartBack, k.StartFwd},
		{k.Longer, k.Shorter, k.Apply},
		{k.Help, k.Quit},
	}
}
