package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Next     key.Binding
	Close    key.Binding
	Minimize key.Binding
	Maximize key.Binding
	Desktop  key.Binding
	Dock     key.Binding
	NewTemp  key.Binding
	Refresh  key.Binding
	Reset    key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "cycle focus"),
		),
		Close: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "close"),
		),
		Minimize: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "minimize"),
		),
		Maximize: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "maximize"),
		),
		Desktop: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "desktop click"),
		),
		Dock: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "dock"),
		),
		NewTemp: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new temp window"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Reset: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "reset windows"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Dock, k.Close, k.Minimize, k.Maximize, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Dock, k.Desktop},
		{k.Close, k.Minimize, k.Maximize},
		{k.NewTemp, k.Refresh, k.Reset},
		{k.Help, k.Quit},
	}
}
