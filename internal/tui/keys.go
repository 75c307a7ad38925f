package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	SwitchPane key.Binding
	Up         key.Binding
	Down       key.Binding
	Toggle     key.Binding
	Pick       key.Binding
	Drop       key.Binding
	Cancel     key.Binding
	Space      key.Binding
	Unspace    key.Binding
	MoreCols   key.Binding
	FewerCols  key.Binding
	Refresh    key.Binding
	Save       key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		SwitchPane: key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "switch pane")),
		Up:         key.NewBinding(key.WithKeys("up", "k", "left", "h", "ctrl+p"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j", "right", "l", "ctrl+n"), key.WithHelp("↓/j", "down")),
		Toggle:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "stage/unstage")),
		Pick:       key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "move")),
		Drop:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "drop")),
		Cancel:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel move")),
		Space:      key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "add space")),
		Unspace:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "remove space")),
		MoreCols:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "columns")),
		FewerCols:  key.NewBinding(key.WithKeys("-", "_")),
		Refresh:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Save:       key.NewBinding(key.WithKeys("s", "ctrl+s"), key.WithHelp("s", "save")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.SwitchPane, k.Toggle, k.Pick, k.Space, k.Save, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.SwitchPane, k.Up, k.Down},
		{k.Toggle, k.Pick, k.Drop, k.Cancel},
		{k.Space, k.Unspace, k.MoreCols},
		{k.Refresh, k.Save, k.Quit},
	}
}
