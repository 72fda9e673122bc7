package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit     key.Binding
	Restart  key.Binding
	Pause    key.Binding
	Finish   key.Binding
	Keyboard key.Binding
	Next     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		Restart:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "new text")),
		Pause:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "pause")),
		Finish:   key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "finish")),
		Keyboard: key.NewBinding(key.WithKeys("ctrl+k"), key.WithHelp("ctrl+k", "keyboard")),
		Next:     key.NewBinding(key.WithKeys("enter", "tab", " "), key.WithHelp("enter", "next")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Restart, k.Pause, k.Finish, k.Keyboard, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Next}}
}
