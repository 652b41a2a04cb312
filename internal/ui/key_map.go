package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the global bindings. Row movement belongs to the focused table.
type keyMap struct {
	enter   key.Binding
	back    key.Binding
	next    key.Binding
	prev    key.Binding
	create  key.Binding
	refresh key.Binding
	signup  key.Binding
	logout  key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		next:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		prev:    key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous tab")),
		create:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new event")),
		refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		signup:  key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "login/signup")),
		logout:  key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "logout")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}
