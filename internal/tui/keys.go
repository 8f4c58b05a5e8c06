package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the root directory prompt.
type KeyMap struct {
	Complete key.Binding
	Submit   key.Binding
	Cancel   key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Complete: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "complete path"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "convert"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// HelpText returns a formatted help string for the prompt.
func (k KeyMap) HelpText() string {
	return "tab complete • enter convert • esc cancel"
}
