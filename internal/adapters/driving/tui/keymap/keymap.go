// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	// Stop interrupts a running job. The job finishes its current batch.
	Stop key.Binding

	// Quit exits once the job has finished.
	Quit key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Stop: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("ctrl+c", "stop"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "enter"),
			key.WithHelp("q", "quit"),
		),
	}
}

// RunningHelp returns bindings shown while a job runs.
func (k *KeyMap) RunningHelp() []key.Binding {
	return []key.Binding{k.Stop}
}

// DoneHelp returns bindings shown after a job ends.
func (k *KeyMap) DoneHelp() []key.Binding {
	return []key.Binding{k.Quit}
}
