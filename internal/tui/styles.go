// SPDX-License-Identifier: MIT
package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D7D7D"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)

	notesStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#25A065")).
			Padding(0, 2).
			Bold(true)

	alertStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F25D94")).
			Bold(true)
)

// Key bindings shared by both screens.
var (
	quitKey   = key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit"))
	upKey     = key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up"))
	downKey   = key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down"))
	enterKey  = key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select"))
	backKey   = key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back"))
	gateKey   = key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "gate"))
	recordKey = key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "record"))
)

// helpLine renders bindings as "key: desc • key: desc".
func helpLine(bindings ...key.Binding) string {
	var s string
	for i, b := range bindings {
		if i > 0 {
			s += " • "
		}
		h := b.Help()
		s += h.Key + ": " + h.Desc
	}
	return infoStyle.Render(s)
}
