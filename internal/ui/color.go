package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/amonks/taskmate/task"
)

// Swatch renders a task color as its name tinted with the palette hex.
func Swatch(c task.Color) string {
	hex := c.Hex()
	if hex == "" {
		return string(c)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render(string(c))
}
