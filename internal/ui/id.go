package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var idPrefixStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))

// HighlightID returns an ID with its unique prefix highlighted.
// Styling is dropped when stdout is not a color terminal.
func HighlightID(id string, prefixLen int) string {
	if id == "" {
		return id
	}
	if prefixLen <= 0 || prefixLen > len(id) {
		return id
	}
	return idPrefixStyle.Render(id[:prefixLen]) + id[prefixLen:]
}

// PrefixLength looks up the unique prefix length for id, ignoring case.
func PrefixLength(lengths map[string]int, id string) int {
	if lengths == nil || id == "" {
		return 0
	}
	return lengths[strings.ToLower(id)]
}
