// Package markdown renders task text for the terminal.
package markdown

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/muesli/reflow/wordwrap"

	internalstrings "github.com/amonks/taskmate/internal/strings"
)

type renderer interface {
	Render(string) (string, error)
}

var (
	rendererMu sync.Mutex
	renderers  = map[int]renderer{}
)

// SafeRender formats markdown text for terminal output, indenting every
// line by indent spaces. If rendering fails the input is wrapped as
// plain text instead.
func SafeRender(width, indent int, input []byte) []byte {
	value := internalstrings.TrimTrailingNewlines(internalstrings.NormalizeNewlines(string(input)))
	if strings.TrimSpace(value) == "" {
		return nil
	}
	renderWidth := max(width-max(indent, 0), 1)

	rendered, ok := render(renderWidth, value)
	if !ok {
		rendered = Reflow(value, renderWidth)
	}
	rendered = strings.TrimLeft(internalstrings.TrimTrailingNewlines(rendered), "\n")
	if strings.TrimSpace(rendered) == "" {
		return nil
	}
	return []byte(IndentBlock(rendered, indent))
}

// Reflow wraps each paragraph of value to width, preserving blank lines
// between paragraphs.
func Reflow(value string, width int) string {
	paragraphs := strings.Split(strings.TrimSpace(value), "\n\n")
	wrapped := make([]string, 0, len(paragraphs))
	for _, paragraph := range paragraphs {
		normalized := internalstrings.NormalizeWhitespace(paragraph)
		if normalized == "" {
			continue
		}
		wrapped = append(wrapped, wordwrap.String(normalized, max(width, 1)))
	}
	return strings.Join(wrapped, "\n\n")
}

func render(width int, value string) (out string, ok bool) {
	r := markdownRenderer(width)
	if r == nil {
		return "", false
	}
	defer func() {
		if recover() != nil {
			out, ok = "", false
		}
	}()
	formatted, err := r.Render(value)
	if err != nil {
		return "", false
	}
	return formatted, true
}

func markdownRenderer(width int) renderer {
	rendererMu.Lock()
	defer rendererMu.Unlock()
	if cached, ok := renderers[width]; ok {
		return cached
	}
	style := styles.ASCIIStyleConfig
	style.Item.BlockPrefix = "- "
	created, err := glamour.NewTermRenderer(
		glamour.WithStyles(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	renderers[width] = created
	return created
}

// IndentBlock prefixes every line of value with spaces.
func IndentBlock(value string, spaces int) string {
	if spaces <= 0 {
		return value
	}
	prefix := strings.Repeat(" ", spaces)
	lines := strings.Split(value, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
