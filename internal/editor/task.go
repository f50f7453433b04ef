package editor

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/amonks/taskmate/internal/validation"
	"github.com/amonks/taskmate/task"
)

// TaskData is the data used to render the editable task document.
type TaskData struct {
	// ID is set when editing an existing task.
	ID string
	// Color is the task color name.
	Color string
	// Reminders are the wanted fire times.
	Reminders []time.Time
	// Text is the task body.
	Text string
}

// DataFromTask creates TaskData from an existing task.
func DataFromTask(t task.Task) TaskData {
	return TaskData{
		ID:        t.ID,
		Color:     string(t.Color),
		Reminders: t.FireTimes(),
		Text:      t.Text,
	}
}

var taskTemplate = template.Must(template.New("task").Funcs(template.FuncMap{
	"palette": func() string {
		return validation.FormatValidValues(task.Palette())
	},
	"datetime": func(t time.Time) string {
		return t.Local().Format(time.RFC3339)
	},
}).Parse(`{{- if .ID }}# task {{ .ID }}
{{ end -}}
color = {{ printf "%q" .Color }} # {{ palette }}
reminders = [{{ range $i, $r := .Reminders }}{{ if $i }}, {{ end }}{{ datetime $r }}{{ end }}] # e.g. [2025-01-02T09:00:00-05:00]
---
{{ .Text }}
`))

// RenderTaskTOML renders the task data as TOML frontmatter followed by the text.
func RenderTaskTOML(data TaskData) (string, error) {
	var buf bytes.Buffer
	if err := taskTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return buf.String(), nil
}

// ParsedTask is the parsed result of an edited task document.
type ParsedTask struct {
	Color     string      `toml:"color"`
	Reminders []time.Time `toml:"reminders"`
	Text      string      `toml:"-"`
}

// ParseTaskTOML parses the content written by the editor.
func ParseTaskTOML(content string) (*ParsedTask, error) {
	frontmatter, body := splitFrontmatter(content)

	var parsed ParsedTask
	meta, err := toml.Decode(frontmatter, &parsed)
	if err != nil {
		return nil, fmt.Errorf("parse TOML: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %s", undecoded[0])
	}

	color, err := task.ParseColor(parsed.Color)
	if err != nil {
		return nil, err
	}
	parsed.Color = string(color)
	parsed.Text = strings.TrimSpace(body)
	return &parsed, nil
}

// ToEditInput converts a ParsedTask to task.EditInput.
func (p *ParsedTask) ToEditInput() task.EditInput {
	return task.EditInput{
		Text:      p.Text,
		Color:     p.Color,
		Reminders: p.Reminders,
	}
}

func splitFrontmatter(content string) (string, string) {
	content = strings.TrimLeft(content, "\n")
	if content == "" {
		return "", ""
	}

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "---" {
			return strings.Join(lines[:i], "\n"), strings.Join(lines[i+1:], "\n")
		}
	}
	return content, ""
}

func createTaskTempFile() (*os.File, error) {
	return os.CreateTemp("", "taskmate-*.md")
}

// EditTask opens $EDITOR on the task and returns the parsed result.
func EditTask(existing task.Task) (*ParsedTask, error) {
	content, err := RenderTaskTOML(DataFromTask(existing))
	if err != nil {
		return nil, err
	}

	tmpfile, err := createTaskTempFile()
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpfile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpfile.WriteString(content); err != nil {
		tmpfile.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpfile.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	if err := Edit(tmpPath); err != nil {
		return nil, err
	}

	edited, err := os.ReadFile(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("read edited file: %w", err)
	}

	return ParseTaskTOML(string(edited))
}
