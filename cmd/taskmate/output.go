package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/amonks/taskmate/internal/ui"
	"github.com/amonks/taskmate/task"
)

func encodeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

// reportOutcome prints reminder advisories and write failures to stderr.
// Neither fails the command: the change has already been applied.
func reportOutcome(cmd *cobra.Command, outcome task.Outcome) {
	if outcome.Advisory != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", outcome.Advisory)
	}
	if outcome.PersistErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", outcome.PersistErr)
	}
}

func highlightID(lengths map[string]int, id string) string {
	return ui.HighlightID(id, ui.PrefixLength(lengths, id))
}

func taskLabel(t task.Task) string {
	if t.Text == "" {
		return task.VoiceNoteBody
	}
	return t.Text
}
