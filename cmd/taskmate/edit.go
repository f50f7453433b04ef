package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/amonks/taskmate/internal/editor"
	"github.com/amonks/taskmate/internal/ui"
	"github.com/amonks/taskmate/task"
)

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a task's text, color, and reminders",
	Long: `Edit a task's text, color, and reminders.

With no flags, opens $EDITOR on a TOML representation of the task when
running interactively. Reminders given with --remind or --remind-in are
added to the task's existing reminders; use --clear-reminders to start
from none. Reminders less than a second away are dropped.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

var (
	editText           string
	editColor          string
	editRemind         []time.Time
	editRemindIn       []time.Duration
	editClearReminders bool
	editUseEditor      bool
)

func init() {
	rootCmd.AddCommand(editCmd)

	editCmd.Flags().StringVarP(&editText, "text", "t", "", "New text")
	editCmd.Flags().StringVarP(&editColor, "color", "c", "", "New color ("+paletteNames()+")")
	editCmd.Flags().Var(newTimeListValue(&editRemind), "remind", "Add a reminder at a time (repeatable)")
	editCmd.Flags().DurationSliceVar(&editRemindIn, "remind-in", nil, "Add a reminder after a duration, e.g. 90m (repeatable)")
	editCmd.Flags().BoolVar(&editClearReminders, "clear-reminders", false, "Remove existing reminders")
	editCmd.Flags().BoolVarP(&editUseEditor, "edit", "e", false, "Open $EDITOR (default if interactive and no flags)")
}

func runEdit(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	id, err := a.resolveID(args[0])
	if err != nil {
		return err
	}
	existing, ok := a.repo.Get(id)
	if !ok || existing.IsDeleted() {
		return fmt.Errorf("%w: %s", task.ErrNotFound, id)
	}

	hasFlags := cmd.Flags().Changed("text") ||
		cmd.Flags().Changed("color") ||
		cmd.Flags().Changed("remind") ||
		cmd.Flags().Changed("remind-in") ||
		cmd.Flags().Changed("clear-reminders")

	var in task.EditInput
	switch {
	case editUseEditor || (!hasFlags && editor.IsInteractive()):
		parsed, err := editor.EditTask(existing)
		if err != nil {
			return err
		}
		in = parsed.ToEditInput()
	case hasFlags:
		in = task.EditInput{
			Text:      existing.Text,
			Color:     string(existing.Color),
			Reminders: desiredReminders(existing.FireTimes(), editClearReminders, editRemind, editRemindIn, time.Now()),
		}
		if cmd.Flags().Changed("text") {
			in.Text = editText
		}
		if cmd.Flags().Changed("color") {
			in.Color = editColor
		}
	default:
		return errors.New("nothing to change (use --text, --color, --remind, --remind-in, --clear-reminders, or --edit)")
	}

	outcome, err := a.repo.Edit(cmd.Context(), id, in)
	if err != nil {
		return err
	}
	reportOutcome(cmd, outcome)

	highlight := a.highlighter()
	fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s: %s\n", highlight(id), taskLabel(outcome.Task))
	now := time.Now()
	for _, r := range outcome.Task.Reminders {
		state := "scheduled"
		if !r.Live() {
			state = "display only"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  reminder %s %s\n", ui.FormatUntil(r.FireAt, now), state)
	}
	return nil
}
