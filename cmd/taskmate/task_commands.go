package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/amonks/taskmate/internal/listflags"
	"github.com/amonks/taskmate/internal/markdown"
	"github.com/amonks/taskmate/internal/ui"
	"github.com/amonks/taskmate/internal/validation"
	"github.com/amonks/taskmate/task"
)

var addCmd = &cobra.Command{
	Use:   "add [text...]",
	Short: "Add a task to the top of the list",
	Long: `Add a task to the top of the list.

A task needs text or a voice note. Voice notes without text are labelled
recording.01, recording.02, and so on.`,
	RunE: runAdd,
}

var (
	addColor string
	addAudio string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var (
	listJSON bool
	listAll  bool
)

var showCmd = &cobra.Command{
	Use:   "show <id>...",
	Short: "Show detailed information about tasks",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runShow,
}

var showJSON bool

var toggleCmd = &cobra.Command{
	Use:   "toggle <id>...",
	Short: "Toggle whether tasks are completed",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runToggle,
}

var reorderCmd = &cobra.Command{
	Use:   "reorder <id>...",
	Short: "Reorder the task list",
	Long: `Reorder the task list.

Every active task must be named exactly once, in the new display order.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReorder,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Move tasks to the recently deleted list",
	Long: `Move tasks to the recently deleted list.

Deleted tasks lose their reminders and are purged after 30 days unless
recovered.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

var deletedCmd = &cobra.Command{
	Use:   "deleted",
	Short: "List recently deleted tasks",
	Args:  cobra.NoArgs,
	RunE:  runDeleted,
}

var deletedJSON bool

var recoverCmd = &cobra.Command{
	Use:   "recover <id>...",
	Short: "Restore recently deleted tasks",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRecover,
}

var purgeCmd = &cobra.Command{
	Use:   "purge <id>...",
	Short: "Permanently remove recently deleted tasks",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPurge,
}

func init() {
	rootCmd.AddCommand(addCmd, listCmd, showCmd, toggleCmd, reorderCmd, deleteCmd, deletedCmd, recoverCmd, purgeCmd)

	addCmd.Flags().StringVarP(&addColor, "color", "c", "", "Task color ("+paletteNames()+")")
	addCmd.Flags().StringVar(&addAudio, "audio", "", "URI of a voice note to attach")

	listflags.AddJSONFlag(listCmd, &listJSON)
	listflags.AddAllFlag(listCmd, &listAll, "Include recently deleted tasks")

	listflags.AddJSONFlag(showCmd, &showJSON)
	listflags.AddJSONFlag(deletedCmd, &deletedJSON)
}

func paletteNames() string {
	return validation.FormatValidValues(task.Palette())
}

func runAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	outcome, err := a.repo.Create(cmd.Context(), strings.Join(args, " "), task.CreateOptions{
		Color:    addColor,
		AudioURI: addAudio,
	})
	if err != nil {
		return err
	}
	reportOutcome(cmd, outcome)

	highlight := a.highlighter()
	fmt.Fprintf(cmd.OutOrStdout(), "Created task %s: %s\n", highlight(outcome.Task.ID), taskLabel(outcome.Task))
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	tasks := a.repo.Active()
	if listAll {
		tasks = append(tasks, a.repo.Deleted(cmd.Context())...)
	}

	if listJSON {
		return encodeJSON(cmd.OutOrStdout(), tasks)
	}
	if len(tasks) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No tasks found.")
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), formatTaskTable(tasks, a.highlighter(), time.Now()))
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ids, err := a.resolveIDs(args)
	if err != nil {
		return err
	}
	tasks := make([]task.Task, 0, len(ids))
	for _, id := range ids {
		t, ok := a.repo.Get(id)
		if !ok {
			return fmt.Errorf("%w: %s", task.ErrNotFound, id)
		}
		tasks = append(tasks, t)
	}

	if showJSON {
		return encodeJSON(cmd.OutOrStdout(), tasks)
	}

	highlight := a.highlighter()
	now := time.Now()
	for i, t := range tasks {
		if i > 0 {
			fmt.Fprintln(cmd.OutOrStdout())
		}
		fmt.Fprint(cmd.OutOrStdout(), formatTaskDetail(t, highlight, now))
	}
	return nil
}

func formatTaskDetail(t task.Task, highlight func(string) string, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ID:        %s\n", highlight(t.ID))
	fmt.Fprintf(&b, "Color:     %s\n", ui.Swatch(t.Color))
	fmt.Fprintf(&b, "Completed: %t\n", t.Completed)
	fmt.Fprintf(&b, "Created:   %s\n", ui.FormatTimeAgo(t.CreatedAt, now))
	fmt.Fprintf(&b, "Edited:    %s\n", ui.FormatTimeAgo(t.EditedAt, now))
	if t.HasAudio() {
		fmt.Fprintf(&b, "Audio:     %s\n", t.AudioURI)
	}
	if t.IsDeleted() {
		fmt.Fprintf(&b, "Deleted:   %s (%d days left)\n", ui.FormatTimeAgo(t.DeletedAt, now), task.DaysLeft(t, now))
	}
	if len(t.Reminders) > 0 {
		b.WriteString("Reminders:\n")
		for _, r := range t.Reminders {
			state := "scheduled"
			if !r.Live() {
				state = "display only"
			}
			fmt.Fprintf(&b, "  %s %s\n", ui.FormatReminder(r.FireAt, now), state)
		}
	}
	if text := markdown.SafeRender(80, 4, []byte(t.Text)); len(text) > 0 {
		b.WriteString("\n")
		b.Write(text)
		b.WriteString("\n")
	}
	return b.String()
}

func runToggle(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ids, err := a.resolveIDs(args)
	if err != nil {
		return err
	}
	highlight := a.highlighter()
	for _, id := range ids {
		outcome, err := a.repo.ToggleCompleted(cmd.Context(), id)
		if err != nil {
			return err
		}
		reportOutcome(cmd, outcome)
		if !outcome.Applied {
			return fmt.Errorf("%w: %s", task.ErrNotFound, id)
		}
		verb := "Reopened"
		if outcome.Task.Completed {
			verb = "Completed"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s task %s\n", verb, highlight(id))
	}
	return nil
}

func runReorder(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ids, err := a.resolveIDs(args)
	if err != nil {
		return err
	}
	outcome, err := a.repo.Reorder(cmd.Context(), ids)
	if err != nil {
		return err
	}
	reportOutcome(cmd, outcome)
	fmt.Fprintf(cmd.OutOrStdout(), "Reordered %d tasks\n", len(ids))
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ids, err := a.resolveIDs(args)
	if err != nil {
		return err
	}
	highlight := a.highlighter()
	for _, id := range ids {
		outcome, err := a.repo.SoftDelete(cmd.Context(), id)
		if err != nil {
			return err
		}
		reportOutcome(cmd, outcome)
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s (recoverable for %d days)\n", highlight(id), task.DaysLeft(outcome.Task, time.Now()))
	}
	return nil
}

func runDeleted(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	tasks := a.repo.Deleted(cmd.Context())
	if deletedJSON {
		return encodeJSON(cmd.OutOrStdout(), tasks)
	}
	if len(tasks) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No recently deleted tasks.")
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), formatDeletedTable(tasks, a.highlighter(), time.Now()))
	return nil
}

func runRecover(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ids, err := a.resolveIDs(args)
	if err != nil {
		return err
	}
	highlight := a.highlighter()
	for _, id := range ids {
		outcome, err := a.repo.Recover(cmd.Context(), id)
		if err != nil {
			return err
		}
		reportOutcome(cmd, outcome)
		if !outcome.Applied {
			fmt.Fprintf(cmd.OutOrStdout(), "Task %s is not deleted\n", highlight(id))
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Recovered task %s\n", highlight(id))
	}
	return nil
}

func runPurge(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ids, err := a.resolveIDs(args)
	if err != nil {
		return err
	}
	for _, id := range ids {
		outcome, err := a.repo.Purge(cmd.Context(), id)
		if err != nil {
			return err
		}
		reportOutcome(cmd, outcome)
		fmt.Fprintf(cmd.OutOrStdout(), "Purged task %s\n", id)
	}
	return nil
}
