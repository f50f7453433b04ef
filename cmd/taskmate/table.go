package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/amonks/taskmate/internal/ui"
	"github.com/amonks/taskmate/task"
)

func formatTaskTable(tasks []task.Task, highlight func(string) string, now time.Time) string {
	builder := ui.NewTableBuilder([]string{"ID", "DONE", "COLOR", "TEXT", "REMINDER"}, len(tasks))
	for _, t := range tasks {
		done := ""
		if t.Completed {
			done = "x"
		}
		builder.AddRow(
			highlight(t.ID),
			done,
			ui.Swatch(t.Color),
			ui.TruncateTableCell(taskLabel(t)),
			nextReminder(t, now),
		)
	}
	return builder.String()
}

func formatDeletedTable(tasks []task.Task, highlight func(string) string, now time.Time) string {
	builder := ui.NewTableBuilder([]string{"ID", "TEXT", "DELETED", "DAYS LEFT"}, len(tasks))
	for _, t := range tasks {
		builder.AddRow(
			highlight(t.ID),
			ui.TruncateTableCell(taskLabel(t)),
			ui.FormatTimeAgo(t.DeletedAt, now),
			strconv.Itoa(task.DaysLeft(t, now)),
		)
	}
	return builder.String()
}

// nextReminder summarizes the earliest upcoming reminder and how many
// more follow it.
func nextReminder(t task.Task, now time.Time) string {
	var next time.Time
	upcoming := 0
	for _, fireAt := range t.FireTimes() {
		if !fireAt.After(now) {
			continue
		}
		upcoming++
		if next.IsZero() || fireAt.Before(next) {
			next = fireAt
		}
	}
	switch upcoming {
	case 0:
		return "-"
	case 1:
		return ui.FormatUntil(next, now)
	default:
		return fmt.Sprintf("%s (+%d)", ui.FormatUntil(next, now), upcoming-1)
	}
}
