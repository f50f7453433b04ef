package ui

import (
	"fmt"
	"time"

	internalage "github.com/amonks/taskmate/internal/age"
)

// FormatTimeAgo returns a compact age string like "2m ago".
func FormatTimeAgo(then time.Time, now time.Time) string {
	duration, ok := internalage.AgeData(then, now)
	if !ok {
		return "-"
	}
	return FormatDurationShort(duration) + " ago"
}

// FormatUntil returns a compact countdown like "in 2h", or "now" once
// then has passed.
func FormatUntil(then time.Time, now time.Time) string {
	if then.IsZero() {
		return "-"
	}
	if !then.After(now) {
		return "now"
	}
	return "in " + FormatDurationShort(then.Sub(now))
}

// FormatReminder renders a reminder time with its countdown.
func FormatReminder(fireAt time.Time, now time.Time) string {
	return fmt.Sprintf("%s (%s)", fireAt.Local().Format("Mon Jan 2 15:04"), FormatUntil(fireAt, now))
}

// FormatDurationShort formats a duration using short units (s/m/h/d).
func FormatDurationShort(duration time.Duration) string {
	if duration < 0 {
		duration = 0
	}

	seconds := int64(duration.Truncate(time.Second).Seconds())
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds < 60*60:
		return fmt.Sprintf("%dm", seconds/60)
	case seconds < 24*60*60:
		return fmt.Sprintf("%dh", seconds/(60*60))
	default:
		return fmt.Sprintf("%dd", seconds/(24*60*60))
	}
}
