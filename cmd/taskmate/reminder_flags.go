package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// reminderTimeLayouts are accepted by --remind, most specific first.
// Layouts without a zone are read in local time.
var reminderTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// timeListValue is a repeatable flag collecting absolute times.
type timeListValue struct {
	times *[]time.Time
}

var _ pflag.Value = (*timeListValue)(nil)

func newTimeListValue(target *[]time.Time) *timeListValue {
	return &timeListValue{times: target}
}

func (v *timeListValue) String() string {
	if v.times == nil {
		return ""
	}
	values := make([]string, 0, len(*v.times))
	for _, t := range *v.times {
		values = append(values, t.Format(time.RFC3339))
	}
	return strings.Join(values, ",")
}

func (v *timeListValue) Set(value string) error {
	t, err := parseReminderTime(value)
	if err != nil {
		return err
	}
	*v.times = append(*v.times, t)
	return nil
}

func (v *timeListValue) Type() string {
	return "time"
}

func parseReminderTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range reminderTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q: use RFC 3339 (2025-01-02T15:04:05Z) or 2025-01-02 15:04", value)
}

// desiredReminders combines a task's current reminders with edit flags.
func desiredReminders(current []time.Time, clear bool, at []time.Time, in []time.Duration, now time.Time) []time.Time {
	var desired []time.Time
	if !clear {
		desired = append(desired, current...)
	}
	desired = append(desired, at...)
	for _, d := range in {
		desired = append(desired, now.Add(d))
	}
	return desired
}
