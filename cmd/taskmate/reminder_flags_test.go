package main

import (
	"strings"
	"testing"
	"time"
)

func TestTimeListValue(t *testing.T) {
	var times []time.Time
	value := newTimeListValue(&times)

	if err := value.Set("2025-01-02T09:00:00Z"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := value.Set("2025-01-03 10:30"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(times) != 2 {
		t.Fatalf("expected 2 times, got %v", times)
	}
	if !times[0].Equal(time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected first time %v", times[0])
	}
	if want := time.Date(2025, 1, 3, 10, 30, 0, 0, time.Local); !times[1].Equal(want) {
		t.Fatalf("expected local time %v, got %v", want, times[1])
	}
	if !strings.HasPrefix(value.String(), "2025-01-02T09:00:00Z,") {
		t.Fatalf("unexpected String() %q", value.String())
	}
	if value.Type() != "time" {
		t.Fatalf("unexpected Type() %q", value.Type())
	}
}

func TestTimeListValueRejectsGarbage(t *testing.T) {
	var times []time.Time
	err := newTimeListValue(&times).Set("tomorrow")
	if err == nil || !strings.Contains(err.Error(), "invalid time") {
		t.Fatalf("expected invalid time error, got %v", err)
	}
	if len(times) != 0 {
		t.Fatalf("expected no times, got %v", times)
	}
}

func TestDesiredReminders(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	current := []time.Time{now.Add(time.Hour)}
	at := []time.Time{now.Add(2 * time.Hour)}
	in := []time.Duration{30 * time.Minute}

	got := desiredReminders(current, false, at, in, now)
	if len(got) != 3 || !got[2].Equal(now.Add(30*time.Minute)) {
		t.Fatalf("unexpected reminders %v", got)
	}

	got = desiredReminders(current, true, nil, nil, now)
	if len(got) != 0 {
		t.Fatalf("expected cleared reminders, got %v", got)
	}
}
