// Package task owns the lifecycle of notes and their reminders.
//
// Tasks live in one of two partitions. The active partition holds tasks
// shown in the main list; the deleted partition holds soft-deleted tasks
// until they expire after TTL and are purged.
//
// The public API mirrors the CLI commands:
//   - Create, Edit, ToggleCompleted, Reorder for active tasks
//   - SoftDelete, Recover, Purge for moving between partitions
//   - Active, Deleted, Get for reads
package task

import (
	"encoding/json"
	"time"

	"github.com/amonks/taskmate/reminder"
)

// Task is a single note.
type Task struct {
	// ID is an 8-character lowercase base32 hash.
	ID string

	// Text is the note body. It may be empty only when AudioURI is set.
	Text string

	Completed bool

	// Color is one of Palette. Stored tasks always carry a valid color.
	Color Color

	CreatedAt time.Time
	EditedAt  time.Time

	// AudioURI references an externally recorded voice note. It is never
	// changed after creation.
	AudioURI string

	// DeletedAt is set only while the task is in the deleted partition.
	DeletedAt time.Time

	// Reminders is ordered by fire time.
	Reminders []reminder.Reminder
}

// IsDeleted reports whether the task carries a deletion timestamp.
func (t Task) IsDeleted() bool {
	return !t.DeletedAt.IsZero()
}

// HasAudio reports whether the task has a voice note attached.
func (t Task) HasAudio() bool {
	return t.AudioURI != ""
}

// LiveReminders returns the reminders that hold a scheduler handle.
func (t Task) LiveReminders() []reminder.Reminder {
	var live []reminder.Reminder
	for _, r := range t.Reminders {
		if r.Live() {
			live = append(live, r)
		}
	}
	return live
}

// FireTimes returns the fire time of every reminder on the task.
func (t Task) FireTimes() []time.Time {
	times := make([]time.Time, 0, len(t.Reminders))
	for _, r := range t.Reminders {
		times = append(times, r.FireAt)
	}
	return times
}

// Clone returns a copy that shares no mutable state with t.
func (t Task) Clone() Task {
	clone := t
	if t.Reminders != nil {
		clone.Reminders = append([]reminder.Reminder{}, t.Reminders...)
	}
	return clone
}

type wireTask struct {
	ID        string              `json:"id"`
	Text      string              `json:"text"`
	Completed bool                `json:"completed"`
	Color     Color               `json:"color"`
	CreatedAt int64               `json:"createdAt"`
	EditedAt  int64               `json:"editedAt"`
	AudioURI  string              `json:"audioUri,omitempty"`
	DeletedAt *int64              `json:"deletedAt,omitempty"`
	Reminders []reminder.Reminder `json:"reminders"`
}

// MarshalJSON encodes the task with timestamps in milliseconds since epoch.
func (t Task) MarshalJSON() ([]byte, error) {
	wire := wireTask{
		ID:        t.ID,
		Text:      t.Text,
		Completed: t.Completed,
		Color:     t.Color,
		CreatedAt: t.CreatedAt.UnixMilli(),
		EditedAt:  t.EditedAt.UnixMilli(),
		AudioURI:  t.AudioURI,
		Reminders: t.Reminders,
	}
	if wire.Reminders == nil {
		wire.Reminders = []reminder.Reminder{}
	}
	if t.IsDeleted() {
		ms := t.DeletedAt.UnixMilli()
		wire.DeletedAt = &ms
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes the wire form. Unknown colors fall back to white.
func (t *Task) UnmarshalJSON(data []byte) error {
	var wire wireTask
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	color, err := ParseColor(string(wire.Color))
	if err != nil {
		color = ColorWhite
	}
	*t = Task{
		ID:        wire.ID,
		Text:      wire.Text,
		Completed: wire.Completed,
		Color:     color,
		CreatedAt: time.UnixMilli(wire.CreatedAt),
		EditedAt:  time.UnixMilli(wire.EditedAt),
		AudioURI:  wire.AudioURI,
		Reminders: wire.Reminders,
	}
	if t.Reminders == nil {
		t.Reminders = []reminder.Reminder{}
	}
	if wire.DeletedAt != nil {
		t.DeletedAt = time.UnixMilli(*wire.DeletedAt)
	}
	return nil
}
