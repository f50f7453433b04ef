package task

import (
	"context"
	"sort"
	"time"

	"github.com/amonks/taskmate/reminder"
)

// Due is a display-only reminder whose time has come.
type Due struct {
	TaskID string
	Text   string
	FireAt time.Time
}

// DueReminders removes display-only reminders whose fire time has passed
// and returns them, oldest first. It lets a runtime without a scheduler
// surface reminders itself. Live reminders are left to the scheduler.
func (r *Repository) DueReminders(ctx context.Context) ([]Due, error) {
	now := r.clock.Now()

	r.mu.Lock()
	var due []Due
	for i := range r.active {
		t := &r.active[i]
		kept := make([]reminder.Reminder, 0, len(t.Reminders))
		for _, rem := range t.Reminders {
			if !rem.Live() && !rem.FireAt.After(now) {
				due = append(due, Due{TaskID: t.ID, Text: notificationBody(t.Text), FireAt: rem.FireAt})
				continue
			}
			kept = append(kept, rem)
		}
		t.Reminders = kept
	}
	if len(due) == 0 {
		r.mu.Unlock()
		return nil, nil
	}
	gen, snapshot := r.snapshotLocked(KeyActive)
	r.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].FireAt.Before(due[j].FireAt) })
	return due, r.persist(ctx, KeyActive, gen, snapshot)
}
