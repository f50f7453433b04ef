package task

import (
	"context"
	"time"

	"github.com/amonks/taskmate/internal/age"
)

// TTL is how long a deleted task is kept before it is purged.
const TTL = 30 * age.Day

// Sweep splits tasks into those still within ttl of their deletion and
// those that have expired. Tasks without a deletion time are kept.
func Sweep(tasks []Task, now time.Time, ttl time.Duration) (kept, expired []Task) {
	kept = make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if age.Expired(t.DeletedAt, ttl, now) {
			expired = append(expired, t)
			continue
		}
		kept = append(kept, t)
	}
	return kept, expired
}

// DaysLeft returns the whole days remaining before t is purged.
func DaysLeft(t Task, now time.Time) int {
	return age.DaysLeft(t.DeletedAt, TTL, now)
}

// SweepExpired purges expired tasks from the deleted partition and returns
// them. The partition is persisted only when something was removed.
func (r *Repository) SweepExpired(ctx context.Context) ([]Task, error) {
	now := r.clock.Now()

	r.mu.Lock()
	kept, expired := Sweep(r.deleted, now, TTL)
	if len(expired) == 0 {
		r.mu.Unlock()
		return nil, nil
	}
	r.deleted = kept
	gen, snapshot := r.snapshotLocked(KeyDeleted)
	r.mu.Unlock()

	for _, t := range expired {
		r.coordinator.CancelAll(ctx, t.LiveReminders())
		r.logger.Debug("purged expired task", "id", t.ID, "deleted_at", t.DeletedAt)
	}
	return cloneAll(expired), r.persist(ctx, KeyDeleted, gen, snapshot)
}
