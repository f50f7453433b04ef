package task

import (
	"context"
	"fmt"
	"time"

	"github.com/amonks/taskmate/internal/ids"
	internalstrings "github.com/amonks/taskmate/internal/strings"
	"github.com/amonks/taskmate/reminder"
)

// VoiceNoteBody is the notification body used for tasks without text.
const VoiceNoteBody = "(voice note)"

// CreateOptions configures a new task.
type CreateOptions struct {
	// Color defaults to white.
	Color string

	// AudioURI attaches a voice note.
	AudioURI string
}

// Create adds a task to the front of the active partition.
func (r *Repository) Create(ctx context.Context, text string, opts CreateOptions) (Outcome, error) {
	color, err := ParseColor(opts.Color)
	if err != nil {
		return Outcome{}, err
	}
	if internalstrings.IsBlank(text) && opts.AudioURI == "" {
		return Outcome{}, ErrEmptyTask
	}

	now := r.clock.Now()

	r.mu.Lock()
	if internalstrings.IsBlank(text) {
		text = NextVoiceNoteLabel(r.active)
	}
	taken := make(map[string]bool, len(r.active)+len(r.deleted))
	for _, t := range r.active {
		taken[t.ID] = true
	}
	for _, t := range r.deleted {
		taken[t.ID] = true
	}
	created := Task{
		ID:        ids.GenerateUnique(text, now, ids.DefaultLength, func(id string) bool { return taken[id] }),
		Text:      text,
		Color:     color,
		CreatedAt: now,
		EditedAt:  now,
		AudioURI:  opts.AudioURI,
		Reminders: []reminder.Reminder{},
	}
	r.active = append([]Task{created}, r.active...)
	gen, snapshot := r.snapshotLocked(KeyActive)
	r.mu.Unlock()

	out := Outcome{Task: created.Clone(), Applied: true}
	out.PersistErr = r.persist(ctx, KeyActive, gen, snapshot)
	return out, nil
}

// ToggleCompleted flips the completed flag. An unknown id is a no-op.
func (r *Repository) ToggleCompleted(ctx context.Context, id string) (Outcome, error) {
	r.mu.Lock()
	idx := indexOf(r.active, id)
	if idx < 0 {
		r.mu.Unlock()
		return Outcome{}, nil
	}
	r.active[idx].Completed = !r.active[idx].Completed
	updated := r.active[idx].Clone()
	gen, snapshot := r.snapshotLocked(KeyActive)
	r.mu.Unlock()

	out := Outcome{Task: updated, Applied: true}
	out.PersistErr = r.persist(ctx, KeyActive, gen, snapshot)
	return out, nil
}

// Reorder replaces the active order. order must contain every active id
// exactly once.
func (r *Repository) Reorder(ctx context.Context, order []string) (Outcome, error) {
	r.mu.Lock()
	if len(order) != len(r.active) {
		r.mu.Unlock()
		return Outcome{}, fmt.Errorf("%w: got %d ids, have %d tasks", ErrInvalidOrder, len(order), len(r.active))
	}
	byID := make(map[string]Task, len(r.active))
	for _, t := range r.active {
		byID[t.ID] = t
	}
	reordered := make([]Task, 0, len(order))
	for _, id := range order {
		t, ok := byID[id]
		if !ok {
			r.mu.Unlock()
			return Outcome{}, fmt.Errorf("%w: unknown or repeated id %s", ErrInvalidOrder, id)
		}
		delete(byID, id)
		reordered = append(reordered, t)
	}
	r.active = reordered
	gen, snapshot := r.snapshotLocked(KeyActive)
	r.mu.Unlock()

	out := Outcome{Applied: true}
	out.PersistErr = r.persist(ctx, KeyActive, gen, snapshot)
	return out, nil
}

// EditInput is the new content for Edit.
type EditInput struct {
	Text string

	// Color keeps the task's current color when empty.
	Color string

	// Reminders is the complete desired set of fire times.
	Reminders []time.Time
}

// Edit replaces a task's text, color, and reminders. Reminders are
// reconciled with the scheduler before the change is committed.
func (r *Repository) Edit(ctx context.Context, id string, in EditInput) (Outcome, error) {
	var color Color
	if !internalstrings.IsBlank(in.Color) {
		parsed, err := ParseColor(in.Color)
		if err != nil {
			return Outcome{}, err
		}
		color = parsed
	}

	r.mu.Lock()
	idx := indexOf(r.active, id)
	if idx < 0 {
		r.mu.Unlock()
		return Outcome{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	current := r.active[idx].Clone()
	r.mu.Unlock()

	if color == "" {
		color = current.Color
	}

	text := in.Text
	if internalstrings.IsBlank(text) {
		if !current.HasAudio() {
			return Outcome{}, ErrEmptyTask
		}
		text = current.Text
	}

	result := r.coordinator.Reconcile(ctx, reminder.Request{
		Previous: current.Reminders,
		Desired:  in.Reminders,
		Title:    r.title,
		Body:     notificationBody(text),
	})

	r.mu.Lock()
	idx = indexOf(r.active, id)
	if idx < 0 {
		r.mu.Unlock()
		r.coordinator.CancelAll(ctx, newHandles(current.Reminders, result.Reminders))
		return Outcome{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	edited := &r.active[idx]
	edited.Text = text
	edited.Color = color
	edited.Reminders = result.Reminders
	edited.EditedAt = r.clock.Now()
	updated := edited.Clone()
	gen, snapshot := r.snapshotLocked(KeyActive)
	r.mu.Unlock()

	out := Outcome{Task: updated, Applied: true, Advisory: result.Advisory}
	out.PersistErr = r.persist(ctx, KeyActive, gen, snapshot)
	return out, nil
}

// SoftDelete cancels a task's reminders and moves it to the front of the
// deleted partition.
func (r *Repository) SoftDelete(ctx context.Context, id string) (Outcome, error) {
	r.mu.Lock()
	idx := indexOf(r.active, id)
	if idx < 0 {
		r.mu.Unlock()
		return Outcome{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	removed := r.active[idx]
	r.active = append(r.active[:idx:idx], r.active[idx+1:]...)
	live := removed.LiveReminders()
	removed.Reminders = []reminder.Reminder{}
	removed.DeletedAt = r.clock.Now()
	r.deleted = append([]Task{removed}, r.deleted...)
	deletedGen, deletedSnap := r.snapshotLocked(KeyDeleted)
	activeGen, activeSnap := r.snapshotLocked(KeyActive)
	r.mu.Unlock()

	r.coordinator.CancelAll(ctx, live)

	out := Outcome{Task: removed.Clone(), Applied: true}
	// Write the destination first so a crash never loses the task.
	out.PersistErr = firstErr(
		r.persist(ctx, KeyDeleted, deletedGen, deletedSnap),
		r.persist(ctx, KeyActive, activeGen, activeSnap),
	)
	return out, nil
}

// Recover moves a deleted task back to the front of the active partition.
// Its reminders are not restored. An unknown id is a no-op.
func (r *Repository) Recover(ctx context.Context, id string) (Outcome, error) {
	r.mu.Lock()
	idx := indexOf(r.deleted, id)
	if idx < 0 {
		r.mu.Unlock()
		return Outcome{}, nil
	}
	recovered := r.deleted[idx]
	r.deleted = append(r.deleted[:idx:idx], r.deleted[idx+1:]...)
	recovered.DeletedAt = time.Time{}
	if recovered.Reminders == nil {
		recovered.Reminders = []reminder.Reminder{}
	}
	r.active = append([]Task{recovered}, r.active...)
	activeGen, activeSnap := r.snapshotLocked(KeyActive)
	deletedGen, deletedSnap := r.snapshotLocked(KeyDeleted)
	r.mu.Unlock()

	out := Outcome{Task: recovered.Clone(), Applied: true}
	out.PersistErr = firstErr(
		r.persist(ctx, KeyActive, activeGen, activeSnap),
		r.persist(ctx, KeyDeleted, deletedGen, deletedSnap),
	)
	return out, nil
}

// Purge permanently removes a task from the deleted partition, cancelling
// any reminder that still holds a handle.
func (r *Repository) Purge(ctx context.Context, id string) (Outcome, error) {
	r.mu.Lock()
	idx := indexOf(r.deleted, id)
	if idx < 0 {
		r.mu.Unlock()
		return Outcome{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	purged := r.deleted[idx]
	r.deleted = append(r.deleted[:idx:idx], r.deleted[idx+1:]...)
	gen, snapshot := r.snapshotLocked(KeyDeleted)
	r.mu.Unlock()

	r.coordinator.CancelAll(ctx, purged.LiveReminders())

	out := Outcome{Task: purged.Clone(), Applied: true}
	out.PersistErr = r.persist(ctx, KeyDeleted, gen, snapshot)
	return out, nil
}

// Active returns the active partition in display order.
func (r *Repository) Active() []Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneAll(r.active)
}

// Deleted sweeps expired tasks and returns the deleted partition, most
// recently deleted first.
func (r *Repository) Deleted(ctx context.Context) []Task {
	if _, err := r.SweepExpired(ctx); err != nil {
		r.logger.Warn("expired tasks not persisted", "error", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneAll(r.deleted)
}

// Get returns the task with id from either partition.
func (r *Repository) Get(id string) (Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if idx := indexOf(r.active, id); idx >= 0 {
		return r.active[idx].Clone(), true
	}
	if idx := indexOf(r.deleted, id); idx >= 0 {
		return r.deleted[idx].Clone(), true
	}
	return Task{}, false
}

// IDIndex indexes the ids of both partitions for prefix resolution.
func (r *Repository) IDIndex() IDIndex {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]Task, 0, len(r.active)+len(r.deleted))
	all = append(all, r.active...)
	all = append(all, r.deleted...)
	return NewIDIndex(all)
}

func notificationBody(text string) string {
	if internalstrings.IsBlank(text) {
		return VoiceNoteBody
	}
	return text
}

// newHandles returns the live reminders in next that were not in prev.
func newHandles(prev, next []reminder.Reminder) []reminder.Reminder {
	had := make(map[string]bool, len(prev))
	for _, r := range prev {
		if r.Live() {
			had[r.NotificationID] = true
		}
	}
	var fresh []reminder.Reminder
	for _, r := range next {
		if r.Live() && !had[r.NotificationID] {
			fresh = append(fresh, r)
		}
	}
	return fresh
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
