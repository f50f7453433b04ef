package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/amonks/taskmate/internal/clock"
	"github.com/amonks/taskmate/kvstore"
	"github.com/amonks/taskmate/reminder"
)

const (
	// KeyActive holds the active partition.
	KeyActive = "tasks"

	// KeyDeleted holds the deleted partition.
	KeyDeleted = "deletedTasks"
)

// StaleGrace is how far in the past a reminder may be and still survive
// loading.
const StaleGrace = 2 * time.Second

// Options configures Open.
type Options struct {
	// Store is required.
	Store kvstore.Store

	// Coordinator defaults to one with no scheduler, which keeps every
	// reminder display-only.
	Coordinator *reminder.Coordinator

	// Clock defaults to the real clock.
	Clock clock.Clock

	// Logger defaults to a discarding logger.
	Logger *slog.Logger

	// NotificationTitle defaults to reminder.DefaultTitle.
	NotificationTitle string
}

// Repository owns both task partitions and keeps the durable store in
// step with them.
type Repository struct {
	store       kvstore.Store
	coordinator *reminder.Coordinator
	clock       clock.Clock
	logger      *slog.Logger
	title       string

	mu      sync.Mutex
	active  []Task
	deleted []Task
	gen     map[string]uint64

	writeMu sync.Mutex
	written map[string]uint64
}

// Outcome describes the effect of a mutation.
type Outcome struct {
	// Task is the affected task after the mutation.
	Task Task

	// Applied is false when the mutation was a no-op.
	Applied bool

	// Advisory carries a reminder notice (permission denied or
	// unsupported platform) for the user.
	Advisory error

	// PersistErr is set when the durable write failed. The in-memory
	// change still stands.
	PersistErr error
}

// Open loads both partitions from opts.Store, drops reminders that are
// already in the past, and sweeps expired deleted tasks.
func Open(ctx context.Context, opts Options) (*Repository, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("task repository: store is required")
	}
	r := &Repository{
		store:       opts.Store,
		coordinator: opts.Coordinator,
		clock:       opts.Clock,
		logger:      opts.Logger,
		title:       opts.NotificationTitle,
		gen:         make(map[string]uint64),
		written:     make(map[string]uint64),
	}
	if r.clock == nil {
		r.clock = clock.Real()
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	if r.coordinator == nil {
		r.coordinator = reminder.NewCoordinator(reminder.Options{Clock: r.clock, Logger: r.logger})
	}
	if r.title == "" {
		r.title = reminder.DefaultTitle
	}

	active, err := r.load(ctx, KeyActive)
	if err != nil {
		return nil, err
	}
	deleted, err := r.load(ctx, KeyDeleted)
	if err != nil {
		return nil, err
	}

	// A crash between the two writes of a move can leave a task in both
	// partitions. The active copy wins.
	activeIDs := make(map[string]bool, len(active))
	for _, t := range active {
		activeIDs[t.ID] = true
	}
	deletedChanged := false
	kept := deleted[:0]
	for _, t := range deleted {
		if activeIDs[t.ID] {
			r.logger.Warn("task found in both partitions, keeping active copy", "id", t.ID)
			deletedChanged = true
			continue
		}
		kept = append(kept, t)
	}
	deleted = kept

	now := r.clock.Now()
	activeChanged := false
	for i := range active {
		active[i].DeletedAt = time.Time{}
		if pruned, changed := pruneStale(active[i].Reminders, now); changed {
			active[i].Reminders = pruned
			activeChanged = true
		}
	}

	r.mu.Lock()
	r.active = active
	r.deleted = deleted
	var activeSnap, deletedSnap []Task
	var activeGen, deletedGen uint64
	if activeChanged {
		activeGen, activeSnap = r.snapshotLocked(KeyActive)
	}
	if deletedChanged {
		deletedGen, deletedSnap = r.snapshotLocked(KeyDeleted)
	}
	r.mu.Unlock()

	if activeChanged {
		if err := r.persist(ctx, KeyActive, activeGen, activeSnap); err != nil {
			r.logger.Warn("pruned reminders not persisted", "error", err)
		}
	}
	if deletedChanged {
		if err := r.persist(ctx, KeyDeleted, deletedGen, deletedSnap); err != nil {
			r.logger.Warn("deduplicated deleted tasks not persisted", "error", err)
		}
	}

	if _, err := r.SweepExpired(ctx); err != nil {
		r.logger.Warn("expired tasks not persisted", "error", err)
	}
	return r, nil
}

func (r *Repository) load(ctx context.Context, key string) ([]Task, error) {
	data, found, err := r.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	if !found || len(data) == 0 {
		return []Task{}, nil
	}
	var tasks []Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return tasks, nil
}

// pruneStale drops reminders at least StaleGrace in the past.
func pruneStale(reminders []reminder.Reminder, now time.Time) ([]reminder.Reminder, bool) {
	cutoff := now.Add(-StaleGrace)
	kept := make([]reminder.Reminder, 0, len(reminders))
	for _, rem := range reminders {
		if rem.FireAt.After(cutoff) {
			kept = append(kept, rem)
		}
	}
	return kept, len(kept) != len(reminders)
}

// snapshotLocked copies the partition stored under key and assigns the
// copy a new generation. r.mu must be held.
func (r *Repository) snapshotLocked(key string) (uint64, []Task) {
	source := r.active
	if key == KeyDeleted {
		source = r.deleted
	}
	r.gen[key]++
	snapshot := make([]Task, len(source))
	for i, t := range source {
		snapshot[i] = t.Clone()
	}
	return r.gen[key], snapshot
}

// persist writes snapshot under key unless a newer generation has
// already been written.
func (r *Repository) persist(ctx context.Context, key string, gen uint64, snapshot []Task) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrPersistence, key, err)
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	if gen <= r.written[key] {
		r.logger.Debug("skipping stale write", "key", key, "generation", gen)
		return nil
	}
	if err := r.store.Set(ctx, key, data); err != nil {
		r.logger.Error("persist failed", "key", key, "generation", gen, "error", err)
		return fmt.Errorf("%w: write %s: %w", ErrPersistence, key, err)
	}
	r.written[key] = gen
	return nil
}

func indexOf(tasks []Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func cloneAll(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
