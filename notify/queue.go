// Package notify delivers reminders from a terminal environment.
//
// A Queue stores scheduled notifications in the durable store so that the
// process editing tasks and the long-running Worker that fires them can be
// different processes. The Worker claims due entries and hands them to a
// Dispatcher, retrying failed deliveries with exponential backoff.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/amonks/taskmate/internal/clock"
	"github.com/amonks/taskmate/kvstore"
	"github.com/amonks/taskmate/reminder"
)

// Key is the store key holding the queue.
const Key = "notifications"

// ClaimTimeout is how long a claimed entry may stay undelivered before
// another worker may claim it again.
const ClaimTimeout = 5 * time.Minute

var (
	// ErrUnknownHandle is returned when cancelling a handle that is not
	// in the queue.
	ErrUnknownHandle = errors.New("unknown notification handle")

	// ErrNotInFuture is returned when scheduling a notification whose
	// fire time has already passed.
	ErrNotInFuture = errors.New("notification time is not in the future")
)

// Entry is a scheduled notification.
type Entry struct {
	Handle    string    `json:"handle"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	FireAt    time.Time `json:"fireAt"`
	Attempts  int       `json:"attempts,omitempty"`
	LastError string    `json:"lastError,omitempty"`
	ClaimedAt time.Time `json:"claimedAt,omitzero"`
}

func (e Entry) claimed(now time.Time) bool {
	return !e.ClaimedAt.IsZero() && now.Sub(e.ClaimedAt) < ClaimTimeout
}

// QueueOptions configures NewQueue.
type QueueOptions struct {
	Clock  clock.Clock
	Logger *slog.Logger
}

// Queue is a reminder.Scheduler backed by a kvstore key.
type Queue struct {
	store  kvstore.Store
	clock  clock.Clock
	logger *slog.Logger
}

var _ reminder.Scheduler = (*Queue)(nil)

// NewQueue returns a Queue persisting to store.
func NewQueue(store kvstore.Store, opts QueueOptions) *Queue {
	q := &Queue{store: store, clock: opts.Clock, logger: opts.Logger}
	if q.clock == nil {
		q.clock = clock.Real()
	}
	if q.logger == nil {
		q.logger = slog.New(slog.DiscardHandler)
	}
	return q
}

// Schedule adds n to the queue and returns its handle.
func (q *Queue) Schedule(ctx context.Context, n reminder.Notification) (string, error) {
	if !n.FireAt.After(q.clock.Now()) {
		return "", fmt.Errorf("%w: %s", ErrNotInFuture, n.FireAt.Format(time.RFC3339))
	}
	entry := Entry{
		Handle: uuid.NewString(),
		Title:  n.Title,
		Body:   n.Body,
		FireAt: n.FireAt,
	}
	err := q.update(ctx, func(entries []Entry) ([]Entry, error) {
		return append(entries, entry), nil
	})
	if err != nil {
		return "", err
	}
	q.logger.Debug("notification scheduled", "handle", entry.Handle, "fire_at", entry.FireAt)
	return entry.Handle, nil
}

// Cancel removes the entry for handle.
func (q *Queue) Cancel(ctx context.Context, handle string) error {
	err := q.update(ctx, func(entries []Entry) ([]Entry, error) {
		for i, e := range entries {
			if e.Handle == handle {
				return append(entries[:i], entries[i+1:]...), nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownHandle, handle)
	})
	if err != nil {
		return err
	}
	q.logger.Debug("notification cancelled", "handle", handle)
	return nil
}

// List returns every queued entry ordered by fire time.
func (q *Queue) List(ctx context.Context) ([]Entry, error) {
	data, found, err := q.store.Get(ctx, Key)
	if err != nil {
		return nil, fmt.Errorf("read notifications: %w", err)
	}
	entries, err := decodeEntries(data, found)
	if err != nil {
		return nil, err
	}
	sortEntries(entries)
	return entries, nil
}

// Due returns the unclaimed entries whose fire time is at or before now.
func (q *Queue) Due(ctx context.Context, now time.Time) ([]Entry, error) {
	entries, err := q.List(ctx)
	if err != nil {
		return nil, err
	}
	var due []Entry
	for _, e := range entries {
		if !e.FireAt.After(now) && !e.claimed(now) {
			due = append(due, e)
		}
	}
	return due, nil
}

// Claim marks every due, unclaimed entry as claimed at now and returns
// them. Claimed entries stay in the queue until Ack or Retry; a claim older
// than ClaimTimeout lapses so a crashed worker does not lose them.
func (q *Queue) Claim(ctx context.Context, now time.Time) ([]Entry, error) {
	var claimed []Entry
	err := q.update(ctx, func(entries []Entry) ([]Entry, error) {
		claimed = claimed[:0]
		for i := range entries {
			if entries[i].FireAt.After(now) || entries[i].claimed(now) {
				continue
			}
			entries[i].ClaimedAt = now
			claimed = append(claimed, entries[i])
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	sortEntries(claimed)
	return claimed, nil
}

// Ack removes a delivered entry. A missing handle means it was cancelled
// while being delivered and is not an error.
func (q *Queue) Ack(ctx context.Context, handle string) error {
	return q.update(ctx, func(entries []Entry) ([]Entry, error) {
		for i, e := range entries {
			if e.Handle == handle {
				return append(entries[:i], entries[i+1:]...), nil
			}
		}
		return entries, nil
	})
}

// Retry releases a claimed entry to fire again at runAt, recording the
// attempt count and error.
func (q *Queue) Retry(ctx context.Context, handle string, attempts int, runAt time.Time, lastErr string) error {
	return q.update(ctx, func(entries []Entry) ([]Entry, error) {
		for i := range entries {
			if entries[i].Handle != handle {
				continue
			}
			entries[i].Attempts = attempts
			entries[i].FireAt = runAt
			entries[i].LastError = lastErr
			entries[i].ClaimedAt = time.Time{}
		}
		return entries, nil
	})
}

func (q *Queue) update(ctx context.Context, fn func([]Entry) ([]Entry, error)) error {
	err := kvstore.Update(ctx, q.store, Key, func(current []byte, found bool) ([]byte, error) {
		entries, err := decodeEntries(current, found)
		if err != nil {
			return nil, err
		}
		next, err := fn(entries)
		if err != nil {
			return nil, err
		}
		if next == nil {
			next = []Entry{}
		}
		return json.Marshal(next)
	})
	if err != nil {
		return fmt.Errorf("update notifications: %w", err)
	}
	return nil
}

func decodeEntries(data []byte, found bool) ([]Entry, error) {
	if !found || len(data) == 0 {
		return []Entry{}, nil
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	return entries, nil
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].FireAt.Before(entries[j].FireAt) })
}
