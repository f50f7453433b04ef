package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/amonks/taskmate/internal/clock"
)

// DefaultLead is how far in the future a reminder must be to be scheduled.
const DefaultLead = time.Second

// DefaultTitle is the notification title used when a request has none.
const DefaultTitle = "Task Mate"

// Options configures a Coordinator.
type Options struct {
	// Scheduler registers notifications. A nil Scheduler behaves like an
	// unsupported platform.
	Scheduler Scheduler

	// Permission gates scheduling. Nil means always granted.
	Permission PermissionGate

	// Clock defaults to the real clock.
	Clock clock.Clock

	// Logger defaults to a discarding logger.
	Logger *slog.Logger

	// Platform defaults to PlatformNative.
	Platform Platform

	// Lead defaults to DefaultLead.
	Lead time.Duration
}

// Coordinator turns a previous reminder set and a desired set of fire
// times into a new set whose handles match the scheduler's registrations.
type Coordinator struct {
	scheduler  Scheduler
	permission PermissionGate
	clock      clock.Clock
	logger     *slog.Logger
	platform   Platform
	lead       time.Duration
}

// NewCoordinator builds a Coordinator from opts.
func NewCoordinator(opts Options) *Coordinator {
	c := &Coordinator{
		scheduler:  opts.Scheduler,
		permission: opts.Permission,
		clock:      opts.Clock,
		logger:     opts.Logger,
		platform:   opts.Platform,
		lead:       opts.Lead,
	}
	if c.permission == nil {
		c.permission = Granted
	}
	if c.clock == nil {
		c.clock = clock.Real()
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.platform == "" {
		c.platform = PlatformNative
	}
	if c.lead <= 0 {
		c.lead = DefaultLead
	}
	return c
}

// Request describes one reconciliation.
type Request struct {
	// Previous is the reminder set currently stored on the task.
	Previous []Reminder

	// Desired is the set of fire times the caller wants.
	Desired []time.Time

	// Title and Body are the notification contents for new registrations.
	Title string
	Body  string
}

// Result is the outcome of a reconciliation.
type Result struct {
	// Reminders is the new set, ordered by fire time. Never nil.
	Reminders []Reminder

	// Advisory is a user-facing notice wrapping ErrPermissionDenied or
	// ErrUnsupportedPlatform. It does not indicate failure of the edit.
	Advisory error

	// Scheduled and Cancelled count scheduler calls that were attempted.
	Scheduled int
	Cancelled int
}

// Reconcile computes the new reminder set for req.
//
// Previous live reminders whose fire time is still desired are kept as-is
// without touching the scheduler. Every other live reminder is cancelled
// before anything new is scheduled. Fire times at or before now plus the
// lead are dropped.
func (c *Coordinator) Reconcile(ctx context.Context, req Request) Result {
	now := c.clock.Now()
	upcoming := c.upcoming(req.Desired, now)

	if len(upcoming) == 0 {
		return Result{
			Reminders: []Reminder{},
			Cancelled: c.CancelAll(ctx, req.Previous),
		}
	}

	if !c.platform.SupportsScheduling() || c.scheduler == nil {
		result := Result{
			Reminders: make([]Reminder, 0, len(upcoming)),
			Cancelled: c.CancelAll(ctx, req.Previous),
			Advisory:  fmt.Errorf("%w: reminders are saved but will not fire", ErrUnsupportedPlatform),
		}
		for _, at := range upcoming {
			result.Reminders = append(result.Reminders, New(at, ""))
		}
		return result
	}

	granted, err := c.permission.EnsurePermission(ctx)
	if err != nil {
		c.logger.Warn("notification permission check failed", "error", err)
		granted = false
	}
	if !granted {
		return Result{
			Reminders: []Reminder{},
			Cancelled: c.CancelAll(ctx, req.Previous),
			Advisory:  fmt.Errorf("%w: enable notifications to use reminders", ErrPermissionDenied),
		}
	}

	keep := make(map[int64]Reminder, len(req.Previous))
	wanted := make(map[int64]bool, len(upcoming))
	for _, at := range upcoming {
		wanted[at.UnixMilli()] = true
	}
	var drop []Reminder
	for _, r := range req.Previous {
		ms := r.FireAt.UnixMilli()
		if r.Live() && wanted[ms] {
			if _, dup := keep[ms]; !dup {
				keep[ms] = r
				continue
			}
		}
		drop = append(drop, r)
	}

	result := Result{
		Reminders: make([]Reminder, 0, len(upcoming)),
		Cancelled: c.CancelAll(ctx, drop),
	}

	title := req.Title
	if title == "" {
		title = DefaultTitle
	}
	for _, at := range upcoming {
		if kept, ok := keep[at.UnixMilli()]; ok {
			result.Reminders = append(result.Reminders, kept)
			continue
		}
		result.Scheduled++
		handle, err := c.scheduler.Schedule(ctx, Notification{Title: title, Body: req.Body, FireAt: at})
		if err != nil {
			c.logger.Warn("reminder not scheduled",
				"fire_at", at,
				"error", fmt.Errorf("%w: %w", ErrScheduleFailed, err))
			handle = ""
		}
		result.Reminders = append(result.Reminders, New(at, handle))
	}
	return result
}

// CancelAll cancels every live reminder in reminders, ignoring failures.
// It returns the number of cancellations attempted.
func (c *Coordinator) CancelAll(ctx context.Context, reminders []Reminder) int {
	attempts := 0
	for _, r := range reminders {
		if !r.Live() {
			continue
		}
		attempts++
		if c.scheduler == nil {
			continue
		}
		if err := c.scheduler.Cancel(ctx, r.NotificationID); err != nil {
			c.logger.Warn("reminder not cancelled",
				"handle", r.NotificationID,
				"fire_at", r.FireAt,
				"error", fmt.Errorf("%w: %w", ErrCancelFailed, err))
		}
	}
	return attempts
}

// upcoming returns the distinct desired fire times, truncated to the
// millisecond and sorted, that lie after now plus the lead.
func (c *Coordinator) upcoming(desired []time.Time, now time.Time) []time.Time {
	cutoff := now.Add(c.lead)
	seen := make(map[int64]bool, len(desired))
	out := make([]time.Time, 0, len(desired))
	for _, at := range desired {
		at = truncateMillis(at)
		if !at.After(cutoff) {
			continue
		}
		ms := at.UnixMilli()
		if seen[ms] {
			continue
		}
		seen[ms] = true
		out = append(out, at)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
