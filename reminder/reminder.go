// Package reminder reconciles the reminders attached to a task with the
// registrations held by a notification scheduler.
//
// A Reminder with a non-empty NotificationID corresponds to exactly one
// outstanding registration with the Scheduler. A Reminder with an empty
// NotificationID is display-only: it is shown to the user but nothing
// will fire for it.
package reminder

import (
	"context"
	"encoding/json"
	"strconv"
	"time"
)

// Reminder is a single alert bound to a task.
type Reminder struct {
	// ID is derived from FireAt, so two reminders on one task can never
	// share a fire time.
	ID string

	// FireAt is when the reminder should fire, at millisecond precision.
	FireAt time.Time

	// NotificationID is the scheduler handle. Empty means not scheduled.
	NotificationID string
}

// New builds a reminder for fireAt carrying the given scheduler handle.
func New(fireAt time.Time, notificationID string) Reminder {
	fireAt = truncateMillis(fireAt)
	return Reminder{
		ID:             IDFor(fireAt),
		FireAt:         fireAt,
		NotificationID: notificationID,
	}
}

// IDFor returns the reminder id for a fire time.
func IDFor(fireAt time.Time) string {
	return strconv.FormatInt(fireAt.UnixMilli(), 10)
}

// Live reports whether the reminder holds a scheduler registration.
func (r Reminder) Live() bool {
	return r.NotificationID != ""
}

type wireReminder struct {
	ID             string `json:"id"`
	FireAt         int64  `json:"fireAt"`
	NotificationID string `json:"notificationId"`
}

// MarshalJSON encodes the reminder with fireAt in milliseconds since epoch.
func (r Reminder) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireReminder{
		ID:             r.ID,
		FireAt:         r.FireAt.UnixMilli(),
		NotificationID: r.NotificationID,
	})
}

// UnmarshalJSON decodes the wire form. A missing id is derived from fireAt.
func (r *Reminder) UnmarshalJSON(data []byte) error {
	var wire wireReminder
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	r.FireAt = time.UnixMilli(wire.FireAt)
	r.ID = wire.ID
	if r.ID == "" {
		r.ID = IDFor(r.FireAt)
	}
	r.NotificationID = wire.NotificationID
	return nil
}

// Notification is the payload handed to a Scheduler.
type Notification struct {
	Title  string
	Body   string
	FireAt time.Time
}

// Scheduler registers notifications to fire at a future time.
type Scheduler interface {
	// Schedule registers n and returns an opaque handle.
	Schedule(ctx context.Context, n Notification) (string, error)

	// Cancel removes the registration identified by handle.
	Cancel(ctx context.Context, handle string) error
}

// PermissionGate reports whether notifications may be scheduled,
// requesting permission if it has not been decided yet.
type PermissionGate interface {
	EnsurePermission(ctx context.Context) (bool, error)
}

// GateFunc adapts a function to PermissionGate.
type GateFunc func(ctx context.Context) (bool, error)

// EnsurePermission calls fn.
func (fn GateFunc) EnsurePermission(ctx context.Context) (bool, error) {
	return fn(ctx)
}

// Granted is a PermissionGate that always allows scheduling.
var Granted PermissionGate = GateFunc(func(context.Context) (bool, error) { return true, nil })

// Denied is a PermissionGate that never allows scheduling.
var Denied PermissionGate = GateFunc(func(context.Context) (bool, error) { return false, nil })

func truncateMillis(t time.Time) time.Time {
	return time.UnixMilli(t.UnixMilli())
}
