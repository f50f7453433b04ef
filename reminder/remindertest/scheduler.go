// Package remindertest provides an in-memory reminder.Scheduler for tests.
package remindertest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/amonks/taskmate/reminder"
)

// ErrInjected is returned by calls configured to fail.
var ErrInjected = errors.New("injected scheduler failure")

// Scheduler records every call and keeps the set of live registrations.
type Scheduler struct {
	mu sync.Mutex

	next      int
	live      map[string]reminder.Notification
	scheduled []reminder.Notification
	cancelled []string

	// FailSchedule makes Schedule return ErrInjected.
	FailSchedule bool

	// FailCancel makes Cancel return ErrInjected after recording the call.
	FailCancel bool
}

// NewScheduler returns an empty Scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{live: make(map[string]reminder.Notification)}
}

// Schedule implements reminder.Scheduler.
func (s *Scheduler) Schedule(ctx context.Context, n reminder.Notification) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduled = append(s.scheduled, n)
	if s.FailSchedule {
		return "", ErrInjected
	}
	s.next++
	handle := fmt.Sprintf("handle-%d", s.next)
	s.live[handle] = n
	return handle, nil
}

// Cancel implements reminder.Scheduler.
func (s *Scheduler) Cancel(ctx context.Context, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = append(s.cancelled, handle)
	if s.FailCancel {
		return ErrInjected
	}
	delete(s.live, handle)
	return nil
}

// Scheduled returns every notification passed to Schedule, in call order.
func (s *Scheduler) Scheduled() []reminder.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]reminder.Notification(nil), s.scheduled...)
}

// Cancelled returns every handle passed to Cancel, in call order.
func (s *Scheduler) Cancelled() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.cancelled...)
}

// Live reports whether handle is still registered.
func (s *Scheduler) Live(handle string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.live[handle]
	return ok
}

// LiveCount returns the number of registrations not yet cancelled.
func (s *Scheduler) LiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// Reset forgets recorded calls but keeps live registrations.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduled = nil
	s.cancelled = nil
}
