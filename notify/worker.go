package notify

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/amonks/taskmate/internal/clock"
)

const (
	// DefaultInterval is how often the worker polls the queue.
	DefaultInterval = time.Second

	// DefaultMaxAttempts is how many deliveries are tried before an
	// entry is dropped.
	DefaultMaxAttempts = 8

	maxBackoff = 600 * time.Second
)

// Worker delivers due notifications from a Queue.
type Worker struct {
	Queue      *Queue
	Dispatcher Dispatcher

	// Clock defaults to the real clock.
	Clock clock.Clock

	// Logger defaults to a discarding logger.
	Logger *slog.Logger

	// Interval defaults to DefaultInterval.
	Interval time.Duration

	// MaxAttempts defaults to DefaultMaxAttempts.
	MaxAttempts int
}

// Run polls the queue every Interval until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	interval := w.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := w.clock().NewTicker(interval)
	defer ticker.Stop()

	w.logger().Info("notification worker started", "interval", interval)
	w.tickLogged(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger().Info("notification worker stopped")
			return nil
		case <-ticker.C:
			w.tickLogged(ctx)
		}
	}
}

func (w *Worker) tickLogged(ctx context.Context) {
	if _, err := w.Tick(ctx); err != nil {
		w.logger().Error("notification worker tick failed", "error", err)
	}
}

// Tick claims and dispatches every due notification once. It returns how
// many were delivered. A failed acknowledgement is logged and does not stop
// the remaining deliveries.
func (w *Worker) Tick(ctx context.Context) (int, error) {
	now := w.clock().Now()
	claimed, err := w.Queue.Claim(ctx, now)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, entry := range claimed {
		if err := w.Dispatcher.Dispatch(ctx, entry); err != nil {
			w.retry(ctx, entry, err)
			continue
		}
		delivered++
		if err := w.Queue.Ack(ctx, entry.Handle); err != nil {
			// The claim lapses after ClaimTimeout and the entry fires again.
			w.logger().Error("failed to acknowledge notification", "handle", entry.Handle, "error", err)
			continue
		}
		w.logger().Info("notification delivered", "handle", entry.Handle, "fire_at", entry.FireAt)
	}
	return delivered, nil
}

func (w *Worker) retry(ctx context.Context, entry Entry, dispatchErr error) {
	maxAttempts := w.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	attempts := entry.Attempts + 1
	if attempts >= maxAttempts {
		w.logger().Error("notification dropped after repeated failures",
			"handle", entry.Handle,
			"attempts", attempts,
			"error", dispatchErr)
		if err := w.Queue.Ack(ctx, entry.Handle); err != nil {
			w.logger().Error("failed to drop notification", "handle", entry.Handle, "error", err)
		}
		return
	}

	next := w.clock().Now().Add(Backoff(attempts))
	w.logger().Warn("notification delivery failed, will retry",
		"handle", entry.Handle,
		"attempts", attempts,
		"retry_at", next,
		"error", dispatchErr)
	if err := w.Queue.Retry(ctx, entry.Handle, attempts, next, dispatchErr.Error()); err != nil {
		w.logger().Error("failed to reschedule notification", "handle", entry.Handle, "error", err)
	}
}

// Backoff returns the delay before retry number attempts: 2^attempts
// seconds, capped at ten minutes.
func Backoff(attempts int) time.Duration {
	sec := math.Min(math.Pow(2, float64(attempts)), maxBackoff.Seconds())
	return time.Duration(sec) * time.Second
}

func (w *Worker) clock() clock.Clock {
	if w.Clock == nil {
		return clock.Real()
	}
	return w.Clock
}

func (w *Worker) logger() *slog.Logger {
	if w.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return w.Logger
}
