package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amonks/taskmate/reminder"
)

type recordingDispatcher struct {
	delivered []Entry
	fail      error
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, entry Entry) error {
	if d.fail != nil {
		return d.fail
	}
	d.delivered = append(d.delivered, entry)
	return nil
}

func TestWorker_TickDeliversDue(t *testing.T) {
	q, _, clk := newTestQueue(t)
	ctx := context.Background()
	q.Schedule(ctx, reminder.Notification{Body: "first", FireAt: testEpoch.Add(time.Minute)})
	q.Schedule(ctx, reminder.Notification{Body: "second", FireAt: testEpoch.Add(2 * time.Minute)})
	q.Schedule(ctx, reminder.Notification{Body: "later", FireAt: testEpoch.Add(time.Hour)})

	dispatcher := &recordingDispatcher{}
	w := &Worker{Queue: q, Dispatcher: dispatcher, Clock: clk}

	clk.Advance(5 * time.Minute)
	delivered, err := w.Tick(ctx)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if delivered != 2 {
		t.Fatalf("expected 2 delivered, got %d", delivered)
	}
	if dispatcher.delivered[0].Body != "first" || dispatcher.delivered[1].Body != "second" {
		t.Fatalf("expected delivery in fire order, got %+v", dispatcher.delivered)
	}
	if entries, _ := q.List(ctx); len(entries) != 1 || entries[0].Body != "later" {
		t.Fatalf("expected delivered entries removed, got %+v", entries)
	}
}

func TestWorker_RetriesWithBackoff(t *testing.T) {
	q, _, clk := newTestQueue(t)
	ctx := context.Background()
	q.Schedule(ctx, reminder.Notification{Body: "flaky", FireAt: testEpoch.Add(time.Minute)})

	dispatcher := &recordingDispatcher{fail: errors.New("no display")}
	w := &Worker{Queue: q, Dispatcher: dispatcher, Clock: clk}

	clk.Advance(time.Minute)
	if _, err := w.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}
	entries, _ := q.List(ctx)
	if len(entries) != 1 {
		t.Fatalf("expected entry kept for retry, got %+v", entries)
	}
	got := entries[0]
	if got.Attempts != 1 || got.LastError != "no display" {
		t.Fatalf("expected attempt recorded, got %+v", got)
	}
	if want := clk.Now().Add(2 * time.Second); !got.FireAt.Equal(want) {
		t.Fatalf("expected retry at %v, got %v", want, got.FireAt)
	}

	dispatcher.fail = nil
	clk.Advance(2 * time.Second)
	delivered, err := w.Tick(ctx)
	if err != nil || delivered != 1 {
		t.Fatalf("expected retry delivered, got %d err=%v", delivered, err)
	}
}

func TestWorker_AckFailureDoesNotStopTick(t *testing.T) {
	q, store, clk := newTestQueue(t)
	ctx := context.Background()
	q.Schedule(ctx, reminder.Notification{Body: "first", FireAt: testEpoch.Add(time.Minute)})
	q.Schedule(ctx, reminder.Notification{Body: "second", FireAt: testEpoch.Add(2 * time.Minute)})

	var dispatched []string
	dispatcher := DispatcherFunc(func(ctx context.Context, entry Entry) error {
		dispatched = append(dispatched, entry.Body)
		store.SetFailure(errors.New("disk full"))
		return nil
	})
	w := &Worker{Queue: q, Dispatcher: dispatcher, Clock: clk}

	clk.Advance(5 * time.Minute)
	delivered, err := w.Tick(ctx)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if delivered != 2 || len(dispatched) != 2 {
		t.Fatalf("expected both entries dispatched, got %d delivered, %v", delivered, dispatched)
	}

	store.SetFailure(nil)
	entries, err := q.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected unacknowledged entries kept, got %+v", entries)
	}
	clk.Advance(ClaimTimeout)
	if due, _ := q.Due(ctx, clk.Now()); len(due) != 2 {
		t.Fatalf("expected entries due again once the claim lapses, got %+v", due)
	}
}

func TestWorker_DropsAfterMaxAttempts(t *testing.T) {
	q, _, clk := newTestQueue(t)
	ctx := context.Background()
	q.Schedule(ctx, reminder.Notification{FireAt: testEpoch.Add(time.Minute)})

	w := &Worker{Queue: q, Dispatcher: &recordingDispatcher{fail: errors.New("down")}, Clock: clk, MaxAttempts: 3}
	clk.Advance(time.Minute)
	for i := 0; i < 3; i++ {
		if _, err := w.Tick(ctx); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		clk.Advance(Backoff(i + 1))
	}
	if entries, _ := q.List(ctx); len(entries) != 0 {
		t.Fatalf("expected entry dropped, got %+v", entries)
	}
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempts int
		want     time.Duration
	}{
		{1, 2 * time.Second},
		{3, 8 * time.Second},
		{9, 512 * time.Second},
		{10, 600 * time.Second},
		{20, 600 * time.Second},
	}
	for _, tt := range tests {
		if got := Backoff(tt.attempts); got != tt.want {
			t.Fatalf("Backoff(%d): expected %v, got %v", tt.attempts, tt.want, got)
		}
	}
}

func TestWorker_RunStopsOnCancel(t *testing.T) {
	q, _, clk := newTestQueue(t)
	ctx, cancel := context.WithCancel(context.Background())
	q.Schedule(ctx, reminder.Notification{Body: "x", FireAt: testEpoch.Add(time.Minute)})

	delivered := make(chan Entry, 1)
	w := &Worker{
		Queue: q,
		Dispatcher: DispatcherFunc(func(ctx context.Context, entry Entry) error {
			delivered <- entry
			return nil
		}),
		Clock:    clk,
		Interval: time.Second,
	}

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	deadline := time.After(5 * time.Second)
	for {
		clk.Advance(time.Minute)
		select {
		case entry := <-delivered:
			if entry.Body != "x" {
				t.Fatalf("expected x, got %q", entry.Body)
			}
			cancel()
			if err := <-done; err != nil {
				t.Fatalf("run: %v", err)
			}
			return
		case <-deadline:
			t.Fatalf("timed out waiting for delivery")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
