package task

import (
	"context"
	"testing"
	"time"

	"github.com/amonks/taskmate/internal/age"
)

func TestSweep(t *testing.T) {
	now := testEpoch
	tasks := []Task{
		{ID: "fresh", DeletedAt: now.Add(-time.Hour)},
		{ID: "edge", DeletedAt: now.Add(-TTL)},
		{ID: "old", DeletedAt: now.Add(-31 * age.Day)},
		{ID: "undated"},
	}

	kept, expired := Sweep(tasks, now, TTL)
	if got := taskIDs(kept); len(got) != 2 || got[0] != "fresh" || got[1] != "undated" {
		t.Fatalf("expected fresh and undated kept, got %v", got)
	}
	if got := taskIDs(expired); len(got) != 2 || got[0] != "edge" || got[1] != "old" {
		t.Fatalf("expected edge and old expired, got %v", got)
	}

	kept2, expired2 := Sweep(kept, now, TTL)
	if len(expired2) != 0 || len(kept2) != len(kept) {
		t.Fatalf("expected second sweep to remove nothing, got %d expired", len(expired2))
	}
}

func TestRepository_SweepAfterThirtyOneDays(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created := env.create(t, "old news")
	if _, err := env.repo.SoftDelete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	writes := env.store.Writes(KeyDeleted)

	env.clock.Advance(31 * age.Day)

	if deleted := env.repo.Deleted(ctx); len(deleted) != 0 {
		t.Fatalf("expected task swept, got %v", taskIDs(deleted))
	}
	if stored := env.stored(t, KeyDeleted); len(stored) != 0 {
		t.Fatalf("expected persisted deleted collection empty, got %v", taskIDs(stored))
	}
	if env.store.Writes(KeyDeleted) != writes+1 {
		t.Fatalf("expected one sweep write, got %d", env.store.Writes(KeyDeleted)-writes)
	}

	env.repo.Deleted(ctx)
	if env.store.Writes(KeyDeleted) != writes+1 {
		t.Fatalf("expected idempotent sweep to skip writing")
	}
}

func TestRepository_SweepKeepsRecentDeletes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created := env.create(t, "recent")
	if _, err := env.repo.SoftDelete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	env.clock.Advance(29 * age.Day)

	deleted := env.repo.Deleted(ctx)
	if len(deleted) != 1 {
		t.Fatalf("expected task kept, got %d", len(deleted))
	}
	if days := DaysLeft(deleted[0], env.clock.Now()); days != 1 {
		t.Fatalf("expected 1 day left, got %d", days)
	}
}

func TestRepository_OpenSweepsExpired(t *testing.T) {
	store := newStoreWithDeleted(t,
		Task{ID: "expired1", Text: "x", Color: ColorWhite, DeletedAt: testEpoch.Add(-40 * age.Day)},
		Task{ID: "current1", Text: "y", Color: ColorWhite, DeletedAt: testEpoch.Add(-age.Day)},
	)
	env := openTestEnv(t, store, clockAt(testEpoch))

	if got := taskIDs(env.repo.Deleted(context.Background())); len(got) != 1 || got[0] != "current1" {
		t.Fatalf("expected only current task, got %v", got)
	}
	if got := taskIDs(env.stored(t, KeyDeleted)); len(got) != 1 || got[0] != "current1" {
		t.Fatalf("expected sweep persisted on open, got %v", got)
	}
}

func TestDaysLeft(t *testing.T) {
	deletedAt := testEpoch
	tests := []struct {
		elapsed time.Duration
		want    int
	}{
		{0, 30},
		{12 * time.Hour, 30},
		{age.Day, 29},
		{29*age.Day + 23*time.Hour, 1},
		{30 * age.Day, 0},
		{45 * age.Day, 0},
	}
	for _, tt := range tests {
		got := DaysLeft(Task{DeletedAt: deletedAt}, deletedAt.Add(tt.elapsed))
		if got != tt.want {
			t.Fatalf("DaysLeft after %v: expected %d, got %d", tt.elapsed, tt.want, got)
		}
	}
}
