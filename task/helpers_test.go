package task

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/amonks/taskmate/internal/clock"
	"github.com/amonks/taskmate/kvstore"
	"github.com/amonks/taskmate/reminder"
	"github.com/amonks/taskmate/reminder/remindertest"
)

var testEpoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	repo  *Repository
	store *kvstore.MemoryStore
	sched *remindertest.Scheduler
	clock *clock.FakeClock
}

type envOption func(*reminder.Options)

func withPermission(gate reminder.PermissionGate) envOption {
	return func(o *reminder.Options) { o.Permission = gate }
}

func withPlatform(p reminder.Platform) envOption {
	return func(o *reminder.Options) { o.Platform = p }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	store := kvstore.NewMemoryStore()
	return openTestEnv(t, store, clock.Fake(testEpoch), opts...)
}

func openTestEnv(t *testing.T, store *kvstore.MemoryStore, clk *clock.FakeClock, opts ...envOption) *testEnv {
	t.Helper()
	sched := remindertest.NewScheduler()
	coordOpts := reminder.Options{Scheduler: sched, Clock: clk}
	for _, opt := range opts {
		opt(&coordOpts)
	}
	repo, err := Open(context.Background(), Options{
		Store:       store,
		Coordinator: reminder.NewCoordinator(coordOpts),
		Clock:       clk,
	})
	if err != nil {
		t.Fatalf("failed to open repository: %v", err)
	}
	return &testEnv{repo: repo, store: store, sched: sched, clock: clk}
}

func (env *testEnv) create(t *testing.T, text string) Task {
	t.Helper()
	out, err := env.repo.Create(context.Background(), text, CreateOptions{})
	if err != nil {
		t.Fatalf("failed to create task: %v", err)
	}
	return out.Task
}

func (env *testEnv) stored(t *testing.T, key string) []Task {
	t.Helper()
	data, found, err := env.store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("failed to read %s: %v", key, err)
	}
	if !found {
		return nil
	}
	var tasks []Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		t.Fatalf("failed to decode %s: %v", key, err)
	}
	return tasks
}

func taskIDs(tasks []Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func assertPartitionsExclusive(t *testing.T, repo *Repository) {
	t.Helper()
	seen := make(map[string]string)
	for _, task := range repo.Active() {
		seen[task.ID] = "active"
	}
	for _, task := range repo.Deleted(context.Background()) {
		if where, ok := seen[task.ID]; ok {
			t.Fatalf("task %s found in deleted and %s", task.ID, where)
		}
	}
}

func clockAt(now time.Time) *clock.FakeClock {
	return clock.Fake(now)
}

func newStoreWithDeleted(t *testing.T, tasks ...Task) *kvstore.MemoryStore {
	t.Helper()
	return newStoreWith(t, nil, tasks)
}

func newStoreWith(t *testing.T, active, deleted []Task) *kvstore.MemoryStore {
	t.Helper()
	store := kvstore.NewMemoryStore()
	ctx := context.Background()
	if active != nil {
		data, err := json.Marshal(active)
		if err != nil {
			t.Fatalf("encode active: %v", err)
		}
		if err := store.Set(ctx, KeyActive, data); err != nil {
			t.Fatalf("seed active: %v", err)
		}
	}
	if deleted != nil {
		data, err := json.Marshal(deleted)
		if err != nil {
			t.Fatalf("encode deleted: %v", err)
		}
		if err := store.Set(ctx, KeyDeleted, data); err != nil {
			t.Fatalf("seed deleted: %v", err)
		}
	}
	return store
}
