package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/amonks/taskmate/internal/config"
	"github.com/amonks/taskmate/kvstore"
	"github.com/amonks/taskmate/notify"
)

func TestPermissionGate(t *testing.T) {
	store := kvstore.NewMemoryStore()
	logger := slog.New(slog.DiscardHandler)

	tests := []struct {
		permission string
		want       bool
	}{
		{"granted", true},
		{"denied", false},
	}
	for _, tt := range tests {
		cfg := &config.Config{}
		cfg.Reminders.Permission = tt.permission
		gate, err := permissionGate(cfg, store, logger)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.permission, err)
		}
		got, err := gate.EnsurePermission(context.Background())
		if err != nil || got != tt.want {
			t.Fatalf("%s: expected %v, got %v err=%v", tt.permission, tt.want, got, err)
		}
	}

	cfg := &config.Config{}
	cfg.Reminders.Permission = "prompt"
	gate, err := permissionGate(cfg, store, logger)
	if err != nil {
		t.Fatalf("prompt: unexpected error: %v", err)
	}
	if _, ok := gate.(*notify.PromptGate); !ok {
		t.Fatalf("expected prompt gate, got %T", gate)
	}

	cfg.Reminders.Permission = "sometimes"
	if _, err := permissionGate(cfg, store, logger); err == nil {
		t.Fatalf("expected error for invalid permission")
	}
}
