package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/amonks/taskmate/internal/config"
	"github.com/amonks/taskmate/internal/testsupport"
)

func setup(t *testing.T) (home, project string) {
	t.Helper()
	home = testsupport.SetupTestHome(t)
	for _, name := range []string{
		"DATABASE_URL", "TASKMATE_STORAGE_BACKEND", "TASKMATE_STORAGE_PATH", "TASKMATE_STORAGE_DSN",
		"TASKMATE_PLATFORM", "TASKMATE_PERMISSION", "TASKMATE_REMINDER_TITLE",
		"TASKMATE_NOTIFY_COMMAND", "TASKMATE_NOTIFY_INTERVAL", "TASKMATE_LOG_LEVEL",
	} {
		t.Setenv(name, "")
	}
	return home, t.TempDir()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	home, project := setup(t)

	cfg, err := config.Load(project)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Storage.Backend != "file" {
		t.Errorf("expected file backend, got %q", cfg.Storage.Backend)
	}
	if want := filepath.Join(home, ".local", "share", "taskmate"); cfg.Storage.Path != want {
		t.Errorf("expected path %q, got %q", want, cfg.Storage.Path)
	}
	if cfg.Reminders.Platform != "native" {
		t.Errorf("expected native platform, got %q", cfg.Reminders.Platform)
	}
	if cfg.Reminders.Permission != "prompt" {
		t.Errorf("expected prompt permission, got %q", cfg.Reminders.Permission)
	}
	if cfg.Reminders.Title != "Task Mate" {
		t.Errorf("expected default title, got %q", cfg.Reminders.Title)
	}
	if interval, _ := cfg.NotifyInterval(); interval != time.Second {
		t.Errorf("expected 1s interval, got %v", interval)
	}
	if level, _ := cfg.LogLevel(); level != slog.LevelWarn {
		t.Errorf("expected warn level, got %v", level)
	}
}

func TestLoad_ProjectOverridesGlobal(t *testing.T) {
	home, project := setup(t)

	writeFile(t, filepath.Join(home, ".config", "taskmate", "config.toml"), `
[storage]
backend = "sqlite"

[reminders]
title = "Global Title"
permission = "granted"
`)
	writeFile(t, filepath.Join(project, "taskmate.toml"), `
[reminders]
title = "Project Title"

[notify]
command = """
#!/bin/sh
notify-send "$TASKMATE_TITLE" "$TASKMATE_BODY"
"""
interval = "5s"
`)

	cfg, err := config.Load(project)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("expected global backend, got %q", cfg.Storage.Backend)
	}
	if want := filepath.Join(home, ".local", "share", "taskmate", "taskmate.db"); cfg.Storage.Path != want {
		t.Errorf("expected sqlite default path %q, got %q", want, cfg.Storage.Path)
	}
	if cfg.Reminders.Title != "Project Title" {
		t.Errorf("expected project title, got %q", cfg.Reminders.Title)
	}
	if cfg.Reminders.Permission != "granted" {
		t.Errorf("expected global permission, got %q", cfg.Reminders.Permission)
	}
	if !strings.HasPrefix(cfg.Notify.Command, "#!/bin/sh") {
		t.Errorf("expected command script, got %q", cfg.Notify.Command)
	}
	if interval, _ := cfg.NotifyInterval(); interval != 5*time.Second {
		t.Errorf("expected 5s interval, got %v", interval)
	}
}

func TestLoad_ProjectCanClearGlobal(t *testing.T) {
	home, project := setup(t)
	writeFile(t, filepath.Join(home, ".config", "taskmate", "config.toml"), "[notify]\ncommand = \"say hi\"\n")
	writeFile(t, filepath.Join(project, "taskmate.toml"), "[notify]\ncommand = \"\"\n")

	cfg, err := config.Load(project)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Notify.Command != "" {
		t.Errorf("expected project to clear command, got %q", cfg.Notify.Command)
	}
}

func TestLoad_RelativeStoragePath(t *testing.T) {
	_, project := setup(t)
	writeFile(t, filepath.Join(project, "taskmate.toml"), "[storage]\npath = \"data\"\n")

	cfg, err := config.Load(project)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if want := filepath.Join(project, "data"); cfg.Storage.Path != want {
		t.Errorf("expected %q, got %q", want, cfg.Storage.Path)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	_, project := setup(t)
	writeFile(t, filepath.Join(project, "taskmate.toml"), "[reminders]\nplatform = \"native\"\n[log]\nlevel = \"error\"\n")
	writeFile(t, filepath.Join(project, ".env"), "TASKMATE_PLATFORM=web\nTASKMATE_LOG_LEVEL=info\n")
	t.Setenv("TASKMATE_LOG_LEVEL", "debug")

	cfg, err := config.Load(project)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Reminders.Platform != "web" {
		t.Errorf("expected .env to override file, got %q", cfg.Reminders.Platform)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected process env to override .env, got %q", cfg.Log.Level)
	}
}

func TestLoad_DatabaseURL(t *testing.T) {
	_, project := setup(t)
	t.Setenv("TASKMATE_STORAGE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/taskmate")

	cfg, err := config.Load(project)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Storage.DSN != "postgres://localhost/taskmate" {
		t.Errorf("expected DSN from DATABASE_URL, got %q", cfg.Storage.DSN)
	}
	if sc := cfg.StoreConfig(nil); sc.Backend != "postgres" || sc.DSN == "" {
		t.Errorf("expected postgres store config, got %+v", sc)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"backend", "[storage]\nbackend = \"redis\"\n", "storage.backend"},
		{"postgres without dsn", "[storage]\nbackend = \"postgres\"\n", "storage.dsn"},
		{"platform", "[reminders]\nplatform = \"desktop\"\n", "reminders.platform"},
		{"permission", "[reminders]\npermission = \"maybe\"\n", "reminders.permission"},
		{"interval", "[notify]\ninterval = \"soon\"\n", "notify.interval"},
		{"level", "[log]\nlevel = \"loud\"\n", "log.level"},
		{"unknown key", "[storage]\nbakend = \"file\"\n", "unknown key"},
		{"syntax", "[storage\n", "parse config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, project := setup(t)
			writeFile(t, filepath.Join(project, "taskmate.toml"), tt.content)
			_, err := config.Load(project)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
