// Package config handles loading taskmate.toml configuration files and
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/amonks/taskmate/internal/paths"
	"github.com/amonks/taskmate/kvstore"
	"github.com/amonks/taskmate/notify"
	"github.com/amonks/taskmate/reminder"
)

// ProjectFile is the per-directory config file name.
const ProjectFile = "taskmate.toml"

// Config represents the merged configuration.
type Config struct {
	Storage   Storage   `toml:"storage"`
	Reminders Reminders `toml:"reminders"`
	Notify    Notify    `toml:"notify"`
	Log       Log       `toml:"log"`
}

// Storage selects the durable store.
type Storage struct {
	// Backend is file, sqlite, or postgres.
	Backend string `toml:"backend"`

	// Path is the data directory (file) or database file (sqlite).
	// Relative paths are resolved against the project directory.
	Path string `toml:"path"`

	// DSN is the postgres connection string.
	DSN string `toml:"dsn"`
}

// Reminders controls reminder scheduling.
type Reminders struct {
	// Platform is native or web. On web, reminders are display-only.
	Platform string `toml:"platform"`

	// Permission is prompt, granted, or denied.
	Permission string `toml:"permission"`

	// Title is the notification title.
	Title string `toml:"title"`
}

// Notify configures the notification worker.
type Notify struct {
	// Command is a script run for each notification. Can include a
	// shebang line; defaults to sh if not specified.
	Command string `toml:"command"`

	// Interval is how often the worker polls, as a Go duration.
	Interval string `toml:"interval"`
}

// Log configures logging.
type Log struct {
	// Level is debug, info, warn, or error.
	Level string `toml:"level"`
}

// env maps environment variables onto config fields.
var env = []struct {
	name  string
	field func(*Config) *string
}{
	{"TASKMATE_STORAGE_BACKEND", func(c *Config) *string { return &c.Storage.Backend }},
	{"TASKMATE_STORAGE_PATH", func(c *Config) *string { return &c.Storage.Path }},
	{"DATABASE_URL", func(c *Config) *string { return &c.Storage.DSN }},
	{"TASKMATE_STORAGE_DSN", func(c *Config) *string { return &c.Storage.DSN }},
	{"TASKMATE_PLATFORM", func(c *Config) *string { return &c.Reminders.Platform }},
	{"TASKMATE_PERMISSION", func(c *Config) *string { return &c.Reminders.Permission }},
	{"TASKMATE_REMINDER_TITLE", func(c *Config) *string { return &c.Reminders.Title }},
	{"TASKMATE_NOTIFY_COMMAND", func(c *Config) *string { return &c.Notify.Command }},
	{"TASKMATE_NOTIFY_INTERVAL", func(c *Config) *string { return &c.Notify.Interval }},
	{"TASKMATE_LOG_LEVEL", func(c *Config) *string { return &c.Log.Level }},
}

// Load loads configuration from the global config file and projectDir's
// taskmate.toml, then applies projectDir's .env file and the process
// environment, in increasing precedence. Defaults fill anything left unset.
func Load(projectDir string) (*Config, error) {
	globalPath, err := paths.GlobalConfigPath()
	if err != nil {
		return nil, err
	}

	globalCfg, globalMeta, err := loadConfigFile(globalPath)
	if err != nil {
		return nil, err
	}

	projectCfg, projectMeta, err := loadConfigFile(filepath.Join(projectDir, ProjectFile))
	if err != nil {
		return nil, err
	}

	merged := mergeConfigs(globalCfg, projectCfg, globalMeta, projectMeta)

	dotenv, err := readDotenv(filepath.Join(projectDir, ".env"))
	if err != nil {
		return nil, err
	}
	applyEnv(merged, func(name string) (string, bool) {
		if value := os.Getenv(name); strings.TrimSpace(value) != "" {
			return value, true
		}
		value, ok := dotenv[name]
		return value, ok
	})

	if err := merged.applyDefaults(projectDir); err != nil {
		return nil, err
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}

func loadConfigFile(path string) (*Config, toml.MetaData, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, toml.MetaData{}, nil
	}
	if err != nil {
		return nil, toml.MetaData{}, fmt.Errorf("read config file %s: %w", path, err)
	}

	var cfg Config
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, toml.MetaData{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, toml.MetaData{}, fmt.Errorf("config file %s: unknown key %s", path, undecoded[0])
	}

	return &cfg, meta, nil
}

func mergeConfigs(globalCfg, projectCfg *Config, globalMeta, projectMeta toml.MetaData) *Config {
	pick := func(value func(*Config) string, key ...string) string {
		return mergeString(projectMeta.IsDefined(key...), value(projectCfg), value(globalCfg))
	}

	merged := Config{}
	merged.Storage.Backend = pick(func(c *Config) string { return c.Storage.Backend }, "storage", "backend")
	merged.Storage.Path = pick(func(c *Config) string { return c.Storage.Path }, "storage", "path")
	merged.Storage.DSN = pick(func(c *Config) string { return c.Storage.DSN }, "storage", "dsn")
	merged.Reminders.Platform = pick(func(c *Config) string { return c.Reminders.Platform }, "reminders", "platform")
	merged.Reminders.Permission = pick(func(c *Config) string { return c.Reminders.Permission }, "reminders", "permission")
	merged.Reminders.Title = pick(func(c *Config) string { return c.Reminders.Title }, "reminders", "title")
	merged.Notify.Command = pick(func(c *Config) string { return c.Notify.Command }, "notify", "command")
	merged.Notify.Interval = pick(func(c *Config) string { return c.Notify.Interval }, "notify", "interval")
	merged.Log.Level = pick(func(c *Config) string { return c.Log.Level }, "log", "level")
	return &merged
}

func mergeString(projectDefined bool, projectValue, globalValue string) string {
	value := globalValue
	if projectDefined {
		value = projectValue
	}
	return strings.TrimSpace(value)
}

func readDotenv(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return values, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	for _, e := range env {
		if value, ok := lookup(e.name); ok && strings.TrimSpace(value) != "" {
			*e.field(cfg) = strings.TrimSpace(value)
		}
	}
}

func (c *Config) applyDefaults(projectDir string) error {
	if c.Storage.Backend == "" {
		c.Storage.Backend = string(kvstore.BackendFile)
	}
	if c.Storage.Path == "" {
		dataDir, err := paths.DefaultDataDir()
		if err != nil {
			return err
		}
		c.Storage.Path = dataDir
		if c.Storage.Backend == string(kvstore.BackendSQLite) {
			c.Storage.Path = filepath.Join(dataDir, "taskmate.db")
		}
	} else if !filepath.IsAbs(c.Storage.Path) && c.Storage.Path != ":memory:" {
		c.Storage.Path = filepath.Join(projectDir, c.Storage.Path)
	}
	if c.Reminders.Platform == "" {
		c.Reminders.Platform = string(reminder.PlatformNative)
	}
	if c.Reminders.Permission == "" {
		c.Reminders.Permission = "prompt"
	}
	if c.Reminders.Title == "" {
		c.Reminders.Title = reminder.DefaultTitle
	}
	if c.Notify.Interval == "" {
		c.Notify.Interval = notify.DefaultInterval.String()
	}
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
	return nil
}

// Validate checks that every enumerated value is known.
func (c *Config) Validate() error {
	backend, err := kvstore.ParseBackend(c.Storage.Backend)
	if err != nil {
		return fmt.Errorf("storage.backend: %w", err)
	}
	if backend == kvstore.BackendPostgres && c.Storage.DSN == "" {
		return fmt.Errorf("storage.dsn: required for the postgres backend")
	}
	if _, err := reminder.ParsePlatform(c.Reminders.Platform); err != nil {
		return fmt.Errorf("reminders.platform: %w", err)
	}
	if _, err := notify.ParsePermission(c.Reminders.Permission); err != nil {
		return fmt.Errorf("reminders.permission: %w", err)
	}
	if _, err := c.NotifyInterval(); err != nil {
		return err
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// NotifyInterval parses notify.interval.
func (c *Config) NotifyInterval() (time.Duration, error) {
	interval, err := time.ParseDuration(c.Notify.Interval)
	if err != nil {
		return 0, fmt.Errorf("notify.interval: %w", err)
	}
	if interval <= 0 {
		return 0, fmt.Errorf("notify.interval: must be positive, got %s", c.Notify.Interval)
	}
	return interval, nil
}

// LogLevel parses log.level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// StoreConfig returns the kvstore configuration.
func (c *Config) StoreConfig(logger *slog.Logger) kvstore.Config {
	backend, _ := kvstore.ParseBackend(c.Storage.Backend)
	return kvstore.Config{
		Backend: backend,
		Path:    c.Storage.Path,
		DSN:     c.Storage.DSN,
		Logger:  logger,
	}
}
