package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/amonks/taskmate/internal/config"
	"github.com/amonks/taskmate/internal/editor"
	"github.com/amonks/taskmate/internal/paths"
	"github.com/amonks/taskmate/kvstore"
	"github.com/amonks/taskmate/notify"
	"github.com/amonks/taskmate/reminder"
	"github.com/amonks/taskmate/task"
)

// app holds everything a command needs, opened from the merged config.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  kvstore.Store
	queue  *notify.Queue
	repo   *task.Repository
}

func loadConfig() (*config.Config, error) {
	cwd, err := paths.WorkingDir()
	if err != nil {
		return nil, err
	}
	return config.Load(cwd)
}

// openApp loads config and opens the store, queue, and repository.
// Callers must Close the result.
func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cmd.ErrOrStderr(), cfg, verbose)
	if err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	store, err := kvstore.Open(ctx, cfg.StoreConfig(logger))
	if err != nil {
		return nil, err
	}

	platform, err := reminder.ParsePlatform(cfg.Reminders.Platform)
	if err != nil {
		kvstore.Close(store)
		return nil, err
	}

	gate, err := permissionGate(cfg, store, logger)
	if err != nil {
		kvstore.Close(store)
		return nil, err
	}

	queue := notify.NewQueue(store, notify.QueueOptions{Logger: logger})
	coordinator := reminder.NewCoordinator(reminder.Options{
		Scheduler:  queue,
		Permission: gate,
		Logger:     logger,
		Platform:   platform,
	})

	repo, err := task.Open(ctx, task.Options{
		Store:             store,
		Coordinator:       coordinator,
		Logger:            logger,
		NotificationTitle: cfg.Reminders.Title,
	})
	if err != nil {
		kvstore.Close(store)
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, store: store, queue: queue, repo: repo}, nil
}

func (a *app) Close() error {
	return kvstore.Close(a.store)
}

func newLogger(w io.Writer, cfg *config.Config, verbose bool) (*slog.Logger, error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

// permissionGate honors a configured decision, and otherwise asks on
// the terminal once and remembers the answer.
func permissionGate(cfg *config.Config, store kvstore.Store, logger *slog.Logger) (reminder.PermissionGate, error) {
	policy, err := notify.ParsePermission(cfg.Reminders.Permission)
	if err != nil {
		return nil, fmt.Errorf("reminders.permission: %w", err)
	}
	switch policy {
	case notify.PermissionGranted:
		return reminder.Granted, nil
	case notify.PermissionDenied:
		return reminder.Denied, nil
	}
	return &notify.PromptGate{
		Store:       store,
		Prompter:    notify.StdioPrompter{In: os.Stdin, Out: os.Stderr},
		Interactive: editor.IsInteractive,
		Logger:      logger,
	}, nil
}

// resolveID expands an id prefix against both partitions.
func (a *app) resolveID(prefix string) (string, error) {
	return a.repo.IDIndex().Resolve(prefix)
}

func (a *app) resolveIDs(prefixes []string) ([]string, error) {
	ids := make([]string, 0, len(prefixes))
	for _, prefix := range prefixes {
		id, err := a.resolveID(prefix)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// highlighter returns a function that highlights each id's unique prefix.
func (a *app) highlighter() func(string) string {
	lengths := a.repo.IDIndex().PrefixLengths()
	return func(id string) string {
		return highlightID(lengths, id)
	}
}
