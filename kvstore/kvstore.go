// Package kvstore provides the durable key-value store that holds
// serialized task collections and notification state.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// ErrInvalidKey is returned for keys that are empty or contain characters
// outside [A-Za-z0-9_-].
var ErrInvalidKey = errors.New("invalid key")

// Store maps string keys to opaque values.
type Store interface {
	// Get returns the value for key. The boolean is false when the key
	// has never been written.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set replaces the value for key.
	Set(ctx context.Context, key string, value []byte) error
}

// UpdateFunc receives the current value of a key (found is false when the
// key was never written) and returns the value to store.
type UpdateFunc func(current []byte, found bool) ([]byte, error)

// Updater is implemented by stores that can read and write a key
// atomically with respect to other writers, including other processes.
type Updater interface {
	Update(ctx context.Context, key string, fn UpdateFunc) error
}

// Update applies fn to key atomically when store implements Updater, and
// falls back to Get followed by Set otherwise. An error from fn aborts the
// write.
func Update(ctx context.Context, store Store, key string, fn UpdateFunc) error {
	if updater, ok := store.(Updater); ok {
		return updater.Update(ctx, key, fn)
	}
	current, found, err := store.Get(ctx, key)
	if err != nil {
		return err
	}
	next, err := fn(current, found)
	if err != nil {
		return err
	}
	return store.Set(ctx, key, next)
}

// Close closes store if it holds resources.
func Close(store Store) error {
	if closer, ok := store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

func validateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// Backend names a Store implementation.
type Backend string

const (
	BackendFile     Backend = "file"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
	BackendMemory   Backend = "memory"
)

// ParseBackend parses a backend name. Empty means file.
func ParseBackend(value string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(value))); b {
	case "":
		return BackendFile, nil
	case BackendFile, BackendSQLite, BackendPostgres, BackendMemory:
		return b, nil
	default:
		return "", fmt.Errorf("unknown storage backend %q", value)
	}
}

// Config selects and configures a backend for Open.
type Config struct {
	Backend Backend

	// Path is the data directory for the file backend and the database
	// file for the sqlite backend.
	Path string

	// DSN is the connection string for the postgres backend.
	DSN string

	Logger *slog.Logger
}

// Open returns the Store described by cfg. Callers should release it with
// Close.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendFile:
		return NewFileStore(cfg.Path), nil
	case BackendSQLite:
		return OpenSQLite(ctx, SQLiteOptions{Path: cfg.Path, Logger: cfg.Logger})
	case BackendPostgres:
		return OpenPostgres(ctx, PostgresOptions{DSN: cfg.DSN, Logger: cfg.Logger})
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
