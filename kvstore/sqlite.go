package kvstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);
`

var sqlitePragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA temp_store=MEMORY",
}

// SQLiteOptions configures OpenSQLite.
type SQLiteOptions struct {
	// Path is the database file. ":memory:" opens a private in-memory
	// database behind a single pooled connection.
	Path string

	// PoolSize defaults to 4.
	PoolSize int

	Logger *slog.Logger
}

// SQLiteStore keeps values in a single kv table.
type SQLiteStore struct {
	pool   *sqlitex.Pool
	path   string
	logger *slog.Logger
	closed atomic.Bool
}

// OpenSQLite opens (creating if needed) the database at opts.Path.
func OpenSQLite(ctx context.Context, opts SQLiteOptions) (*SQLiteStore, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("sqlite store: path is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	poolSize := opts.PoolSize
	if poolSize <= 0 {
		poolSize = 4
	}
	uri := opts.Path
	if opts.Path == ":memory:" {
		// The pool needs a URI; a unique name keeps each store private.
		uri = "file:taskmate-" + uuid.NewString() + "?mode=memory&cache=shared"
		poolSize = 1
	} else if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite store: create dir: %w", err)
	}

	pool, err := sqlitex.NewPool(uri, sqlitex.PoolOptions{
		PoolSize:    poolSize,
		PrepareConn: prepareSQLiteConn,
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite store: open %s: %w", opts.Path, err)
	}

	s := &SQLiteStore{pool: pool, path: opts.Path, logger: logger}

	// Take one connection up front so schema errors surface here.
	conn, err := pool.Take(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("sqlite store: %w", err)
	}
	pool.Put(conn)

	logger.Debug("sqlite store opened", "path", opts.Path, "pool_size", poolSize)
	return s, nil
}

func prepareSQLiteConn(conn *sqlite.Conn) error {
	for _, pragma := range sqlitePragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if err := sqlitex.ExecuteScript(conn, sqliteSchema, nil); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}
	conn, err := s.take(ctx)
	if err != nil {
		return nil, false, err
	}
	defer s.pool.Put(conn)

	return readSQLite(conn, key)
}

// Set implements Store.
func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	conn, err := s.take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	return writeSQLite(conn, key, value)
}

// Update implements Updater inside an immediate transaction.
func (s *SQLiteStore) Update(ctx context.Context, key string, fn UpdateFunc) (err error) {
	if err := validateKey(key); err != nil {
		return err
	}
	conn, err := s.take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("begin update %s: %w", key, err)
	}
	defer endTransaction(&err)

	current, found, err := readSQLite(conn, key)
	if err != nil {
		return err
	}
	next, err := fn(current, found)
	if err != nil {
		return err
	}
	return writeSQLite(conn, key, next)
}

// Close closes every connection in the pool.
func (s *SQLiteStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := s.pool.Close(); err != nil {
		return fmt.Errorf("sqlite store: close %s: %w", s.path, err)
	}
	s.logger.Debug("sqlite store closed", "path", s.path)
	return nil
}

func (s *SQLiteStore) take(ctx context.Context) (*sqlite.Conn, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: take connection: %w", err)
	}
	return conn, nil
}

func readSQLite(conn *sqlite.Conn, key string) ([]byte, bool, error) {
	var value []byte
	found := false
	err := sqlitex.Execute(conn, `SELECT value FROM kv WHERE key = ?`, &sqlitex.ExecOptions{
		Args: []any{key},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			value = make([]byte, stmt.ColumnLen(0))
			stmt.ColumnBytes(0, value)
			found = true
			return nil
		},
	})
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	return value, found, nil
}

func writeSQLite(conn *sqlite.Conn, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	err := sqlitex.Execute(conn, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		&sqlitex.ExecOptions{Args: []any{key, value, time.Now().UnixMilli()}})
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
