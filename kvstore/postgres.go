package kvstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// PostgresOptions configures OpenPostgres.
type PostgresOptions struct {
	DSN    string
	Logger *slog.Logger
}

type pgEntry struct {
	Key       string    `gorm:"primaryKey;type:text"`
	Value     []byte    `gorm:"type:bytea;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (pgEntry) TableName() string { return "taskmate_kv" }

// PostgresStore keeps values in the taskmate_kv table.
type PostgresStore struct {
	db     *gorm.DB
	logger *slog.Logger
	closed atomic.Bool
}

// OpenPostgres connects to opts.DSN and migrates the table.
func OpenPostgres(ctx context.Context, opts PostgresOptions) (*PostgresStore, error) {
	if opts.DSN == "" {
		return nil, fmt.Errorf("postgres store: dsn is required")
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	db, err := gorm.Open(postgres.Open(opts.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("postgres store: connect: %w", err)
	}
	if err := db.WithContext(ctx).AutoMigrate(&pgEntry{}); err != nil {
		return nil, fmt.Errorf("postgres store: migrate: %w", err)
	}

	log.Debug("postgres store opened")
	return &PostgresStore{db: db, logger: log}, nil
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}
	if s.closed.Load() {
		return nil, false, ErrClosed
	}

	var entry pgEntry
	err := s.db.WithContext(ctx).Where("key = ?", key).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	return entry.Value, true, nil
}

// Set implements Store.
func (s *PostgresStore) Set(ctx context.Context, key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if s.closed.Load() {
		return ErrClosed
	}
	return upsertPG(s.db.WithContext(ctx), key, value)
}

// Update implements Updater inside a transaction holding a row lock.
func (s *PostgresStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if s.closed.Load() {
		return ErrClosed
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry pgEntry
		found := true
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("key = ?", key).Take(&entry).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			found = false
		} else if err != nil {
			return fmt.Errorf("read %s: %w", key, err)
		}
		next, err := fn(entry.Value, found)
		if err != nil {
			return err
		}
		return upsertPG(tx, key, next)
	})
}

// Close closes the underlying connection pool.
func (s *PostgresStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("postgres store: %w", err)
	}
	return sqlDB.Close()
}

func upsertPG(db *gorm.DB, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	entry := pgEntry{Key: key, Value: value, UpdatedAt: time.Now()}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
