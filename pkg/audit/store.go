// Package audit implements an append-only ledger of dispatched commands,
// persisted to a local SQLite database. It exists for operators who need to
// answer "who read what, when" after the fact; it is not on the hot path of
// any command and every method is safe to call with a nil *Store.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Store is the audit ledger. The zero value is not usable; construct with
// New. A nil *Store is valid and every method on it is a no-op, so callers
// can wire it unconditionally and let Config.Enabled decide at startup.
type Store struct {
	db *gorm.DB
}

// New opens (creating if necessary) the SQLite database at cfg.Path,
// migrates it to the current schema, and returns a ready Store. If
// cfg.Enabled is false, New returns a nil *Store and a nil error.
func New(cfg Config) (*Store, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := runMigrations(cfg.Path); err != nil {
		return nil, fmt.Errorf("audit: migrate schema: %w", err)
	}

	dsn := cfg.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("audit: open database: %w", err)
	}

	return &Store{db: db}, nil
}

// Append writes a new record to the ledger. rec.CreatedAt is set to now if
// zero. Append is a no-op on a nil Store.
func (s *Store) Append(ctx context.Context, rec Record) error {
	if s == nil {
		return nil
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("audit: append record: %w", err)
	}
	return nil
}

// Recent returns the most recently appended records, newest first, bounded
// by limit. Recent returns an empty slice on a nil Store.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if s == nil {
		return nil, nil
	}
	var records []Record
	err := s.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("audit: query recent records: %w", err)
	}
	return records, nil
}

// ForConnection returns every record logged for the given connection ID, in
// the order they were appended.
func (s *Store) ForConnection(ctx context.Context, connectionID string) ([]Record, error) {
	if s == nil {
		return nil, nil
	}
	var records []Record
	err := s.db.WithContext(ctx).
		Where("connection_id = ?", connectionID).
		Order("id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("audit: query connection records: %w", err)
	}
	return records, nil
}

// Close releases the underlying database connection. Close is a no-op on a
// nil Store.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
