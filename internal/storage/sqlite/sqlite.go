// Package sqlite provides a SQLite-backed implementation of the
// storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mrahman/messbook/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// The _pragma parameters bind on every pooled connection, not just
	// the one that happens to serve a setup statement. _txlock=immediate
	// makes BeginTx take the write lock up front, so of two concurrent
	// multi-statement writers one queues on busy_timeout instead of
	// failing mid-transaction.
	dsn := "file:" + dbPath + "?_txlock=immediate" +
		"&_pragma=foreign_keys(1)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// withTx runs fn inside a transaction, rolling back on error.
func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// requireOpenCycle verifies inside tx that the cycle exists and is open.
// Ledger writes call this so closed cycles stay immutable.
func requireOpenCycle(ctx context.Context, tx *sql.Tx, cycleID string) error {
	var status string
	err := tx.QueryRowContext(ctx,
		"SELECT status FROM mess_cycles WHERE id = ?", cycleID,
	).Scan(&status)
	if err == sql.ErrNoRows {
		return fmt.Errorf("cycle %s: %w", cycleID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check cycle status: %w", err)
	}
	if status != "open" {
		return fmt.Errorf("cycle %s: %w", cycleID, storage.ErrCycleClosed)
	}
	return nil
}

// scanDecimal parses a TEXT money column.
func scanDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("corrupt decimal %q: %w", s, err)
	}
	return d, nil
}

// nullable returns nil for empty strings so optional TEXT columns store
// NULL rather than "".
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// fromNull unwraps an optional TEXT column.
func fromNull(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// isUniqueViolation reports whether err is a sqlite uniqueness error.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
