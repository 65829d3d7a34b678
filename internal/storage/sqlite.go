// Package storage provides the data persistence layer for ledgerly.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/Veraticus/ledgerly/internal/common"
	"github.com/Veraticus/ledgerly/internal/service"

	"github.com/mattn/go-sqlite3"
)

// queryable is satisfied by both *sql.DB and *sql.Tx.
type queryable interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	collections
	db     *sql.DB
	dbPath string
	ready  atomic.Bool
	closed atomic.Bool
}

var _ service.Storage = (*SQLiteStorage)(nil)

// NewSQLiteStorage opens the database at dbPath. The store reports
// ErrStorageUnavailable until Migrate has succeeded.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: SQLite serializes writers anyway, and balance updates
	// rely on that ordering.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStorage{
		db:     db,
		dbPath: dbPath,
	}
	s.collections = collections{conn: s.conn}
	return s, nil
}

// conn hands out the database once the schema is in place.
func (s *SQLiteStorage) conn() (queryable, error) {
	if s == nil || s.db == nil || !s.ready.Load() {
		return nil, common.ErrStorageUnavailable
	}
	return s.db, nil
}

// Path returns the database file path.
func (s *SQLiteStorage) Path() string {
	return s.dbPath
}

// Close closes the database connection. Later calls fail with
// ErrStorageUnavailable.
func (s *SQLiteStorage) Close() error {
	s.ready.Store(false)
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

// NewCheckpointManager creates a new checkpoint manager for this storage instance.
func (s *SQLiteStorage) NewCheckpointManager() (*CheckpointManager, error) {
	if _, err := s.conn(); err != nil {
		return nil, err
	}
	return NewCheckpointManager(s)
}

// BeginTx starts a new database transaction.
func (s *SQLiteStorage) BeginTx(ctx context.Context) (service.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if _, err := s.conn(); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", translateError(err))
	}

	t := &sqliteTransaction{tx: tx}
	t.collections = collections{conn: t.conn}
	return t, nil
}

// ClearAll removes every transaction, account and category and reseeds the
// default categories. Either all of it happens or none of it does.
func (s *SQLiteStorage) ClearAll(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if _, err := s.conn(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", translateError(err))
	}
	defer func() { _ = tx.Rollback() }()

	if err := clearAll(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit clear: %w", translateError(err))
	}

	slog.Info("cleared all data and reseeded default categories")
	return nil
}

// sqliteTransaction wraps sql.Tx to implement service.Transaction.
type sqliteTransaction struct {
	collections
	tx   *sql.Tx
	done atomic.Bool
}

func (t *sqliteTransaction) conn() (queryable, error) {
	if t.done.Load() {
		return nil, fmt.Errorf("%w: transaction already finished", common.ErrStorageUnavailable)
	}
	return t.tx, nil
}

func (t *sqliteTransaction) Commit() error {
	t.done.Store(true)
	return translateError(t.tx.Commit())
}

func (t *sqliteTransaction) Rollback() error {
	t.done.Store(true)
	return t.tx.Rollback()
}

func (t *sqliteTransaction) ClearAll(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return clearAll(ctx, t.tx)
}

func (t *sqliteTransaction) Migrate(_ context.Context) error {
	// Migrations should not be run within a transaction
	return fmt.Errorf("migrations cannot be run within a transaction")
}

func (t *sqliteTransaction) BeginTx(_ context.Context) (service.Transaction, error) {
	// Nested transactions not supported
	return nil, fmt.Errorf("nested transactions not supported")
}

func (t *sqliteTransaction) Close() error {
	// Transactions should be committed or rolled back, not closed
	return fmt.Errorf("transactions must be committed or rolled back, not closed")
}

// translateError marks lock contention so callers can retry it.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) &&
		(sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked) {
		return fmt.Errorf("%w: %w", common.ErrStoreBusy, err)
	}
	return err
}
