package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 4

// Migration represents a database schema migration.
type Migration struct {
	Up          func(context.Context, *sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(ctx context.Context, tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS transactions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					type TEXT NOT NULL,
					account_id INTEGER NOT NULL,
					peer_account_id INTEGER,
					to_account_id INTEGER,
					amount TEXT NOT NULL,
					category TEXT,
					description TEXT,
					date TEXT NOT NULL,
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX IF NOT EXISTS idx_transactions_type ON transactions(type)`,
				`CREATE INDEX IF NOT EXISTS idx_transactions_category ON transactions(category)`,
				`CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date)`,

				`CREATE TABLE IF NOT EXISTS accounts (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					type TEXT NOT NULL DEFAULT 'cash',
					unit TEXT NOT NULL DEFAULT '',
					precision INTEGER NOT NULL DEFAULT 2,
					include_in_net_worth BOOLEAN NOT NULL DEFAULT 1,
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX IF NOT EXISTS idx_accounts_name ON accounts(name)`,

				`CREATE TABLE IF NOT EXISTS categories (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					type TEXT NOT NULL,
					icon TEXT,
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(name, type)
				)`,
				`CREATE INDEX IF NOT EXISTS idx_categories_type ON categories(type)`,
			}

			for _, query := range queries {
				if _, err := tx.ExecContext(ctx, query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add running balance to accounts",
		Up: func(ctx context.Context, tx *sql.Tx) error {
			exists, err := columnExists(ctx, tx, "accounts", "balance")
			if err != nil {
				return err
			}
			if !exists {
				if _, err := tx.ExecContext(ctx, `ALTER TABLE accounts ADD COLUMN balance TEXT NOT NULL DEFAULT '0'`); err != nil {
					return fmt.Errorf("failed to add balance column: %w", err)
				}
			}

			result, err := tx.ExecContext(ctx, `UPDATE accounts SET balance = '0' WHERE balance IS NULL OR balance = ''`)
			if err != nil {
				return fmt.Errorf("failed to backfill balances: %w", err)
			}
			if n, _ := result.RowsAffected(); n > 0 {
				slog.Info("Backfilled account balances", "count", n)
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Seed default categories",
		Up: func(ctx context.Context, tx *sql.Tx) error {
			return seedDefaultCategories(ctx, tx)
		},
	},
	{
		Version:     4,
		Description: "Track bank ids of imported transactions",
		Up: func(ctx context.Context, tx *sql.Tx) error {
			exists, err := columnExists(ctx, tx, "transactions", "external_id")
			if err != nil {
				return err
			}
			if !exists {
				if _, err := tx.ExecContext(ctx, `ALTER TABLE transactions ADD COLUMN external_id TEXT`); err != nil {
					return fmt.Errorf("failed to add external_id column: %w", err)
				}
			}
			if _, err := tx.ExecContext(ctx,
				`CREATE INDEX IF NOT EXISTS idx_transactions_external_id ON transactions(account_id, external_id)`); err != nil {
				return fmt.Errorf("failed to create external_id index: %w", err)
			}
			return nil
		},
	},
}

// Migrate applies all pending database migrations. The store serves
// requests only after Migrate has returned nil.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := s.migrateTo(ctx, ExpectedSchemaVersion); err != nil {
		return err
	}

	// Verify we're at the expected schema version
	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	s.ready.Store(true)
	return nil
}

// SchemaVersion reports the schema version recorded in the database file.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

func (s *SQLiteStorage) migrateTo(ctx context.Context, target int) error {
	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion || migration.Version > target {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", translateError(txErr))
		}

		if upErr := migration.Up(ctx, tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		// Update version
		if _, execErr := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, translateError(commitErr))
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}
	return nil
}

func columnExists(ctx context.Context, q queryable, table, column string) (bool, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("failed to inspect table %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			cid       int
			name      string
			typ       string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dfltValue, &pk); err != nil {
			return false, fmt.Errorf("failed to scan table info: %w", err)
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
