package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Veraticus/ledgerly/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openUnmigrated(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "legacy.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestMigrate_FreshDatabase(t *testing.T) {
	store := openUnmigrated(t)
	ctx := context.Background()

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, version)

	require.NoError(t, store.Migrate(ctx))

	version, err = store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)

	for _, index := range []string{
		"idx_transactions_type", "idx_transactions_category", "idx_transactions_date",
		"idx_transactions_external_id", "idx_accounts_name", "idx_categories_type",
	} {
		var count int
		err := store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = ?`, index).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "index %s", index)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	store := openUnmigrated(t)
	ctx := context.Background()

	require.NoError(t, store.Migrate(ctx))
	first := len(store.GetAllCategories(ctx).Rows)

	require.NoError(t, store.Migrate(ctx))
	assert.Len(t, store.GetAllCategories(ctx).Rows, first, "defaults are not seeded twice")
}

func TestMigrate_BackfillsBalanceForLegacyAccounts(t *testing.T) {
	store := openUnmigrated(t)
	ctx := context.Background()

	require.NoError(t, store.migrateTo(ctx, 1))
	_, err := store.db.ExecContext(ctx, `INSERT INTO accounts (name, type) VALUES ('Old Wallet', 'cash')`)
	require.NoError(t, err)

	_, err = store.GetAccountByID(ctx, 1)
	assert.ErrorIs(t, err, common.ErrStorageUnavailable, "not ready until Migrate completes")

	require.NoError(t, store.Migrate(ctx))

	account, err := store.GetAccountByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.True(t, account.Balance.IsZero())
	assert.Equal(t, "Old Wallet", account.Name)
}

func TestMigrate_RepairsNullBalances(t *testing.T) {
	store := openUnmigrated(t)
	ctx := context.Background()

	require.NoError(t, store.migrateTo(ctx, 1))
	_, err := store.db.ExecContext(ctx, `ALTER TABLE accounts ADD COLUMN balance TEXT`)
	require.NoError(t, err)
	_, err = store.db.ExecContext(ctx, `INSERT INTO accounts (name, type, balance) VALUES ('A', 'cash', NULL), ('B', 'cash', ''), ('C', 'cash', '12.5')`)
	require.NoError(t, err)

	require.NoError(t, store.Migrate(ctx))

	result := store.GetAllAccounts(ctx)
	require.Len(t, result.Rows, 3)
	assert.True(t, result.Rows[0].Balance.IsZero())
	assert.True(t, result.Rows[1].Balance.IsZero())
	assert.Equal(t, "12.5", result.Rows[2].Balance.String())
}

func TestMigrate_SeedSkipsPopulatedCategories(t *testing.T) {
	store := openUnmigrated(t)
	ctx := context.Background()

	require.NoError(t, store.migrateTo(ctx, 2))
	_, err := store.db.ExecContext(ctx, `INSERT INTO categories (name, type) VALUES ('Mine', 'expense')`)
	require.NoError(t, err)

	require.NoError(t, store.Migrate(ctx))

	result := store.GetAllCategories(ctx)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "Mine", result.Rows[0].Name)
}

func TestMigrate_AddsExternalIDToStoredTransactions(t *testing.T) {
	store := openUnmigrated(t)
	ctx := context.Background()

	require.NoError(t, store.migrateTo(ctx, 3))
	_, err := store.db.ExecContext(ctx, `INSERT INTO accounts (name, type) VALUES ('Checking', 'cash')`)
	require.NoError(t, err)
	_, err = store.db.ExecContext(ctx,
		`INSERT INTO transactions (type, account_id, amount, description, date) VALUES ('expense', 1, '4.5', 'COFFEE', '2024-01-15')`)
	require.NoError(t, err)

	require.NoError(t, store.Migrate(ctx))

	txn, err := store.GetTransactionByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, txn)
	assert.Equal(t, "COFFEE", txn.Description)
	assert.Empty(t, txn.ExternalID)

	txn.ExternalID = "2024011501"
	require.NoError(t, store.UpdateTransaction(ctx, txn))
	stored, err := store.GetTransactionByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "2024011501", stored.ExternalID)
}

func TestColumnExists(t *testing.T) {
	store := openUnmigrated(t)
	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))

	ok, err := columnExists(ctx, store.db, "accounts", "balance")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = columnExists(ctx, store.db, "accounts", "nickname")
	require.NoError(t, err)
	assert.False(t, ok)
}
