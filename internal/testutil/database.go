// Package testutil provides test helpers for setting up migrated databases
// with known accounts.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/Veraticus/ledgerly/internal/model"
	"github.com/Veraticus/ledgerly/internal/service"
	"github.com/Veraticus/ledgerly/internal/storage"
	"github.com/shopspring/decimal"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage  *storage.SQLiteStorage
	t        *testing.T
	Accounts map[string]int64
}

// AccountSpec describes an account to create with a starting balance.
// Balances are written directly, without an opening adjust transaction.
type AccountSpec struct {
	Name    string
	Balance string
	Type    model.AccountType
}

// SetupTestDB creates a migrated in-memory database containing accounts.
// It registers cleanup with t.
//
// Example:
//
//	db := testutil.SetupTestDB(t,
//		testutil.AccountSpec{Name: "Wallet"},
//		testutil.AccountSpec{Name: "Bank", Balance: "250.00"},
//	)
//	walletID := db.MustAccount("Wallet")
func SetupTestDB(t *testing.T, accounts ...AccountSpec) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	db := &TestDB{
		Storage:  store,
		Accounts: make(map[string]int64, len(accounts)),
		t:        t,
	}
	for _, spec := range accounts {
		db.AddAccount(spec)
	}
	return db
}

// AddAccount creates an account from spec and remembers its id by name.
func (db *TestDB) AddAccount(spec AccountSpec) int64 {
	db.t.Helper()

	balance := decimal.Zero
	if spec.Balance != "" {
		balance = decimal.RequireFromString(spec.Balance)
	}
	accountType := spec.Type
	if accountType == "" {
		accountType = model.AccountTypeCash
	}

	account := &model.Account{
		Name:              spec.Name,
		Type:              accountType,
		Unit:              "USD",
		Precision:         2,
		Balance:           balance,
		IncludeInNetWorth: true,
	}
	id, err := db.Storage.AddAccount(context.Background(), account)
	if err != nil {
		db.t.Fatalf("failed to seed account %q: %v", spec.Name, err)
	}
	db.Accounts[spec.Name] = id
	return id
}

// MustAccount returns the id of a seeded account or fails the test.
func (db *TestDB) MustAccount(name string) int64 {
	db.t.Helper()
	id, ok := db.Accounts[name]
	if !ok {
		db.t.Fatalf("account %q was not seeded", name)
	}
	return id
}

// Balance reads the stored balance of a seeded account.
func (db *TestDB) Balance(name string) decimal.Decimal {
	db.t.Helper()
	account, err := db.Storage.GetAccountByID(context.Background(), db.MustAccount(name))
	if err != nil {
		db.t.Fatalf("failed to load account %q: %v", name, err)
	}
	if account == nil {
		db.t.Fatalf("account %q no longer exists", name)
	}
	return account.Balance
}

// WithTransaction executes fn within a database transaction that is
// always rolled back.
func (db *TestDB) WithTransaction(fn func(tx service.Transaction) error) error {
	ctx := context.Background()
	tx, err := db.Storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	return fn(tx)
}
