package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/ledgerly/internal/model"
	"github.com/Veraticus/ledgerly/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupTestDB(t *testing.T) {
	db := SetupTestDB(t,
		AccountSpec{Name: "Wallet"},
		AccountSpec{Name: "Mortgage", Balance: "-1200.50", Type: model.AccountTypeLoan},
	)

	assert.Len(t, db.Accounts, 2)
	assert.True(t, db.Balance("Wallet").IsZero())
	assert.Equal(t, "-1200.5", db.Balance("Mortgage").String())

	account, err := db.Storage.GetAccountByID(context.Background(), db.MustAccount("Mortgage"))
	require.NoError(t, err)
	assert.Equal(t, model.AccountTypeLoan, account.Type)
}

func TestWithTransaction_AlwaysRollsBack(t *testing.T) {
	db := SetupTestDB(t, AccountSpec{Name: "Wallet"})

	err := db.WithTransaction(func(tx service.Transaction) error {
		_, err := tx.AddTransaction(context.Background(), &model.Transaction{
			Type:      model.TypeIncome,
			AccountID: db.MustAccount("Wallet"),
			Date:      "2024-05-01",
		})
		return err
	})
	require.NoError(t, err)

	count, err := db.Storage.CountTransactions(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}
