package ofx

import (
	"context"
	"strings"
	"testing"

	"github.com/Veraticus/ledgerly/internal/ledger"
	"github.com/Veraticus/ledgerly/internal/model"
	"github.com/Veraticus/ledgerly/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntry_ToDraft(t *testing.T) {
	debit := Entry{Date: "2024-01-15", Amount: decimal.RequireFromString("-25.50"), Payee: "STARBUCKS", Kind: "DEBIT"}
	draft := debit.ToDraft(7)
	assert.Equal(t, model.TypeExpense, draft.Type)
	assert.Equal(t, int64(7), draft.AccountID)
	assert.Equal(t, "25.5", draft.Amount.String())
	assert.Equal(t, "STARBUCKS", draft.Description)
	assert.Empty(t, draft.Category)
	assert.Empty(t, draft.ExternalID)

	withID := Entry{Date: "2024-01-15", Amount: decimal.RequireFromString("-4.50"), FITID: "A1"}
	assert.Equal(t, "A1", withID.ToDraft(7).ExternalID)

	interest := Entry{Date: "2024-01-31", Amount: decimal.RequireFromString("1.23"), Kind: "INT"}
	draft = interest.ToDraft(7)
	assert.Equal(t, model.TypeIncome, draft.Type)
	assert.Equal(t, "Investment Income", draft.Category)

	check := Entry{Date: "2024-01-25", Amount: decimal.RequireFromString("-500"), CheckNum: "1234", Kind: "CHECK"}
	assert.Equal(t, "Check 1234", check.ToDraft(7).Description)
}

func TestImport(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.AccountSpec{Name: "Checking", Balance: "1000"})
	engine := ledger.New(db.Storage, nil)
	ctx := context.Background()
	accountID := db.MustAccount("Checking")

	entries, err := NewParser().ParseFile(ctx, strings.NewReader(sampleBankOFX))
	require.NoError(t, err)

	var ticks int
	result, err := Import(ctx, engine, accountID, entries, func() { ticks++ })
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Imported: 4}, result)
	assert.Equal(t, 4, ticks)

	// 1000 - 25.50 - 125 - 500 + 1.23
	assert.Equal(t, "350.73", db.Balance("Checking").String())

	again, err := Import(ctx, engine, accountID, entries, nil)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Skipped: 4}, again)
	assert.Equal(t, "350.73", db.Balance("Checking").String())
}

func coffee(fitid string) Entry {
	return Entry{Date: "2024-01-15", Amount: decimal.RequireFromString("-4.50"), Payee: "COFFEE", FITID: fitid, Kind: "DEBIT"}
}

func TestImport_SameDayEntriesWithDistinctFITIDs(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.AccountSpec{Name: "Checking", Balance: "100"})
	engine := ledger.New(db.Storage, nil)
	ctx := context.Background()
	accountID := db.MustAccount("Checking")

	entries := []Entry{coffee("A1"), coffee("A2")}
	result, err := Import(ctx, engine, accountID, entries, nil)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Imported: 2}, result)
	assert.Equal(t, "91", db.Balance("Checking").String())

	stored := engine.GetTransactionsByAccount(ctx, accountID).Rows
	require.Len(t, stored, 2)
	assert.ElementsMatch(t, []string{"A1", "A2"}, []string{stored[0].ExternalID, stored[1].ExternalID})

	// A later statement overlapping the first one only adds the new entry.
	result, err = Import(ctx, engine, accountID, []Entry{coffee("A2"), coffee("A3")}, nil)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Imported: 1, Skipped: 1}, result)
	assert.Equal(t, "86.5", db.Balance("Checking").String())
}

func TestImport_EntriesWithoutFITIDPairUpOneToOne(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.AccountSpec{Name: "Checking", Balance: "100"})
	engine := ledger.New(db.Storage, nil)
	ctx := context.Background()
	accountID := db.MustAccount("Checking")

	_, err := engine.CreateTransaction(ctx, ledger.Draft{
		Type: model.TypeExpense, AccountID: accountID, Amount: decimal.RequireFromString("4.5"),
		Description: "COFFEE", Date: "2024-01-15",
	})
	require.NoError(t, err)

	// One of the two identical entries is already recorded by hand.
	result, err := Import(ctx, engine, accountID, []Entry{coffee(""), coffee("")}, nil)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Imported: 1, Skipped: 1}, result)
	assert.Equal(t, "91", db.Balance("Checking").String())

	result, err = Import(ctx, engine, accountID, []Entry{coffee(""), coffee("")}, nil)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Skipped: 2}, result)
	assert.Equal(t, "91", db.Balance("Checking").String())
}

func TestImport_InvalidEntriesAreSkipped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	engine := ledger.New(db.Storage, nil)
	ctx := context.Background()

	entries, err := NewParser().ParseFile(ctx, strings.NewReader(sampleCreditCardOFX))
	require.NoError(t, err)

	// Every draft references a missing account and fails validation.
	result, err := Import(ctx, engine, 99, entries, nil)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Skipped: 2}, result)

	count, err := db.Storage.CountTransactions(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestImport_Cancelled(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.AccountSpec{Name: "Card"})
	engine := ledger.New(db.Storage, nil)

	entries, err := NewParser().ParseFile(context.Background(), strings.NewReader(sampleCreditCardOFX))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = Import(ctx, engine, db.MustAccount("Card"), entries, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
