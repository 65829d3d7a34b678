package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/ledgerly/internal/model"
	"github.com/Veraticus/ledgerly/internal/service"
	"github.com/Veraticus/ledgerly/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedJanuary records transactions whose dates arrive in different shapes.
func seedJanuary(t *testing.T, engine *Engine, accountID int64) {
	t.Helper()
	ctx := context.Background()

	drafts := []Draft{
		{Type: model.TypeExpense, Amount: dec("1"), Category: "Dining", Date: "2023-12-31"},
		{Type: model.TypeExpense, Amount: dec("2"), Category: "Dining", Date: "2024-01-01"},
		{Type: model.TypeIncome, Amount: dec("3"), Category: "Salary", Date: time.Date(2024, 1, 15, 23, 45, 0, 0, time.Local)},
		{Type: model.TypeExpense, Amount: dec("4"), Category: "Transport", Date: "2024/1/20"},
		{Type: model.TypeIncome, Amount: dec("5"), Category: "Bonus", Date: "2024-01-31T22:10:00"},
		{Type: model.TypeExpense, Amount: dec("6"), Category: "Dining", Date: "2024-02-01"},
	}
	for _, d := range drafts {
		d.AccountID = accountID
		_, err := engine.CreateTransaction(ctx, d)
		require.NoError(t, err)
	}
}

func dates(rows []model.Transaction) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Date
	}
	return out
}

func TestEngine_JanuaryRangeIgnoresInputFormat(t *testing.T) {
	want := []string{"2024-01-01", "2024-01-15", "2024-01-20", "2024-01-31"}
	bounds := []struct {
		start any
		end   any
		name  string
	}{
		{name: "canonical keys", start: "2024-01-01", end: "2024-01-31"},
		{name: "slashes", start: "2024/01/01", end: "2024/1/31"},
		{name: "times", start: time.Date(2024, 1, 1, 8, 0, 0, 0, time.Local), end: time.Date(2024, 1, 31, 23, 59, 0, 0, time.Local)},
		{name: "mixed", start: "2024-01-01T00:00:00", end: "2024-01-31"},
	}

	for _, indexDown := range []bool{false, true} {
		db := testutil.SetupTestDB(t, testutil.AccountSpec{Name: "A"})
		store := &flakyStore{Storage: db.Storage, indexDown: indexDown}
		engine := newTestEngine(t, store, nil)
		seedJanuary(t, engine, db.MustAccount("A"))

		for _, b := range bounds {
			name := b.name
			if indexDown {
				name += " with index down"
			}
			t.Run(name, func(t *testing.T) {
				result := engine.GetTransactionsByDateRange(context.Background(), b.start, b.end)
				assert.Equal(t, service.QueryOK, result.Status)
				assert.ElementsMatch(t, want, dates(result.Rows))
			})
		}
	}
}

func TestEngine_RangeEqualsSingleDay(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.AccountSpec{Name: "A"})
	engine := newTestEngine(t, db.Storage, nil)
	seedJanuary(t, engine, db.MustAccount("A"))
	ctx := context.Background()

	for _, day := range []string{"2024-01-15", "2024-01-16", "2023-12-31"} {
		assert.Equal(t,
			engine.GetTransactionsByDateRange(ctx, day, day),
			engine.GetTransactionsByDate(ctx, day),
			day)
	}
}

func TestEngine_InvalidBoundsMatchNothing(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.AccountSpec{Name: "A"})
	engine := newTestEngine(t, db.Storage, nil)
	seedJanuary(t, engine, db.MustAccount("A"))
	ctx := context.Background()

	for _, bounds := range [][2]any{{"not a date", "2024-12-31"}, {"2024-01-01", nil}, {time.Time{}, "2024-12-31"}} {
		result := engine.GetTransactionsByDateRange(ctx, bounds[0], bounds[1])
		assert.Equal(t, service.QueryEmpty, result.Status)
		assert.Empty(t, result.Rows)
	}
}

// scanCounter counts full table scans.
type scanCounter struct {
	service.Storage
	scans int
}

func (s *scanCounter) GetAllTransactions(ctx context.Context) service.QueryResult[model.Transaction] {
	s.scans++
	return s.Storage.GetAllTransactions(ctx)
}

func TestEngine_EmptyIndexResultDoesNotFallBack(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.AccountSpec{Name: "A"})
	store := &scanCounter{Storage: db.Storage}
	engine := newTestEngine(t, store, nil)
	seedJanuary(t, engine, db.MustAccount("A"))

	result := engine.GetTransactionsByDateRange(context.Background(), "2025-01-01", "2025-01-31")
	assert.Equal(t, service.QueryEmpty, result.Status)
	assert.Zero(t, store.scans)

	down := &flakyStore{Storage: store, indexDown: true}
	result = newTestEngine(t, down, nil).GetTransactionsByDateRange(context.Background(), "2025-01-01", "2025-01-31")
	assert.Equal(t, service.QueryEmpty, result.Status)
	assert.Equal(t, 1, store.scans)
}

func TestEngine_FilterQueries(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.AccountSpec{Name: "A"})
	engine := newTestEngine(t, db.Storage, nil)
	seedJanuary(t, engine, db.MustAccount("A"))
	ctx := context.Background()

	assert.Len(t, engine.GetTransactionsByType(ctx, model.TypeIncome).Rows, 2)
	assert.Len(t, engine.GetTransactionsByType(ctx, model.TypeExpense).Rows, 4)
	assert.Equal(t, service.QueryEmpty, engine.GetTransactionsByType(ctx, model.TypeBorrow).Status)

	dining := engine.GetTransactionsByCategory(ctx, "Dining")
	assert.Equal(t, []string{"2023-12-31", "2024-01-01", "2024-02-01"}, dates(dining.Rows))
}

func TestEngine_SummarizeByCategory(t *testing.T) {
	db := testutil.SetupTestDB(t, testutil.AccountSpec{Name: "A"}, testutil.AccountSpec{Name: "B"})
	engine := newTestEngine(t, db.Storage, nil)
	a := db.MustAccount("A")
	seedJanuary(t, engine, a)
	ctx := context.Background()

	_, err := engine.CreateTransaction(ctx, Draft{Type: model.TypeExpense, AccountID: a, Amount: dec("10"), Date: "2024-01-10"})
	require.NoError(t, err)
	_, err = engine.CreateTransaction(ctx, Draft{Type: model.TypeTransfer, AccountID: a, ToAccountID: db.MustAccount("B"), Amount: dec("7"), Date: "2024-01-11"})
	require.NoError(t, err)

	summary := engine.SummarizeByCategory(ctx, "2024-01-01", "2024-01-31")
	assert.Equal(t, "2024-01-01", summary.Start)
	assert.Equal(t, "2024-01-31", summary.End)
	assert.False(t, summary.Degraded)

	assertAmount(t, "8", summary.TotalIncome)
	assertAmount(t, "16", summary.TotalExpenses)
	assertAmount(t, "-8", summary.Net)
	assertAmount(t, "7", summary.TransferTotal)

	require.Len(t, summary.Income, 2)
	assert.Equal(t, "Bonus", summary.Income[0].Category)
	assert.Equal(t, "Salary", summary.Income[1].Category)

	require.Len(t, summary.Expenses, 3)
	assert.Equal(t, "Uncategorized", summary.Expenses[0].Category)
	assertAmount(t, "10", summary.Expenses[0].Amount)
	assert.Equal(t, "Transport", summary.Expenses[1].Category)
	assert.Equal(t, "Dining", summary.Expenses[2].Category)
	assert.Equal(t, 1, summary.Expenses[2].Count)
}

func TestEngine_NetWorth(t *testing.T) {
	db := testutil.SetupTestDB(t,
		testutil.AccountSpec{Name: "Cash", Balance: "100"},
		testutil.AccountSpec{Name: "Card", Balance: "-40"},
	)
	engine := newTestEngine(t, db.Storage, nil)
	ctx := context.Background()

	_, err := engine.CreateAccount(ctx, model.Account{Name: "Piggy", Type: model.AccountTypeVirtual, IncludeInNetWorth: false}, dec("500"))
	require.NoError(t, err)

	assertAmount(t, "60", engine.NetWorth(ctx))
}
