package ledger

import (
	"context"
	"log/slog"
	"sort"

	"github.com/Veraticus/ledgerly/internal/datekey"
	"github.com/Veraticus/ledgerly/internal/model"
	"github.com/Veraticus/ledgerly/internal/service"
	"github.com/shopspring/decimal"
)

// GetAllTransactions returns every transaction. Failures degrade to an
// empty result whose Status says so.
func (e *Engine) GetAllTransactions(ctx context.Context) service.QueryResult[model.Transaction] {
	return e.store.GetAllTransactions(ctx)
}

// GetTransactionByID returns nil when the id is unknown.
func (e *Engine) GetTransactionByID(ctx context.Context, id int64) (*model.Transaction, error) {
	return e.store.GetTransactionByID(ctx, id)
}

// GetTransactionsByAccount returns the transactions that touch accountID as
// source or destination.
func (e *Engine) GetTransactionsByAccount(ctx context.Context, accountID int64) service.QueryResult[model.Transaction] {
	return e.store.GetTransactionsByAccount(ctx, accountID)
}

// GetTransactionsByType filters all transactions by type.
func (e *Engine) GetTransactionsByType(ctx context.Context, t model.TransactionType) service.QueryResult[model.Transaction] {
	return e.filter(ctx, func(txn *model.Transaction) bool { return txn.Type == t })
}

// GetTransactionsByCategory filters all transactions by category label.
func (e *Engine) GetTransactionsByCategory(ctx context.Context, category string) service.QueryResult[model.Transaction] {
	return e.filter(ctx, func(txn *model.Transaction) bool { return txn.Category == category })
}

// GetTransactionsByDateRange returns transactions dated within [start, end]
// by calendar day. The date index is tried first; a full scan is used only
// when the index query could not run. Bounds that are not dates match
// nothing.
func (e *Engine) GetTransactionsByDateRange(ctx context.Context, start, end any) service.QueryResult[model.Transaction] {
	startKey, ok := datekey.ParseKey(start)
	if !ok {
		return service.Found[model.Transaction](nil)
	}
	endKey, ok := datekey.ParseKey(end)
	if !ok {
		return service.Found[model.Transaction](nil)
	}

	indexed := e.store.QueryTransactionsByDateRange(ctx, startKey, endKey)
	if !indexed.Degraded() {
		return indexed
	}

	slog.Warn("date index unavailable, scanning all transactions", "error", indexed.Err)
	return e.filter(ctx, func(txn *model.Transaction) bool {
		return datekey.Within(txn.Date, startKey, endKey)
	})
}

// GetTransactionsByDate is the single-day range.
func (e *Engine) GetTransactionsByDate(ctx context.Context, day any) service.QueryResult[model.Transaction] {
	return e.GetTransactionsByDateRange(ctx, day, day)
}

// TotalIncome sums the amounts of all income transactions.
func (e *Engine) TotalIncome(ctx context.Context) decimal.Decimal {
	return sumByType(e.store.GetAllTransactions(ctx).Rows, model.TypeIncome)
}

// TotalExpense sums the amounts of all expense transactions.
func (e *Engine) TotalExpense(ctx context.Context) decimal.Decimal {
	return sumByType(e.store.GetAllTransactions(ctx).Rows, model.TypeExpense)
}

// Balance is total income minus total expense. Transfers, loans and
// adjustments are not part of it.
func (e *Engine) Balance(ctx context.Context) decimal.Decimal {
	rows := e.store.GetAllTransactions(ctx).Rows
	return sumByType(rows, model.TypeIncome).Sub(sumByType(rows, model.TypeExpense))
}

// NetWorth sums the balances of accounts flagged IncludeInNetWorth.
func (e *Engine) NetWorth(ctx context.Context) decimal.Decimal {
	total := decimal.Zero
	for _, account := range e.store.GetAllAccounts(ctx).Rows {
		if account.IncludeInNetWorth {
			total = total.Add(account.Balance)
		}
	}
	return total
}

// CategoryTotal is the activity of one category within a summary.
type CategoryTotal struct {
	Amount   decimal.Decimal
	Category string
	Count    int
}

// Summary aggregates income and expense by category over a date range.
type Summary struct {
	Start         string
	End           string
	Income        []CategoryTotal
	Expenses      []CategoryTotal
	TotalIncome   decimal.Decimal
	TotalExpenses decimal.Decimal
	Net           decimal.Decimal
	TransferTotal decimal.Decimal
	Degraded      bool
}

// SummarizeByCategory totals income and expense per category for the
// transactions dated within [start, end]. Categories are ordered by amount,
// largest first.
func (e *Engine) SummarizeByCategory(ctx context.Context, start, end any) Summary {
	startKey, _ := datekey.ParseKey(start)
	endKey, _ := datekey.ParseKey(end)
	result := e.GetTransactionsByDateRange(ctx, start, end)

	summary := Summary{Start: startKey, End: endKey, Degraded: result.Degraded()}
	income := make(map[string]*CategoryTotal)
	expenses := make(map[string]*CategoryTotal)

	for _, txn := range result.Rows {
		switch txn.Type {
		case model.TypeIncome:
			addTo(income, txn)
			summary.TotalIncome = summary.TotalIncome.Add(txn.Amount)
		case model.TypeExpense:
			addTo(expenses, txn)
			summary.TotalExpenses = summary.TotalExpenses.Add(txn.Amount)
		case model.TypeTransfer:
			summary.TransferTotal = summary.TransferTotal.Add(txn.Amount)
		}
	}

	summary.Income = sortedTotals(income)
	summary.Expenses = sortedTotals(expenses)
	summary.Net = summary.TotalIncome.Sub(summary.TotalExpenses)
	return summary
}

func (e *Engine) filter(ctx context.Context, keep func(*model.Transaction) bool) service.QueryResult[model.Transaction] {
	all := e.store.GetAllTransactions(ctx)
	if all.Degraded() {
		return all
	}

	var matched []model.Transaction
	for i := range all.Rows {
		if keep(&all.Rows[i]) {
			matched = append(matched, all.Rows[i])
		}
	}
	return service.Found(matched)
}

func sumByType(rows []model.Transaction, t model.TransactionType) decimal.Decimal {
	total := decimal.Zero
	for _, txn := range rows {
		if txn.Type == t {
			total = total.Add(txn.Amount)
		}
	}
	return total
}

func addTo(totals map[string]*CategoryTotal, txn model.Transaction) {
	category := txn.Category
	if category == "" {
		category = "Uncategorized"
	}
	ct, ok := totals[category]
	if !ok {
		ct = &CategoryTotal{Category: category}
		totals[category] = ct
	}
	ct.Count++
	ct.Amount = ct.Amount.Add(txn.Amount)
}

func sortedTotals(totals map[string]*CategoryTotal) []CategoryTotal {
	out := make([]CategoryTotal, 0, len(totals))
	for _, ct := range totals {
		out = append(out, *ct)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}
