package ofx

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/ledgerly/internal/common"
	"github.com/Veraticus/ledgerly/internal/ledger"
	"github.com/Veraticus/ledgerly/internal/model"
	"github.com/Veraticus/ledgerly/internal/service"
)

// Recorder is the part of the ledger engine an import needs.
type Recorder interface {
	CreateTransaction(ctx context.Context, d ledger.Draft) (int64, error)
	GetTransactionsByAccount(ctx context.Context, accountID int64) service.QueryResult[model.Transaction]
}

// ImportResult counts what an import did.
type ImportResult struct {
	Imported int
	Skipped  int
}

// categoryHints maps OFX transaction types that imply a category.
var categoryHints = map[string]string{
	"INT":    "Investment Income",
	"DIV":    "Investment Income",
	"FEE":    "Other Expense",
	"SRVCHG": "Other Expense",
}

// ToDraft maps an entry onto accountID. Credits become income and debits
// expense; zero amounts are recorded as income of zero.
func (e Entry) ToDraft(accountID int64) ledger.Draft {
	draft := ledger.Draft{
		Date:        e.Date,
		AccountID:   accountID,
		Amount:      e.Amount.Abs(),
		Type:        model.TypeIncome,
		Category:    categoryHints[strings.ToUpper(e.Kind)],
		Description: e.Payee,
		ExternalID:  e.FITID,
	}
	if e.Amount.IsNegative() {
		draft.Type = model.TypeExpense
	}
	if e.CheckNum != "" && draft.Description == "" {
		draft.Description = "Check " + e.CheckNum
	}
	return draft
}

// Import records entries against accountID, so importing the same
// statement twice is harmless. An entry is already recorded when the
// account holds a transaction with its FITID. Entries without a FITID, and
// transactions recorded without one, are paired up by date, type, amount
// and description, one existing transaction per entry. progress is called
// once per entry and may be nil.
func Import(ctx context.Context, rec Recorder, accountID int64, entries []Entry, progress func()) (ImportResult, error) {
	var result ImportResult

	existing := rec.GetTransactionsByAccount(ctx, accountID)
	if existing.Degraded() {
		return result, fmt.Errorf("failed to load existing transactions: %w", existing.Err)
	}
	known := make(map[string]bool)
	unpaired := make(map[string]int)
	for _, txn := range existing.Rows {
		if txn.AccountID != accountID {
			continue
		}
		if txn.ExternalID != "" {
			known[txn.ExternalID] = true
			continue
		}
		unpaired[fingerprint(txn.Date, txn.Type, txn.Amount.String(), txn.Description)]++
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		draft := entry.ToDraft(accountID)
		key := fingerprint(entry.Date, draft.Type, draft.Amount.String(), draft.Description)
		switch {
		case entry.FITID != "" && known[entry.FITID]:
			result.Skipped++
		case unpaired[key] > 0:
			unpaired[key]--
			result.Skipped++
		default:
			if _, err := rec.CreateTransaction(ctx, draft); err != nil {
				if !common.IsValidationError(err) {
					return result, fmt.Errorf("failed to import %s: %w", entry.FITID, err)
				}
				slog.Warn("Skipping invalid OFX entry", "fitid", entry.FITID, "error", err)
				result.Skipped++
			} else {
				result.Imported++
			}
		}

		if progress != nil {
			progress()
		}
	}

	common.LogInfo("Imported OFX entries", common.Fields{
		"account":  accountID,
		"imported": result.Imported,
		"skipped":  result.Skipped,
	})
	return result, nil
}

func fingerprint(date string, t model.TransactionType, amount, description string) string {
	return strings.Join([]string{date, string(t), amount, description}, "|")
}
