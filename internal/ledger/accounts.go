package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/ledgerly/internal/common"
	"github.com/Veraticus/ledgerly/internal/events"
	"github.com/Veraticus/ledgerly/internal/model"
	"github.com/Veraticus/ledgerly/internal/service"
	"github.com/shopspring/decimal"
)

// OpeningBalanceDescription labels the adjust transaction CreateAccount records.
const OpeningBalanceDescription = "Opening balance"

// CreateAccount stores account with a zero balance. A non-zero opening
// amount is recorded as an adjust transaction so the balance always equals
// the sum of its transactions.
func (e *Engine) CreateAccount(ctx context.Context, account model.Account, opening decimal.Decimal) (int64, error) {
	account.ID = 0
	account.Balance = decimal.Zero
	if account.CreatedAt.IsZero() {
		account.CreatedAt = e.now()
	}

	var added *model.Transaction
	err := e.inTx(ctx, func(tx service.Transaction) error {
		if _, err := tx.AddAccount(ctx, &account); err != nil {
			return fmt.Errorf("failed to add account: %w", err)
		}
		if opening.IsZero() {
			return nil
		}

		now := e.now()
		adjust := model.Transaction{
			Type:        model.TypeAdjust,
			AccountID:   account.ID,
			Amount:      opening,
			Description: OpeningBalanceDescription,
			Date:        e.today(),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if _, err := tx.AddTransaction(ctx, &adjust); err != nil {
			return fmt.Errorf("failed to record opening balance: %w", err)
		}
		added = &adjust

		deltas, err := Effects(&adjust)
		if err != nil {
			return err
		}
		if err := applyDeltas(ctx, tx, deltas); err != nil {
			return err
		}
		account.Balance = opening
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.Info("created account", "id", account.ID, "name", account.Name, "opening", opening.String())
	evts := []events.Event{events.AccountUpdated{Account: account}}
	if added != nil {
		evts = append(evts, events.TransactionAdded{Transaction: *added, ID: added.ID})
	}
	e.publish(append(evts, events.DataRefreshed{})...)
	return account.ID, nil
}

// UpdateAccount changes account metadata. The stored balance and creation
// time are kept; balances only move through transactions.
func (e *Engine) UpdateAccount(ctx context.Context, account model.Account) error {
	var updated model.Account
	err := e.inTx(ctx, func(tx service.Transaction) error {
		existing, err := tx.GetAccountByID(ctx, account.ID)
		if err != nil {
			return fmt.Errorf("failed to load account %d: %w", account.ID, err)
		}
		if existing == nil {
			return fmt.Errorf("%w: account %d", common.ErrNotFound, account.ID)
		}

		account.Balance = existing.Balance
		account.CreatedAt = existing.CreatedAt
		if err := tx.UpdateAccount(ctx, &account); err != nil {
			return fmt.Errorf("failed to update account: %w", err)
		}
		updated = account
		return nil
	})
	if err != nil {
		return err
	}

	e.publish(events.AccountUpdated{Account: updated}, events.DataRefreshed{})
	return nil
}

// DeleteAccount removes an account and every transaction that references
// it in a single store transaction. Non-adjust records are reverted first,
// so the other side of each transfer gets its money back; the adjust
// records and the account go last. A failure leaves everything in place.
func (e *Engine) DeleteAccount(ctx context.Context, accountID int64) error {
	var (
		existing *model.Account
		removed  []int64
	)
	err := e.inTx(ctx, func(tx service.Transaction) error {
		removed = removed[:0]

		account, err := tx.GetAccountByID(ctx, accountID)
		if err != nil {
			return fmt.Errorf("failed to load account %d: %w", accountID, err)
		}
		if account == nil {
			return fmt.Errorf("%w: account %d", common.ErrNotFound, accountID)
		}
		existing = account

		related := tx.GetTransactionsByAccount(ctx, accountID)
		if related.Degraded() {
			return fmt.Errorf("failed to list transactions of account %d: %w", accountID, related.Err)
		}

		var adjusts []int64
		for _, txn := range related.Rows {
			if txn.Type == model.TypeAdjust {
				adjusts = append(adjusts, txn.ID)
				continue
			}
			if err := deleteTransaction(ctx, tx, txn.ID); err != nil {
				return fmt.Errorf("failed to delete transaction %d of account %d: %w", txn.ID, accountID, err)
			}
			removed = append(removed, txn.ID)
		}
		for _, id := range adjusts {
			if err := tx.DeleteTransaction(ctx, id); err != nil {
				return fmt.Errorf("failed to delete adjustment %d: %w", id, err)
			}
			removed = append(removed, id)
		}
		return tx.DeleteAccount(ctx, accountID)
	})
	if err != nil {
		return err
	}

	slog.Info("deleted account", "id", accountID, "transactions", len(removed))
	evts := make([]events.Event, 0, len(removed)+2)
	for _, id := range removed {
		evts = append(evts, events.TransactionDeleted{ID: id})
	}
	e.publish(append(evts, events.AccountUpdated{Account: *existing}, events.DataRefreshed{})...)
	return nil
}

// RecomputeBalance folds every transaction that touches accountID into a
// balance. It matches the stored balance whenever the ledger is consistent.
func (e *Engine) RecomputeBalance(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	related := e.store.GetTransactionsByAccount(ctx, accountID)
	if related.Degraded() {
		return decimal.Zero, fmt.Errorf("failed to list transactions of account %d: %w", accountID, related.Err)
	}

	balance := decimal.Zero
	for i := range related.Rows {
		deltas, err := Effects(&related.Rows[i])
		if err != nil {
			return decimal.Zero, fmt.Errorf("transaction %d: %w", related.Rows[i].ID, err)
		}
		for _, d := range deltas {
			if d.AccountID == accountID {
				balance = ApplyDelta(balance, d)
			}
		}
	}
	return balance, nil
}

// Drift is an account whose stored balance disagrees with its transactions.
type Drift struct {
	Stored     decimal.Decimal
	Recomputed decimal.Decimal
	Account    model.Account
}

// VerifyBalances recomputes every account and reports the ones that drifted.
func (e *Engine) VerifyBalances(ctx context.Context) ([]Drift, error) {
	accounts := e.store.GetAllAccounts(ctx)
	if accounts.Degraded() {
		return nil, fmt.Errorf("failed to list accounts: %w", accounts.Err)
	}

	var drifts []Drift
	for _, account := range accounts.Rows {
		recomputed, err := e.RecomputeBalance(ctx, account.ID)
		if err != nil {
			return nil, err
		}
		if !recomputed.Equal(account.Balance) {
			drifts = append(drifts, Drift{Account: account, Stored: account.Balance, Recomputed: recomputed})
		}
	}
	return drifts, nil
}
