package ledger

import (
	"context"
	"fmt"

	"github.com/Veraticus/ledgerly/internal/common"
	"github.com/Veraticus/ledgerly/internal/model"
	"github.com/Veraticus/ledgerly/internal/service"
	"github.com/shopspring/decimal"
)

// Effects returns the balance changes txn causes.
//
//	income, borrow   +amount on the account
//	expense, repay   -amount on the account
//	adjust           +amount on the account (amount is signed)
//	transfer         -amount on the account, +amount on the destination
func Effects(txn *model.Transaction) ([]model.Delta, error) {
	switch txn.Type {
	case model.TypeIncome, model.TypeBorrow, model.TypeAdjust:
		return []model.Delta{{AccountID: txn.AccountID, Amount: txn.Amount}}, nil
	case model.TypeExpense, model.TypeRepay:
		return []model.Delta{{AccountID: txn.AccountID, Amount: txn.Amount.Neg()}}, nil
	case model.TypeTransfer:
		dest := txn.Destination()
		if dest <= 0 {
			return nil, fmt.Errorf("%w: transfer has no destination account", common.ErrInvalidReference)
		}
		return []model.Delta{
			{AccountID: txn.AccountID, Amount: txn.Amount.Neg()},
			{AccountID: dest, Amount: txn.Amount},
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", common.ErrInvalidType, txn.Type)
	}
}

// Invert negates every delta. Applying Invert(d) after d restores the
// original balances.
func Invert(deltas []model.Delta) []model.Delta {
	inverted := make([]model.Delta, len(deltas))
	for i, d := range deltas {
		inverted[i] = model.Delta{AccountID: d.AccountID, Amount: d.Amount.Neg()}
	}
	return inverted
}

// ApplyDelta returns balance after d.
func ApplyDelta(balance decimal.Decimal, d model.Delta) decimal.Decimal {
	return balance.Add(d.Amount)
}

// applyDeltas re-reads each account inside tx and writes its new balance.
func applyDeltas(ctx context.Context, tx service.Transaction, deltas []model.Delta) error {
	for _, d := range deltas {
		account, err := tx.GetAccountByID(ctx, d.AccountID)
		if err != nil {
			return fmt.Errorf("failed to load account %d: %w", d.AccountID, err)
		}
		if account == nil {
			return fmt.Errorf("%w: account %d does not exist", common.ErrInvalidReference, d.AccountID)
		}

		account.Balance = ApplyDelta(account.Balance, d)
		if err := tx.UpdateAccount(ctx, account); err != nil {
			return fmt.Errorf("failed to update balance of account %d: %w", d.AccountID, err)
		}
	}
	return nil
}
