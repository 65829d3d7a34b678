package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/ledgerly/internal/common"
	"github.com/Veraticus/ledgerly/internal/datekey"
	"github.com/Veraticus/ledgerly/internal/events"
	"github.com/Veraticus/ledgerly/internal/model"
	"github.com/Veraticus/ledgerly/internal/service"
	"github.com/shopspring/decimal"
)

// Draft is a transaction as submitted by a caller. Date accepts anything
// datekey understands; nil or "" means today.
type Draft struct {
	Date          any
	Amount        decimal.Decimal
	Type          model.TransactionType
	Category      string
	Description   string
	ExternalID    string
	AccountID     int64
	PeerAccountID int64
	ToAccountID   int64
}

// CreateTransaction records a new transaction and applies its balance
// effects. Nothing is written when validation fails.
func (e *Engine) CreateTransaction(ctx context.Context, d Draft) (int64, error) {
	txn := model.Transaction{
		Type:          d.Type,
		AccountID:     d.AccountID,
		PeerAccountID: d.PeerAccountID,
		ToAccountID:   d.ToAccountID,
		Amount:        d.Amount,
		Category:      d.Category,
		Description:   d.Description,
		ExternalID:    d.ExternalID,
		Date:          e.storageKey(d.Date),
	}
	dropDestination(&txn)
	if err := validate(&txn); err != nil {
		return 0, err
	}
	deltas, err := Effects(&txn)
	if err != nil {
		return 0, err
	}

	now := e.now()
	txn.CreatedAt = now
	txn.UpdatedAt = now

	err = e.inTx(ctx, func(tx service.Transaction) error {
		if _, err := tx.AddTransaction(ctx, &txn); err != nil {
			return fmt.Errorf("failed to add transaction: %w", err)
		}
		return applyDeltas(ctx, tx, deltas)
	})
	if err != nil {
		return 0, err
	}

	slog.Info("created transaction", "id", txn.ID, "type", txn.Type, "amount", txn.Amount.String())
	e.publish(events.TransactionAdded{Transaction: txn, ID: txn.ID}, events.DataRefreshed{})
	return txn.ID, nil
}

// UpdateTransaction replaces the stored transaction with the same ID,
// reverting the old balance effects and applying the new ones.
func (e *Engine) UpdateTransaction(ctx context.Context, txn model.Transaction) error {
	if txn.ID <= 0 {
		return fmt.Errorf("%w: transaction %d", common.ErrNotFound, txn.ID)
	}
	txn.Date = e.storageKey(txn.Date)
	dropDestination(&txn)
	if err := validate(&txn); err != nil {
		return err
	}
	newDeltas, err := Effects(&txn)
	if err != nil {
		return err
	}

	err = e.inTx(ctx, func(tx service.Transaction) error {
		existing, err := tx.GetTransactionByID(ctx, txn.ID)
		if err != nil {
			return fmt.Errorf("failed to load transaction %d: %w", txn.ID, err)
		}
		if existing == nil {
			return fmt.Errorf("%w: transaction %d", common.ErrNotFound, txn.ID)
		}

		oldDeltas, err := Effects(existing)
		if err != nil {
			return fmt.Errorf("stored transaction %d: %w", txn.ID, err)
		}
		if err := applyDeltas(ctx, tx, Invert(oldDeltas)); err != nil {
			return err
		}

		txn.CreatedAt = existing.CreatedAt
		txn.UpdatedAt = e.now()
		if err := tx.UpdateTransaction(ctx, &txn); err != nil {
			return fmt.Errorf("failed to update transaction: %w", err)
		}

		return applyDeltas(ctx, tx, newDeltas)
	})
	if err != nil {
		return err
	}

	slog.Info("updated transaction", "id", txn.ID, "type", txn.Type, "amount", txn.Amount.String())
	e.publish(events.TransactionUpdated{Transaction: txn}, events.DataRefreshed{})
	return nil
}

// DeleteTransaction removes a transaction and reverts its balance effects.
// Adjust transactions are permanent.
func (e *Engine) DeleteTransaction(ctx context.Context, id int64) error {
	err := e.inTx(ctx, func(tx service.Transaction) error {
		return deleteTransaction(ctx, tx, id)
	})
	if err != nil {
		return err
	}

	slog.Info("deleted transaction", "id", id)
	e.publish(events.TransactionDeleted{ID: id}, events.DataRefreshed{})
	return nil
}

func deleteTransaction(ctx context.Context, tx service.Transaction, id int64) error {
	existing, err := tx.GetTransactionByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load transaction %d: %w", id, err)
	}
	if existing == nil {
		return fmt.Errorf("%w: transaction %d", common.ErrNotFound, id)
	}
	if existing.Type == model.TypeAdjust {
		return fmt.Errorf("%w: transaction %d is a balance adjustment", common.ErrImmutableRecord, id)
	}

	deltas, err := Effects(existing)
	if err != nil {
		return fmt.Errorf("stored transaction %d: %w", id, err)
	}
	if err := applyDeltas(ctx, tx, Invert(deltas)); err != nil {
		return err
	}

	if err := tx.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}

// validate checks the preconditions every mutation must meet before
// anything is written.
func validate(txn *model.Transaction) error {
	if !txn.Type.Valid() {
		return fmt.Errorf("%w: %q", common.ErrInvalidType, txn.Type)
	}
	if txn.AccountID <= 0 {
		return fmt.Errorf("%w: missing source account", common.ErrInvalidReference)
	}
	if txn.Type == model.TypeTransfer {
		dest := txn.Destination()
		if dest <= 0 {
			return fmt.Errorf("%w: transfer has no destination account", common.ErrInvalidReference)
		}
		if dest == txn.AccountID {
			return fmt.Errorf("%w: transfer source and destination are both account %d", common.ErrInvalidReference, dest)
		}
	}
	if txn.Type != model.TypeAdjust && txn.Amount.IsNegative() {
		return fmt.Errorf("%w: %s must not be negative", common.ErrInvalidAmount, txn.Amount)
	}
	return nil
}

// dropDestination clears the receiving account of anything but a transfer,
// so a type change never leaves a stale destination behind.
func dropDestination(txn *model.Transaction) {
	if txn.Type != model.TypeTransfer {
		txn.PeerAccountID = 0
		txn.ToAccountID = 0
	}
}

// storageKey normalizes v, using the engine clock for empty dates.
func (e *Engine) storageKey(v any) string {
	if v == nil {
		return e.today()
	}
	if s, ok := v.(string); ok && s == "" {
		return e.today()
	}
	return datekey.ToStorageKey(v)
}

func (e *Engine) today() string {
	return e.now().In(time.Local).Format(datekey.Layout)
}
