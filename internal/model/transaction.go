// Package model defines the ledger's domain types.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType identifies how a transaction moves money.
type TransactionType string

const (
	// TypeIncome adds money to an account.
	TypeIncome TransactionType = "income"
	// TypeExpense removes money from an account.
	TypeExpense TransactionType = "expense"
	// TypeTransfer moves money from one account to another.
	TypeTransfer TransactionType = "transfer"
	// TypeBorrow records borrowed money arriving in an account.
	TypeBorrow TransactionType = "borrow"
	// TypeRepay records a debt repayment leaving an account.
	TypeRepay TransactionType = "repay"
	// TypeAdjust records an opening or corrective balance. It cannot be deleted.
	TypeAdjust TransactionType = "adjust"
)

// TransactionTypes lists every known type in display order.
var TransactionTypes = []TransactionType{
	TypeIncome, TypeExpense, TypeTransfer, TypeBorrow, TypeRepay, TypeAdjust,
}

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	for _, known := range TransactionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Transaction records one money movement. Amount is a magnitude; direction
// comes from Type. Adjust transactions carry a signed amount.
type Transaction struct {
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Amount        decimal.Decimal
	Type          TransactionType
	Category      string
	Description   string
	Date          string // canonical YYYY-MM-DD, local calendar day
	ExternalID    string // bank-assigned id of an imported entry
	ID            int64
	AccountID     int64
	PeerAccountID int64
	ToAccountID   int64
}

// Destination resolves the receiving account of a transfer: PeerAccountID
// when set, otherwise ToAccountID. Zero means no destination.
func (t *Transaction) Destination() int64 {
	if t.PeerAccountID != 0 {
		return t.PeerAccountID
	}
	return t.ToAccountID
}

// References reports whether the transaction touches the given account as
// source or destination.
func (t *Transaction) References(accountID int64) bool {
	if t.AccountID == accountID {
		return true
	}
	return t.Type == TypeTransfer && t.Destination() == accountID
}

// Delta is a signed change to a single account balance.
type Delta struct {
	Amount    decimal.Decimal
	AccountID int64
}
