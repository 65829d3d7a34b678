package model

import (
	"fmt"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// AccountType affects how a balance is presented, never how it is computed.
type AccountType string

const (
	// AccountTypeCash is a regular asset account.
	AccountTypeCash AccountType = "cash"
	// AccountTypeLoan tracks money owed.
	AccountTypeLoan AccountType = "loan"
	// AccountTypeVirtual groups funds without a real-world counterpart.
	AccountTypeVirtual AccountType = "virtual"
)

// Valid reports whether a is a known account type.
func (a AccountType) Valid() bool {
	return a == AccountTypeCash || a == AccountTypeLoan || a == AccountTypeVirtual
}

// Account is a named balance-bearing entity. Balance is the single source of
// truth for current funds and is only changed by the ledger engine.
type Account struct {
	CreatedAt         time.Time
	Balance           decimal.Decimal
	Name              string
	Type              AccountType
	Unit              string // ISO 4217 currency code
	Precision         int
	ID                int64
	IncludeInNetWorth bool
}

// FormatBalance renders the balance in the account's currency with its
// display precision.
func (a *Account) FormatBalance() string {
	return FormatAmount(a.Balance, a.Unit, a.Precision)
}

// DisplayBalance is the balance as a user reads it. Loan accounts show what
// is owed as a positive figure.
func (a *Account) DisplayBalance() decimal.Decimal {
	if a.Type == AccountTypeLoan {
		return a.Balance.Neg()
	}
	return a.Balance
}

// FormatAmount formats amount for the given ISO currency code rounded to
// precision decimals. Unknown currency codes fall back to "<amount> <code>".
func FormatAmount(amount decimal.Decimal, unit string, precision int) string {
	if precision < 0 {
		precision = 0
	}

	cur := money.GetCurrency(unit)
	if cur == nil {
		if unit == "" {
			return amount.StringFixed(int32(precision))
		}
		return fmt.Sprintf("%s %s", amount.StringFixed(int32(precision)), unit)
	}

	f := money.NewFormatter(precision, cur.Decimal, cur.Thousand, cur.Grapheme, cur.Template)
	return f.Format(amount.Shift(int32(precision)).Round(0).IntPart())
}
