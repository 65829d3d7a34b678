package model

import "time"

// CategoryType indicates whether a category labels income or expenses.
type CategoryType string

const (
	// CategoryTypeIncome represents categories for income transactions.
	CategoryTypeIncome CategoryType = "income"
	// CategoryTypeExpense represents categories for expense transactions.
	CategoryTypeExpense CategoryType = "expense"
)

// Valid reports whether c is a known category type.
func (c CategoryType) Valid() bool {
	return c == CategoryTypeIncome || c == CategoryTypeExpense
}

// Category is a reporting label. It has no effect on balances.
type Category struct {
	CreatedAt time.Time
	Name      string
	Type      CategoryType
	Icon      string
	ID        int64
}
