// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/ledgerly/internal/model"
)

// QueryStatus tells an empty read result apart from a failed one.
type QueryStatus int

const (
	// QueryOK means rows were found.
	QueryOK QueryStatus = iota
	// QueryEmpty means the query ran and legitimately matched nothing.
	QueryEmpty
	// QueryUnavailable means the query could not run; Rows is empty by policy.
	QueryUnavailable
)

func (s QueryStatus) String() string {
	switch s {
	case QueryOK:
		return "ok"
	case QueryEmpty:
		return "empty"
	case QueryUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// QueryResult is returned by read paths that never fail. Err is only set
// when Status is QueryUnavailable.
type QueryResult[T any] struct {
	Err    error
	Rows   []T
	Status QueryStatus
}

// Found builds a result from rows that were read successfully.
func Found[T any](rows []T) QueryResult[T] {
	if len(rows) == 0 {
		return QueryResult[T]{Rows: []T{}, Status: QueryEmpty}
	}
	return QueryResult[T]{Rows: rows, Status: QueryOK}
}

// Unavailable builds the degraded result for a read that could not run.
func Unavailable[T any](err error) QueryResult[T] {
	return QueryResult[T]{Rows: []T{}, Status: QueryUnavailable, Err: err}
}

// Degraded reports whether the rows are empty because the query failed.
func (r QueryResult[T]) Degraded() bool {
	return r.Status == QueryUnavailable
}

// TransactionStore persists transaction records.
type TransactionStore interface {
	AddTransaction(ctx context.Context, txn *model.Transaction) (int64, error)
	GetAllTransactions(ctx context.Context) QueryResult[model.Transaction]
	GetTransactionByID(ctx context.Context, id int64) (*model.Transaction, error)
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
	DeleteTransaction(ctx context.Context, id int64) error
	QueryTransactionsByDateRange(ctx context.Context, startKey, endKey string) QueryResult[model.Transaction]
	QueryTransactionsByDate(ctx context.Context, key string) QueryResult[model.Transaction]
	GetTransactionsByAccount(ctx context.Context, accountID int64) QueryResult[model.Transaction]
	CountTransactions(ctx context.Context) (int, error)
}

// AccountStore persists accounts.
type AccountStore interface {
	AddAccount(ctx context.Context, account *model.Account) (int64, error)
	GetAllAccounts(ctx context.Context) QueryResult[model.Account]
	GetAccountByID(ctx context.Context, id int64) (*model.Account, error)
	UpdateAccount(ctx context.Context, account *model.Account) error
	DeleteAccount(ctx context.Context, id int64) error
}

// CategoryStore persists categories.
type CategoryStore interface {
	AddCategory(ctx context.Context, category *model.Category) (int64, error)
	GetAllCategories(ctx context.Context) QueryResult[model.Category]
	GetCategoryByID(ctx context.Context, id int64) (*model.Category, error)
	UpdateCategory(ctx context.Context, category *model.Category) error
	DeleteCategory(ctx context.Context, id int64) error
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	TransactionStore
	AccountStore
	CategoryStore

	// ClearAll empties every collection and reseeds default categories
	// as a single unit of work.
	ClearAll(ctx context.Context) error

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit() error
	Rollback() error
	// Include all Storage methods for use within transaction
	Storage
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
