package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/ledgerly/internal/common"
	"github.com/Veraticus/ledgerly/internal/datekey"
	"github.com/Veraticus/ledgerly/internal/model"
	"github.com/Veraticus/ledgerly/internal/service"
)

// collections implements the per-collection CRUD method set on top of
// whatever connection conn hands out: the database itself or an open
// transaction.
type collections struct {
	conn func() (queryable, error)
}

const transactionColumns = `id, type, account_id, peer_account_id, to_account_id,
	amount, category, description, date, external_id, created_at, updated_at`

// AddTransaction inserts txn, writes the assigned id back and returns it.
func (c collections) AddTransaction(ctx context.Context, txn *model.Transaction) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateTransaction(txn); err != nil {
		return 0, err
	}
	q, err := c.conn()
	if err != nil {
		return 0, err
	}

	now := time.Now()
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = now
	}
	if txn.UpdatedAt.IsZero() {
		txn.UpdatedAt = txn.CreatedAt
	}

	result, err := q.ExecContext(ctx, `
		INSERT INTO transactions (
			type, account_id, peer_account_id, to_account_id,
			amount, category, description, date, external_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(txn.Type), txn.AccountID, nullableID(txn.PeerAccountID), nullableID(txn.ToAccountID),
		txn.Amount, txn.Category, txn.Description, txn.Date, nullableString(txn.ExternalID),
		txn.CreatedAt, txn.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert transaction: %w", translateError(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get transaction ID: %w", err)
	}
	txn.ID = id
	return id, nil
}

// GetAllTransactions returns every transaction. It never fails; see
// service.QueryResult for how failures are reported.
func (c collections) GetAllTransactions(ctx context.Context) service.QueryResult[model.Transaction] {
	return c.queryTransactions(ctx, `SELECT `+transactionColumns+` FROM transactions ORDER BY id`)
}

// GetTransactionByID returns nil without error when id does not exist.
func (c collections) GetTransactionByID(ctx context.Context, id int64) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	q, err := c.conn()
	if err != nil {
		return nil, err
	}

	row := q.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	txn, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction %d: %w", id, err)
	}
	return txn, nil
}

// UpdateTransaction writes the full record, inserting it if the id is new.
func (c collections) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}
	if err := validateID(txn.ID, "transaction id"); err != nil {
		return err
	}
	q, err := c.conn()
	if err != nil {
		return err
	}

	if txn.UpdatedAt.IsZero() {
		txn.UpdatedAt = time.Now()
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = txn.UpdatedAt
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO transactions (
			id, type, account_id, peer_account_id, to_account_id,
			amount, category, description, date, external_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type,
			account_id = excluded.account_id,
			peer_account_id = excluded.peer_account_id,
			to_account_id = excluded.to_account_id,
			amount = excluded.amount,
			category = excluded.category,
			description = excluded.description,
			date = excluded.date,
			external_id = excluded.external_id,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`,
		txn.ID, string(txn.Type), txn.AccountID, nullableID(txn.PeerAccountID), nullableID(txn.ToAccountID),
		txn.Amount, txn.Category, txn.Description, txn.Date, nullableString(txn.ExternalID),
		txn.CreatedAt, txn.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction %d: %w", txn.ID, translateError(err))
	}
	return nil
}

// DeleteTransaction removes a transaction. Deleting a missing id succeeds.
func (c collections) DeleteTransaction(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	q, err := c.conn()
	if err != nil {
		return err
	}

	if _, err := q.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete transaction %d: %w", id, translateError(err))
	}
	return nil
}

// QueryTransactionsByDateRange scans the date index for keys in
// [startKey, endKey]. Bounds are normalized first; bounds that are not dates
// match nothing.
func (c collections) QueryTransactionsByDateRange(ctx context.Context, startKey, endKey string) service.QueryResult[model.Transaction] {
	start, ok := datekey.ParseKey(startKey)
	if !ok {
		return service.Found[model.Transaction](nil)
	}
	end, ok := datekey.ParseKey(endKey)
	if !ok {
		return service.Found[model.Transaction](nil)
	}

	return c.queryTransactions(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions INDEXED BY idx_transactions_date
		WHERE date >= ? AND date <= ?
		ORDER BY date, id`, start, end)
}

// QueryTransactionsByDate is the single-day case of QueryTransactionsByDateRange.
func (c collections) QueryTransactionsByDate(ctx context.Context, key string) service.QueryResult[model.Transaction] {
	return c.QueryTransactionsByDateRange(ctx, key, key)
}

// GetTransactionsByAccount returns transactions where accountID is the
// source or the destination.
func (c collections) GetTransactionsByAccount(ctx context.Context, accountID int64) service.QueryResult[model.Transaction] {
	return c.queryTransactions(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE account_id = ?
		   OR (type = 'transfer' AND COALESCE(NULLIF(peer_account_id, 0), to_account_id) = ?)
		ORDER BY date, id`, accountID, accountID)
}

// CountTransactions returns the number of stored transactions.
func (c collections) CountTransactions(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	q, err := c.conn()
	if err != nil {
		return 0, err
	}

	var count int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

func (c collections) queryTransactions(ctx context.Context, query string, args ...any) service.QueryResult[model.Transaction] {
	if err := validateContext(ctx); err != nil {
		return service.Unavailable[model.Transaction](err)
	}
	q, err := c.conn()
	if err != nil {
		return service.Unavailable[model.Transaction](err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Warn("transaction query failed, returning empty result", "error", err)
		return service.Unavailable[model.Transaction](fmt.Errorf("%w: %w", common.ErrIndexQueryFailure, err))
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return service.Unavailable[model.Transaction](fmt.Errorf("failed to scan transaction: %w", err))
		}
		transactions = append(transactions, *txn)
	}
	if err := rows.Err(); err != nil {
		return service.Unavailable[model.Transaction](fmt.Errorf("error iterating transactions: %w", err))
	}

	slog.Debug("retrieved transactions", "count", len(transactions))
	return service.Found(transactions)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (*model.Transaction, error) {
	var (
		txn         model.Transaction
		typ         string
		peer, to    sql.NullInt64
		category    sql.NullString
		description sql.NullString
		externalID  sql.NullString
	)
	if err := row.Scan(
		&txn.ID, &typ, &txn.AccountID, &peer, &to,
		&txn.Amount, &category, &description, &txn.Date, &externalID,
		&txn.CreatedAt, &txn.UpdatedAt,
	); err != nil {
		return nil, err
	}
	txn.Type = model.TransactionType(typ)
	txn.PeerAccountID = peer.Int64
	txn.ToAccountID = to.Int64
	txn.Category = category.String
	txn.Description = description.String
	txn.ExternalID = externalID.String
	return &txn, nil
}

func nullableID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
