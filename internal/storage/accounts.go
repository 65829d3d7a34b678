package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/ledgerly/internal/model"
	"github.com/Veraticus/ledgerly/internal/service"
)

const accountColumns = `id, name, type, unit, precision, balance, include_in_net_worth, created_at`

// AddAccount inserts account, writes the assigned id back and returns it.
func (c collections) AddAccount(ctx context.Context, account *model.Account) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateAccount(account); err != nil {
		return 0, err
	}
	q, err := c.conn()
	if err != nil {
		return 0, err
	}

	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}

	result, err := q.ExecContext(ctx, `
		INSERT INTO accounts (name, type, unit, precision, balance, include_in_net_worth, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		account.Name, string(account.Type), account.Unit, account.Precision,
		account.Balance, account.IncludeInNetWorth, account.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert account: %w", translateError(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get account ID: %w", err)
	}
	account.ID = id

	slog.Info("created account", "name", account.Name, "id", id)
	return id, nil
}

// GetAllAccounts returns every account ordered by id.
func (c collections) GetAllAccounts(ctx context.Context) service.QueryResult[model.Account] {
	if err := validateContext(ctx); err != nil {
		return service.Unavailable[model.Account](err)
	}
	q, err := c.conn()
	if err != nil {
		return service.Unavailable[model.Account](err)
	}

	rows, err := q.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY id`)
	if err != nil {
		slog.Warn("account query failed, returning empty result", "error", err)
		return service.Unavailable[model.Account](fmt.Errorf("failed to query accounts: %w", err))
	}
	defer func() { _ = rows.Close() }()

	var accounts []model.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return service.Unavailable[model.Account](fmt.Errorf("failed to scan account: %w", err))
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return service.Unavailable[model.Account](fmt.Errorf("error iterating accounts: %w", err))
	}

	return service.Found(accounts)
}

// GetAccountByID returns nil without error when id does not exist.
func (c collections) GetAccountByID(ctx context.Context, id int64) (*model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	q, err := c.conn()
	if err != nil {
		return nil, err
	}

	account, err := scanAccount(q.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query account %d: %w", id, err)
	}
	return account, nil
}

// UpdateAccount writes the full record, inserting it if the id is new.
func (c collections) UpdateAccount(ctx context.Context, account *model.Account) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAccount(account); err != nil {
		return err
	}
	if err := validateID(account.ID, "account id"); err != nil {
		return err
	}
	q, err := c.conn()
	if err != nil {
		return err
	}

	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO accounts (id, name, type, unit, precision, balance, include_in_net_worth, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			unit = excluded.unit,
			precision = excluded.precision,
			balance = excluded.balance,
			include_in_net_worth = excluded.include_in_net_worth,
			created_at = excluded.created_at`,
		account.ID, account.Name, string(account.Type), account.Unit, account.Precision,
		account.Balance, account.IncludeInNetWorth, account.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update account %d: %w", account.ID, translateError(err))
	}
	return nil
}

// DeleteAccount removes an account. It does not touch transactions that
// reference it; callers cascade first.
func (c collections) DeleteAccount(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	q, err := c.conn()
	if err != nil {
		return err
	}

	if _, err := q.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete account %d: %w", id, translateError(err))
	}
	return nil
}

func scanAccount(row scanner) (*model.Account, error) {
	var (
		account model.Account
		typ     string
	)
	if err := row.Scan(
		&account.ID, &account.Name, &typ, &account.Unit, &account.Precision,
		&account.Balance, &account.IncludeInNetWorth, &account.CreatedAt,
	); err != nil {
		return nil, err
	}
	account.Type = model.AccountType(typ)
	return &account, nil
}
