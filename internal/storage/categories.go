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

// AddCategory inserts category, writes the assigned id back and returns it.
func (c collections) AddCategory(ctx context.Context, category *model.Category) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateCategory(category); err != nil {
		return 0, err
	}
	q, err := c.conn()
	if err != nil {
		return 0, err
	}
	return insertCategory(ctx, q, category)
}

// GetAllCategories returns all categories, income first, in insertion order.
func (c collections) GetAllCategories(ctx context.Context) service.QueryResult[model.Category] {
	if err := validateContext(ctx); err != nil {
		return service.Unavailable[model.Category](err)
	}
	q, err := c.conn()
	if err != nil {
		return service.Unavailable[model.Category](err)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT id, name, type, icon, created_at
		FROM categories
		ORDER BY type DESC, id`)
	if err != nil {
		slog.Warn("category query failed, returning empty result", "error", err)
		return service.Unavailable[model.Category](fmt.Errorf("failed to query categories: %w", err))
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return service.Unavailable[model.Category](fmt.Errorf("failed to scan category: %w", err))
		}
		categories = append(categories, *cat)
	}
	if err := rows.Err(); err != nil {
		return service.Unavailable[model.Category](fmt.Errorf("error iterating categories: %w", err))
	}

	slog.Debug("retrieved categories", "count", len(categories))
	return service.Found(categories)
}

// GetCategoryByID returns nil without error when id does not exist.
func (c collections) GetCategoryByID(ctx context.Context, id int64) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	q, err := c.conn()
	if err != nil {
		return nil, err
	}

	cat, err := scanCategory(q.QueryRowContext(ctx, `
		SELECT id, name, type, icon, created_at
		FROM categories
		WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category %d: %w", id, err)
	}
	return cat, nil
}

// UpdateCategory writes the full record, inserting it if the id is new.
func (c collections) UpdateCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategory(category); err != nil {
		return err
	}
	if err := validateID(category.ID, "category id"); err != nil {
		return err
	}
	q, err := c.conn()
	if err != nil {
		return err
	}

	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now()
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO categories (id, name, type, icon, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			icon = excluded.icon,
			created_at = excluded.created_at`,
		category.ID, category.Name, string(category.Type), category.Icon, category.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update category %d: %w", category.ID, translateError(err))
	}
	return nil
}

// DeleteCategory removes a category. Transactions keep their free-form label.
func (c collections) DeleteCategory(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	q, err := c.conn()
	if err != nil {
		return err
	}

	if _, err := q.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete category %d: %w", id, translateError(err))
	}
	return nil
}

func insertCategory(ctx context.Context, q queryable, category *model.Category) (int64, error) {
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now()
	}

	result, err := q.ExecContext(ctx, `
		INSERT INTO categories (name, type, icon, created_at)
		VALUES (?, ?, ?, ?)`,
		category.Name, string(category.Type), category.Icon, category.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create category %q: %w", category.Name, translateError(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get category ID: %w", err)
	}
	category.ID = id
	return id, nil
}

func scanCategory(row scanner) (*model.Category, error) {
	var (
		cat  model.Category
		typ  string
		icon sql.NullString
	)
	if err := row.Scan(&cat.ID, &cat.Name, &typ, &icon, &cat.CreatedAt); err != nil {
		return nil, err
	}
	cat.Type = model.CategoryType(typ)
	cat.Icon = icon.String
	return &cat, nil
}
