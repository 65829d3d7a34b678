package storage

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/Veraticus/ledgerly/internal/model"

	"gopkg.in/yaml.v3"
)

//go:embed default_categories.yaml
var defaultCategoriesYAML []byte

type seedCategory struct {
	Name string `yaml:"name"`
	Icon string `yaml:"icon"`
}

type seedFile struct {
	Income  []seedCategory `yaml:"income"`
	Expense []seedCategory `yaml:"expense"`
}

// DefaultCategories returns the categories a fresh or cleared store starts with.
func DefaultCategories() ([]model.Category, error) {
	var file seedFile
	if err := yaml.Unmarshal(defaultCategoriesYAML, &file); err != nil {
		return nil, fmt.Errorf("failed to parse default categories: %w", err)
	}

	categories := make([]model.Category, 0, len(file.Income)+len(file.Expense))
	for _, c := range file.Income {
		categories = append(categories, model.Category{Name: c.Name, Type: model.CategoryTypeIncome, Icon: c.Icon})
	}
	for _, c := range file.Expense {
		categories = append(categories, model.Category{Name: c.Name, Type: model.CategoryTypeExpense, Icon: c.Icon})
	}
	return categories, nil
}

// seedDefaultCategories inserts the defaults when the categories table is empty.
func seedDefaultCategories(ctx context.Context, q queryable) error {
	var count int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count categories: %w", err)
	}
	if count > 0 {
		return nil
	}

	defaults, err := DefaultCategories()
	if err != nil {
		return err
	}
	for i := range defaults {
		if _, err := insertCategory(ctx, q, &defaults[i]); err != nil {
			return err
		}
	}

	slog.Info("seeded default categories", "count", len(defaults))
	return nil
}

// clearAll empties every collection, resets id sequences and reseeds the
// default categories using q.
func clearAll(ctx context.Context, q queryable) error {
	queries := []string{
		`DELETE FROM transactions`,
		`DELETE FROM accounts`,
		`DELETE FROM categories`,
		`DELETE FROM sqlite_sequence WHERE name IN ('transactions', 'accounts', 'categories')`,
	}
	for _, query := range queries {
		if _, err := q.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to clear data: %w", translateError(err))
		}
	}
	return seedDefaultCategories(ctx, q)
}
