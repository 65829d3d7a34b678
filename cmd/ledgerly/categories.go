package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/ledgerly/internal/cli"
	"github.com/Veraticus/ledgerly/internal/common"
	"github.com/Veraticus/ledgerly/internal/model"
	"github.com/Veraticus/ledgerly/internal/service"
	"github.com/spf13/cobra"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category"},
		Short:   "Manage income and expense categories",
		Long: `Categories label transactions for reports. They never affect balances,
and deleting one leaves the transactions that use its name untouched.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(deleteCategoryCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	var categoryType string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			result := store.GetAllCategories(ctx)
			if result.Degraded() {
				return fmt.Errorf("failed to load categories: %w", result.Err)
			}

			var current model.CategoryType
			for _, cat := range result.Rows {
				if categoryType != "" && string(cat.Type) != categoryType {
					continue
				}
				if cat.Type != current {
					current = cat.Type
					writeln(out, cli.BoldStyle.Render(strings.ToUpper(string(current))))
				}
				icon := cat.Icon
				if icon == "" {
					icon = " "
				}
				writef(out, "  %s %-20s %s\n", icon, cat.Name, cli.SubtleStyle.Render(fmt.Sprintf("#%d", cat.ID)))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&categoryType, "type", "t", "", "Only show income or expense categories")

	return cmd
}

func addCategoryCmd() *cobra.Command {
	var (
		categoryType string
		icon         string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			cat := &model.Category{
				Name: strings.TrimSpace(args[0]),
				Type: model.CategoryType(categoryType),
				Icon: icon,
			}
			id, err := store.AddCategory(ctx, cat)
			if err != nil {
				return mutationError("add category", err)
			}

			writeln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Added %s category %q (id %d)", cat.Type, cat.Name, id)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&categoryType, "type", "t", string(model.CategoryTypeExpense), "Category type (income, expense)")
	cmd.Flags().StringVar(&icon, "icon", "", "Icon shown next to the category")

	return cmd
}

func deleteCategoryCmd() *cobra.Command {
	var categoryType string

	cmd := &cobra.Command{
		Use:   "delete <category>",
		Short: "Delete a category by id or name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			cat, err := resolveCategory(ctx, store, args[0], model.CategoryType(categoryType))
			if err != nil {
				return err
			}
			if err := store.DeleteCategory(ctx, cat.ID); err != nil {
				return mutationError("delete category", err)
			}

			writeln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted %s category %q", cat.Type, cat.Name)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&categoryType, "type", "t", "", "Disambiguate names used by both types")

	return cmd
}

func resolveCategory(ctx context.Context, store service.Storage, ref string, categoryType model.CategoryType) (*model.Category, error) {
	result := store.GetAllCategories(ctx)
	if result.Degraded() {
		return nil, fmt.Errorf("failed to load categories: %w", result.Err)
	}

	id, idErr := strconv.ParseInt(ref, 10, 64)
	var matches []model.Category
	for _, cat := range result.Rows {
		if idErr == nil && cat.ID == id {
			return &cat, nil
		}
		if strings.EqualFold(cat.Name, ref) && (categoryType == "" || cat.Type == categoryType) {
			matches = append(matches, cat)
		}
	}

	switch len(matches) {
	case 0:
		return nil, common.NewUserError(fmt.Sprintf("category %q not found", ref), common.ErrNotFound)
	case 1:
		return &matches[0], nil
	default:
		return nil, common.NewUserError(fmt.Sprintf("category %q exists as both income and expense; pass --type", ref), nil)
	}
}
