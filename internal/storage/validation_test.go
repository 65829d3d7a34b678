package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/Veraticus/ledgerly/internal/model"
	"github.com/shopspring/decimal"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		name    string
		str     string
		wantErr bool
	}{
		{name: "valid string", str: "test"},
		{name: "empty string", str: "", wantErr: true},
		{name: "whitespace only", str: "  \t\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.str, "param")
			if (err != nil) != tt.wantErr {
				t.Errorf("validateString() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrEmptyString) {
				t.Errorf("validateString() error = %v, want ErrEmptyString", err)
			}
		})
	}
}

func TestValidateTransaction(t *testing.T) {
	valid := func() *model.Transaction {
		return &model.Transaction{
			Type:      model.TypeExpense,
			AccountID: 1,
			Amount:    decimal.NewFromInt(10),
			Date:      "2024-01-15",
		}
	}

	tests := []struct {
		modify  func(*model.Transaction)
		wantErr error
		name    string
		nilTxn  bool
	}{
		{name: "valid", modify: func(*model.Transaction) {}},
		{name: "nil", nilTxn: true, wantErr: ErrNilParameter},
		{name: "unknown type", modify: func(txn *model.Transaction) { txn.Type = "gift" }, wantErr: ErrInvalidTransaction},
		{name: "missing account", modify: func(txn *model.Transaction) { txn.AccountID = 0 }, wantErr: ErrInvalidTransaction},
		{name: "unnormalized date", modify: func(txn *model.Transaction) { txn.Date = "2024/01/15" }, wantErr: ErrInvalidTransaction},
		{name: "empty date", modify: func(txn *model.Transaction) { txn.Date = "" }, wantErr: ErrInvalidTransaction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var txn *model.Transaction
			if !tt.nilTxn {
				txn = valid()
				tt.modify(txn)
			}
			err := validateTransaction(txn)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("validateTransaction() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("validateTransaction() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateAccount(t *testing.T) {
	tests := []struct {
		account *model.Account
		name    string
		wantErr bool
	}{
		{name: "valid", account: &model.Account{Name: "Wallet", Type: model.AccountTypeCash, Precision: 2}},
		{name: "nil", wantErr: true},
		{name: "blank name", account: &model.Account{Name: " ", Type: model.AccountTypeCash}, wantErr: true},
		{name: "unknown type", account: &model.Account{Name: "Wallet", Type: "crypto"}, wantErr: true},
		{name: "negative precision", account: &model.Account{Name: "Wallet", Type: model.AccountTypeCash, Precision: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAccount(tt.account)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateAccount() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCategory(t *testing.T) {
	tests := []struct {
		category *model.Category
		name     string
		wantErr  bool
	}{
		{name: "valid", category: &model.Category{Name: "Dining", Type: model.CategoryTypeExpense}},
		{name: "nil", wantErr: true},
		{name: "blank name", category: &model.Category{Type: model.CategoryTypeIncome}, wantErr: true},
		{name: "unknown type", category: &model.Category{Name: "Dining", Type: "transfer"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCategory(tt.category)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateCategory() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
