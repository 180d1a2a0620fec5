package domain

import (
	"context"
	"strings"
	"time"

	"github.com/mkrzemien/BudgetManager/internal/finance/errors"
	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountChecking AccountType = "checking"
	AccountCash     AccountType = "cash"
	AccountSavings  AccountType = "savings"
)

func IsValidAccountType(accountType string) bool {
	switch AccountType(accountType) {
	case AccountChecking, AccountCash, AccountSavings:
		return true
	}
	return false
}

// AccountRepository is the durable account store. Balance is never written
// through this interface; every balance mutation goes through the
// TransactionRepository's atomic operations.
type AccountRepository interface {
	FindByID(ctx context.Context, accountID string) (*Account, error)
	FindByUser(ctx context.Context, userID string) ([]Account, error)
	FindAll(ctx context.Context) ([]Account, error)
	Save(ctx context.Context, account Account) error
	SetPrimary(ctx context.Context, userID, accountID string) error
	Delete(ctx context.Context, accountID string) (*Account, error)
}

type Account struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Name          string          `json:"name"`
	Type          AccountType     `json:"type"`
	Currency      string          `json:"currency"`
	AccountNumber string          `json:"account_number,omitempty"`
	Balance       decimal.Decimal `json:"balance"`
	IsPrimary     bool            `json:"is_primary"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (a *Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return errors.NewValidationError("Account name is required")
	}
	if !IsValidAccountType(string(a.Type)) {
		return errors.NewValidationError("Type must be 'checking', 'cash' or 'savings'")
	}
	if len(a.Currency) != 3 {
		return errors.NewValidationError("Currency must be a 3-letter code")
	}
	return nil
}

// MaskedNumber hides all but the last four digits of the account number.
func (a *Account) MaskedNumber() string {
	if len(a.AccountNumber) <= 4 {
		return a.AccountNumber
	}
	return strings.Repeat("*", len(a.AccountNumber)-4) + a.AccountNumber[len(a.AccountNumber)-4:]
}
