package domain

import (
	"context"
	"time"

	"github.com/mkrzemien/BudgetManager/internal/finance/errors"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

func IsValidTransactionType(transactionType string) bool {
	return TransactionType(transactionType) == TypeIncome || TransactionType(transactionType) == TypeExpense
}

const (
	DefaultPageSize = 25
	MaxPageSize     = 100
)

// TransactionRepository is the durable transaction store. The *WithBalance
// operations apply the row mutation and the account balance mutation as one
// atomic unit: either both writes commit or neither does. All balance deltas
// are derived inside that unit from locked re-reads of the rows involved, so
// a concurrent mutation of the same transaction can never reverse a stale
// amount.
type TransactionRepository interface {
	FindByID(ctx context.Context, transactionID string) (*Transaction, error)
	List(ctx context.Context, userID string, filter TransactionFilter) (*TransactionPage, error)
	InsertWithBalance(ctx context.Context, transaction Transaction) error
	UpdateWithBalance(ctx context.Context, transaction Transaction) error
	DeleteWithBalance(ctx context.Context, transactionID string) error
	SumByAccount(ctx context.Context) (map[string]decimal.Decimal, error)
}

type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	AccountID   string          `json:"account_id"`
	CategoryID  int             `json:"category_id"`
	Type        TransactionType `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (t *Transaction) Validate() error {
	if t.AccountID == "" {
		return errors.NewValidationError("Account ID must be provided")
	}
	if t.CategoryID <= 0 {
		return errors.NewValidationError("Category ID must be provided")
	}
	if !IsValidTransactionType(string(t.Type)) {
		return errors.NewValidationError("Type must be 'income' or 'expense'")
	}
	if !t.Amount.IsPositive() {
		return errors.NewValidationError("Amount must be greater than zero")
	}
	if t.Date.IsZero() {
		return errors.NewValidationError("Date must be provided")
	}
	if len(t.Description) > 200 {
		return errors.NewValidationError("Description must be of length less than 200")
	}
	return nil
}

// TransactionFilter narrows and pages a listing. Date bounds are inclusive.
type TransactionFilter struct {
	Page     int
	PageSize int
	DateFrom *time.Time
	DateTo   *time.Time
	Type     TransactionType
}

// Normalize clamps paging to a 1-indexed page and a page size within [1, 100],
// defaulting to 25 when unset.
func (f *TransactionFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize == 0 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize < 1 {
		f.PageSize = 1
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
}

type TransactionPage struct {
	Items      []Transaction `json:"items"`
	TotalCount int           `json:"total_count"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
}
