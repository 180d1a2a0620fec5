package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mkrzemien/BudgetManager/internal/finance/domain"
	financeErrors "github.com/mkrzemien/BudgetManager/internal/finance/errors"
	"github.com/shopspring/decimal"
)

type CategoryServiceInterface interface {
	DoesCategoryExist(ctx context.Context, categoryID int, userID string) (bool, error)
	GetAllCategories(ctx context.Context, userID string) ([]domain.Category, error)
}

// TransactionService orchestrates the balance-consistency engine: it validates
// the referenced rows, computes the balance deltas, and hands the whole unit
// to the repository's atomic operations. It is the only write path to an
// account's balance.
type TransactionService struct {
	repo            domain.TransactionRepository
	accounts        domain.AccountRepository
	categoryService CategoryServiceInterface
}

func NewTransactionService(repo domain.TransactionRepository, accounts domain.AccountRepository, categoryService CategoryServiceInterface) *TransactionService {
	return &TransactionService{repo: repo, accounts: accounts, categoryService: categoryService}
}

// TransactionUpdate carries the mutable fields of an update; nil leaves the
// field unchanged. Amount, type and account may all change at once and all
// three feed the delta computation.
type TransactionUpdate struct {
	AccountID   *string
	CategoryID  *int
	Type        *domain.TransactionType
	Amount      *decimal.Decimal
	Date        *time.Time
	Description *string
}

// FormData aggregates what the transaction input form needs.
type FormData struct {
	Accounts   []domain.Account  `json:"accounts"`
	Categories []domain.Category `json:"categories"`
}

func (s *TransactionService) CreateTransaction(ctx context.Context, transaction *domain.Transaction) error {
	transaction.ID = uuid.NewString()
	if err := transaction.Validate(); err != nil {
		return err
	}
	if _, err := s.ownedAccount(ctx, transaction.UserID, transaction.AccountID); err != nil {
		return err
	}
	exists, err := s.categoryService.DoesCategoryExist(ctx, transaction.CategoryID, transaction.UserID)
	if err != nil {
		return err
	}
	if !exists {
		return financeErrors.NewNotFoundError("category")
	}
	return s.repo.InsertWithBalance(ctx, *transaction)
}

func (s *TransactionService) UpdateTransaction(ctx context.Context, userID, transactionID string, update TransactionUpdate) (*domain.Transaction, error) {
	existing, err := s.ownedTransaction(ctx, userID, transactionID)
	if err != nil {
		return nil, err
	}

	updated := *existing
	if update.AccountID != nil {
		updated.AccountID = *update.AccountID
	}
	if update.CategoryID != nil {
		updated.CategoryID = *update.CategoryID
	}
	if update.Type != nil {
		updated.Type = *update.Type
	}
	if update.Amount != nil {
		updated.Amount = *update.Amount
	}
	if update.Date != nil {
		updated.Date = *update.Date
	}
	if update.Description != nil {
		updated.Description = *update.Description
	}
	if err := updated.Validate(); err != nil {
		return nil, err
	}

	if updated.AccountID != existing.AccountID {
		if _, err := s.ownedAccount(ctx, userID, updated.AccountID); err != nil {
			return nil, err
		}
	}
	if updated.CategoryID != existing.CategoryID {
		exists, err := s.categoryService.DoesCategoryExist(ctx, updated.CategoryID, userID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, financeErrors.NewNotFoundError("category")
		}
	}

	// existing only seeded the patch and the ownership check; the repository
	// derives the reversal from the row it locks.
	if err := s.repo.UpdateWithBalance(ctx, updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *TransactionService) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	if _, err := s.ownedTransaction(ctx, userID, transactionID); err != nil {
		return err
	}
	return s.repo.DeleteWithBalance(ctx, transactionID)
}

func (s *TransactionService) GetUserTransactions(ctx context.Context, userID string, filter domain.TransactionFilter) (*domain.TransactionPage, error) {
	filter.Normalize()
	page, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	if page.Items == nil {
		page.Items = []domain.Transaction{}
	}
	return page, nil
}

func (s *TransactionService) GetFormData(ctx context.Context, userID string) (*FormData, error) {
	accounts, err := s.accounts.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	categories, err := s.categoryService.GetAllCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []domain.Account{}
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	return &FormData{Accounts: accounts, Categories: categories}, nil
}

// ownedAccount resolves an account and hides other users' accounts behind the
// same not-found answer.
func (s *TransactionService) ownedAccount(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.UserID != userID {
		return nil, financeErrors.NewNotFoundError("account")
	}
	return account, nil
}

func (s *TransactionService) ownedTransaction(ctx context.Context, userID, transactionID string) (*domain.Transaction, error) {
	transaction, err := s.repo.FindByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if transaction.UserID != userID {
		return nil, financeErrors.NewNotFoundError("transaction")
	}
	return transaction, nil
}
