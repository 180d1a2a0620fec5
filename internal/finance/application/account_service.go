package application

import (
	"context"

	"github.com/google/uuid"
	"github.com/mkrzemien/BudgetManager/internal/finance/domain"
	financeErrors "github.com/mkrzemien/BudgetManager/internal/finance/errors"
	"github.com/shopspring/decimal"
)

type AccountService struct {
	repo domain.AccountRepository
}

func NewAccountService(repo domain.AccountRepository) *AccountService {
	return &AccountService{repo: repo}
}

// CreateAccount opens an account with a zero balance. The balance field is
// owned by the transaction engine from here on; recording transactions is the
// only way to move it.
func (s *AccountService) CreateAccount(ctx context.Context, account *domain.Account) error {
	account.ID = uuid.NewString()
	account.Balance = decimal.Zero
	if err := account.Validate(); err != nil {
		return err
	}
	return s.repo.Save(ctx, *account)
}

func (s *AccountService) GetAccount(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	account, err := s.repo.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.UserID != userID {
		return nil, financeErrors.NewNotFoundError("account")
	}
	return account, nil
}

func (s *AccountService) GetUserAccounts(ctx context.Context, userID string) ([]domain.Account, error) {
	accounts, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		return []domain.Account{}, nil
	}
	return accounts, nil
}

// SetPrimaryAccount makes the target the user's single primary account. The
// clear-then-set runs as one atomic unit in the repository, so there is never
// a window with zero or two primaries.
func (s *AccountService) SetPrimaryAccount(ctx context.Context, userID, accountID string) error {
	if _, err := s.GetAccount(ctx, userID, accountID); err != nil {
		return err
	}
	return s.repo.SetPrimary(ctx, userID, accountID)
}

func (s *AccountService) DeleteAccount(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	if _, err := s.GetAccount(ctx, userID, accountID); err != nil {
		return nil, err
	}
	return s.repo.Delete(ctx, accountID)
}
