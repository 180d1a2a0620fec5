package interfaces

import (
	"context"

	"github.com/mkrzemien/BudgetManager/internal/finance/domain"
)

type MockAccountService struct {
	CreateErr     error
	SetPrimaryErr error
	DeleteErr     error
	Accounts      []domain.Account
	LastCreated   *domain.Account
	PrimaryID     string
	DeletedID     string
}

func (m *MockAccountService) CreateAccount(_ context.Context, account *domain.Account) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.LastCreated = account
	return nil
}

func (m *MockAccountService) GetAccount(_ context.Context, _, accountID string) (*domain.Account, error) {
	for _, account := range m.Accounts {
		if account.ID == accountID {
			return &account, nil
		}
	}
	return nil, nil
}

func (m *MockAccountService) GetUserAccounts(_ context.Context, _ string) ([]domain.Account, error) {
	return m.Accounts, nil
}

func (m *MockAccountService) SetPrimaryAccount(_ context.Context, _, accountID string) error {
	if m.SetPrimaryErr != nil {
		return m.SetPrimaryErr
	}
	m.PrimaryID = accountID
	return nil
}

func (m *MockAccountService) DeleteAccount(_ context.Context, _, accountID string) (*domain.Account, error) {
	if m.DeleteErr != nil {
		return nil, m.DeleteErr
	}
	m.DeletedID = accountID
	return &domain.Account{ID: accountID}, nil
}
