package interfaces

import (
	"context"

	"github.com/mkrzemien/BudgetManager/internal/finance/application"
	"github.com/mkrzemien/BudgetManager/internal/finance/domain"
)

type MockTransactionService struct {
	CreateErr    error
	UpdateErr    error
	DeleteErr    error
	ListErr      error
	Page         *domain.TransactionPage
	FormData     *application.FormData
	LastCreated  *domain.Transaction
	LastUpdate   application.TransactionUpdate
	LastFilter   domain.TransactionFilter
	DeletedID    string
}

func (m *MockTransactionService) CreateTransaction(_ context.Context, transaction *domain.Transaction) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.LastCreated = transaction
	return nil
}

func (m *MockTransactionService) UpdateTransaction(_ context.Context, _, transactionID string, update application.TransactionUpdate) (*domain.Transaction, error) {
	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}
	m.LastUpdate = update
	return &domain.Transaction{ID: transactionID}, nil
}

func (m *MockTransactionService) DeleteTransaction(_ context.Context, _, transactionID string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.DeletedID = transactionID
	return nil
}

func (m *MockTransactionService) GetUserTransactions(_ context.Context, _ string, filter domain.TransactionFilter) (*domain.TransactionPage, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.LastFilter = filter
	if m.Page != nil {
		return m.Page, nil
	}
	return &domain.TransactionPage{Items: []domain.Transaction{}}, nil
}

func (m *MockTransactionService) GetFormData(_ context.Context, _ string) (*application.FormData, error) {
	if m.FormData != nil {
		return m.FormData, nil
	}
	return &application.FormData{Accounts: []domain.Account{}, Categories: []domain.Category{}}, nil
}
