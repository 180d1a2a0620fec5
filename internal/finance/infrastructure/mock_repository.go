package infrastructure

import (
	"context"
	"sort"
	"sync"

	"github.com/mkrzemien/BudgetManager/internal/finance/domain"
	financeErrors "github.com/mkrzemien/BudgetManager/internal/finance/errors"
	"github.com/shopspring/decimal"
)

// MockStore is an in-memory stand-in for the Postgres schema. One mutex is the
// atomic unit: a *WithBalance operation validates everything it needs, then
// either applies all of its writes or none of them. FailCommit injects a fault
// at the commit point so tests can assert nothing leaked out of a failed unit.
type MockStore struct {
	mu           sync.Mutex
	Accounts     map[string]domain.Account
	Transactions map[string]domain.Transaction
	FailCommit   error
}

func NewMockStore() *MockStore {
	return &MockStore{
		Accounts:     make(map[string]domain.Account),
		Transactions: make(map[string]domain.Transaction),
	}
}

func (s *MockStore) PutAccount(account domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Accounts[account.ID] = account
}

func (s *MockStore) PutTransaction(transaction domain.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Transactions[transaction.ID] = transaction
}

func (s *MockStore) AccountBalance(accountID string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Accounts[accountID].Balance
}

func (s *MockStore) TransactionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Transactions)
}

// commitPoint consumes an injected fault, if any.
func (s *MockStore) commitPoint() error {
	err := s.FailCommit
	s.FailCommit = nil
	return err
}

func (s *MockStore) applyChanges(changes ...domain.BalanceChange) error {
	for _, change := range changes {
		if _, ok := s.Accounts[change.AccountID]; !ok {
			return financeErrors.NewNotFoundError("account")
		}
	}
	if err := s.commitPoint(); err != nil {
		return financeErrors.NewStorageError("atomic commit", err)
	}
	for _, change := range changes {
		account := s.Accounts[change.AccountID]
		account.Balance = account.Balance.Add(change.Delta)
		s.Accounts[change.AccountID] = account
	}
	return nil
}

type MockAccountRepository struct {
	Store *MockStore
}

func (m *MockAccountRepository) FindByID(_ context.Context, accountID string) (*domain.Account, error) {
	m.Store.mu.Lock()
	defer m.Store.mu.Unlock()
	account, ok := m.Store.Accounts[accountID]
	if !ok {
		return nil, financeErrors.NewNotFoundError("account")
	}
	return &account, nil
}

func (m *MockAccountRepository) FindByUser(_ context.Context, userID string) ([]domain.Account, error) {
	m.Store.mu.Lock()
	defer m.Store.mu.Unlock()
	var accounts []domain.Account
	for _, account := range m.Store.Accounts {
		if account.UserID == userID {
			accounts = append(accounts, account)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (m *MockAccountRepository) FindAll(_ context.Context) ([]domain.Account, error) {
	m.Store.mu.Lock()
	defer m.Store.mu.Unlock()
	var accounts []domain.Account
	for _, account := range m.Store.Accounts {
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (m *MockAccountRepository) Save(_ context.Context, account domain.Account) error {
	m.Store.mu.Lock()
	defer m.Store.mu.Unlock()
	for _, existing := range m.Store.Accounts {
		if existing.UserID == account.UserID && account.AccountNumber != "" && existing.AccountNumber == account.AccountNumber {
			return financeErrors.ErrAccountNumberInUse
		}
	}
	m.Store.Accounts[account.ID] = account
	return nil
}

func (m *MockAccountRepository) SetPrimary(_ context.Context, userID, accountID string) error {
	m.Store.mu.Lock()
	defer m.Store.mu.Unlock()
	target, ok := m.Store.Accounts[accountID]
	if !ok || target.UserID != userID {
		return financeErrors.NewNotFoundError("account")
	}
	for id, account := range m.Store.Accounts {
		if account.UserID == userID && account.IsPrimary {
			account.IsPrimary = false
			m.Store.Accounts[id] = account
		}
	}
	target.IsPrimary = true
	m.Store.Accounts[accountID] = target
	return nil
}

func (m *MockAccountRepository) Delete(_ context.Context, accountID string) (*domain.Account, error) {
	m.Store.mu.Lock()
	defer m.Store.mu.Unlock()
	account, ok := m.Store.Accounts[accountID]
	if !ok {
		return nil, financeErrors.NewNotFoundError("account")
	}
	for _, transaction := range m.Store.Transactions {
		if transaction.AccountID == accountID {
			return nil, financeErrors.ErrAccountHasTransactions
		}
	}
	delete(m.Store.Accounts, accountID)
	return &account, nil
}

type MockTransactionRepository struct {
	Store *MockStore
}

func (m *MockTransactionRepository) FindByID(_ context.Context, transactionID string) (*domain.Transaction, error) {
	m.Store.mu.Lock()
	defer m.Store.mu.Unlock()
	transaction, ok := m.Store.Transactions[transactionID]
	if !ok {
		return nil, financeErrors.NewNotFoundError("transaction")
	}
	return &transaction, nil
}

func (m *MockTransactionRepository) List(_ context.Context, userID string, filter domain.TransactionFilter) (*domain.TransactionPage, error) {
	m.Store.mu.Lock()
	defer m.Store.mu.Unlock()

	var matched []domain.Transaction
	for _, transaction := range m.Store.Transactions {
		if transaction.UserID != userID {
			continue
		}
		if filter.DateFrom != nil && transaction.Date.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && transaction.Date.After(*filter.DateTo) {
			continue
		}
		if filter.Type != "" && transaction.Type != filter.Type {
			continue
		}
		matched = append(matched, transaction)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Date.Equal(matched[j].Date) {
			return matched[i].Date.After(matched[j].Date)
		}
		return matched[i].ID > matched[j].ID
	})

	start := (filter.Page - 1) * filter.PageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.PageSize
	if end > len(matched) {
		end = len(matched)
	}

	items := make([]domain.Transaction, end-start)
	copy(items, matched[start:end])
	return &domain.TransactionPage{
		Items:      items,
		TotalCount: len(matched),
		Page:       filter.Page,
		PageSize:   filter.PageSize,
	}, nil
}

func (m *MockTransactionRepository) InsertWithBalance(_ context.Context, transaction domain.Transaction) error {
	m.Store.mu.Lock()
	defer m.Store.mu.Unlock()
	if err := m.Store.applyChanges(domain.CreateDelta(transaction)); err != nil {
		return err
	}
	m.Store.Transactions[transaction.ID] = transaction
	return nil
}

// UpdateWithBalance derives the reversal from the row as it currently is in
// the store, mirroring the SQL repository's locked re-read.
func (m *MockTransactionRepository) UpdateWithBalance(_ context.Context, transaction domain.Transaction) error {
	m.Store.mu.Lock()
	defer m.Store.mu.Unlock()
	old, ok := m.Store.Transactions[transaction.ID]
	if !ok {
		return financeErrors.NewNotFoundError("transaction")
	}
	if err := m.Store.applyChanges(domain.UpdateDeltas(old, transaction)...); err != nil {
		return err
	}
	m.Store.Transactions[transaction.ID] = transaction
	return nil
}

func (m *MockTransactionRepository) DeleteWithBalance(_ context.Context, transactionID string) error {
	m.Store.mu.Lock()
	defer m.Store.mu.Unlock()
	old, ok := m.Store.Transactions[transactionID]
	if !ok {
		return financeErrors.NewNotFoundError("transaction")
	}
	if err := m.Store.applyChanges(domain.DeleteDelta(old)); err != nil {
		return err
	}
	delete(m.Store.Transactions, transactionID)
	return nil
}

func (m *MockTransactionRepository) SumByAccount(_ context.Context) (map[string]decimal.Decimal, error) {
	m.Store.mu.Lock()
	defer m.Store.mu.Unlock()
	sums := make(map[string]decimal.Decimal)
	for _, transaction := range m.Store.Transactions {
		delta := transaction.Amount
		if transaction.Type == domain.TypeExpense {
			delta = delta.Neg()
		}
		sums[transaction.AccountID] = sums[transaction.AccountID].Add(delta)
	}
	return sums, nil
}
