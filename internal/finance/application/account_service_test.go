package application

import (
	"context"
	"testing"

	"github.com/mkrzemien/BudgetManager/internal/finance/domain"
	financeErrors "github.com/mkrzemien/BudgetManager/internal/finance/errors"
	"github.com/mkrzemien/BudgetManager/internal/finance/infrastructure"
	"github.com/stretchr/testify/assert"
)

func newAccountFixture() (*infrastructure.MockStore, *AccountService) {
	store := infrastructure.NewMockStore()
	return store, NewAccountService(&infrastructure.MockAccountRepository{Store: store})
}

func TestCreateAccount_StartsWithZeroBalance(t *testing.T) {
	store, service := newAccountFixture()

	account := &domain.Account{
		UserID:   testUserID,
		Name:     "Savings",
		Type:     domain.AccountSavings,
		Currency: "PLN",
		Balance:  dec("9999"), // ignored: only the transaction engine moves balances
	}
	err := service.CreateAccount(context.Background(), account)
	assert.NoError(t, err)
	assert.NotEmpty(t, account.ID)
	assert.True(t, store.AccountBalance(account.ID).IsZero())
}

func TestCreateAccount_RejectsInvalidInput(t *testing.T) {
	_, service := newAccountFixture()

	err := service.CreateAccount(context.Background(), &domain.Account{
		UserID: testUserID, Name: "", Type: domain.AccountCash, Currency: "PLN",
	})
	assert.True(t, financeErrors.IsValidationError(err))

	err = service.CreateAccount(context.Background(), &domain.Account{
		UserID: testUserID, Name: "Wallet", Type: "brokerage", Currency: "PLN",
	})
	assert.True(t, financeErrors.IsValidationError(err))
}

func TestCreateAccount_DuplicateAccountNumberRejected(t *testing.T) {
	_, service := newAccountFixture()

	first := &domain.Account{
		UserID: testUserID, Name: "Main", Type: domain.AccountChecking,
		Currency: "PLN", AccountNumber: "PL61109010140000071219812874",
	}
	assert.NoError(t, service.CreateAccount(context.Background(), first))

	second := &domain.Account{
		UserID: testUserID, Name: "Copy", Type: domain.AccountChecking,
		Currency: "PLN", AccountNumber: "PL61109010140000071219812874",
	}
	err := service.CreateAccount(context.Background(), second)
	assert.True(t, financeErrors.IsValidationError(err))
}

func TestSetPrimaryAccount_ExactlyOnePrimary(t *testing.T) {
	store, service := newAccountFixture()
	store.PutAccount(domain.Account{ID: "acc-1", UserID: testUserID, Name: "A", Type: domain.AccountChecking, Currency: "PLN", IsPrimary: true})
	store.PutAccount(domain.Account{ID: "acc-2", UserID: testUserID, Name: "B", Type: domain.AccountSavings, Currency: "PLN"})

	err := service.SetPrimaryAccount(context.Background(), testUserID, "acc-2")
	assert.NoError(t, err)

	accounts, err := service.GetUserAccounts(context.Background(), testUserID)
	assert.NoError(t, err)
	primaries := 0
	for _, account := range accounts {
		if account.IsPrimary {
			primaries++
			assert.Equal(t, "acc-2", account.ID)
		}
	}
	assert.Equal(t, 1, primaries)
}

func TestSetPrimaryAccount_UnknownAccount(t *testing.T) {
	_, service := newAccountFixture()
	err := service.SetPrimaryAccount(context.Background(), testUserID, "acc-missing")
	assert.True(t, financeErrors.IsNotFoundError(err))
}

func TestDeleteAccount_BlockedWhileTransactionsExist(t *testing.T) {
	store, service := newAccountFixture()
	store.PutAccount(domain.Account{ID: "acc-1", UserID: testUserID, Name: "A", Type: domain.AccountChecking, Currency: "PLN"})
	store.PutTransaction(domain.Transaction{ID: "txn-1", UserID: testUserID, AccountID: "acc-1", CategoryID: 1, Type: domain.TypeExpense, Amount: dec("10")})

	_, err := service.DeleteAccount(context.Background(), testUserID, "acc-1")
	assert.True(t, financeErrors.IsValidationError(err))

	accounts, err := service.GetUserAccounts(context.Background(), testUserID)
	assert.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestDeleteAccount_ForeignAccountHidden(t *testing.T) {
	store, service := newAccountFixture()
	store.PutAccount(domain.Account{ID: "acc-1", UserID: "other-user", Name: "A", Type: domain.AccountChecking, Currency: "PLN"})

	_, err := service.DeleteAccount(context.Background(), testUserID, "acc-1")
	assert.True(t, financeErrors.IsNotFoundError(err))
}

func TestMaskedNumber(t *testing.T) {
	account := domain.Account{AccountNumber: "PL61109010140000071219812874"}
	masked := account.MaskedNumber()
	assert.Equal(t, "2874", masked[len(masked)-4:])
	assert.NotContains(t, masked[:len(masked)-4], "1")
}
