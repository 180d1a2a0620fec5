package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mkrzemien/BudgetManager/internal/finance/domain"
	financeErrors "github.com/mkrzemien/BudgetManager/internal/finance/errors"
	"github.com/mkrzemien/BudgetManager/internal/finance/infrastructure"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

const testUserID = "3f1aa2bb-9c41-4a81-94a6-2c7e0a44a111"

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func newFixture() (*infrastructure.MockStore, *TransactionService) {
	store := infrastructure.NewMockStore()
	accounts := &infrastructure.MockAccountRepository{Store: store}
	transactions := &infrastructure.MockTransactionRepository{Store: store}
	service := NewTransactionService(transactions, accounts, &MockCategoryService{})
	return store, service
}

func seedAccount(store *infrastructure.MockStore, id, balance string) {
	store.PutAccount(domain.Account{
		ID:       id,
		UserID:   testUserID,
		Name:     "Checking",
		Type:     domain.AccountChecking,
		Currency: "PLN",
		Balance:  dec(balance),
	})
}

func newTransaction(accountID string, transactionType domain.TransactionType, amount string) *domain.Transaction {
	return &domain.Transaction{
		UserID:     testUserID,
		AccountID:  accountID,
		CategoryID: 1,
		Type:       transactionType,
		Amount:     dec(amount),
		Date:       date(2024, time.May, 10),
	}
}

func TestCreateTransaction_IncomeIncreasesBalance(t *testing.T) {
	store, service := newFixture()
	seedAccount(store, "acc-1", "1000")

	err := service.CreateTransaction(context.Background(), newTransaction("acc-1", domain.TypeIncome, "100"))
	assert.NoError(t, err)
	assert.True(t, store.AccountBalance("acc-1").Equal(dec("1100")))
	assert.Equal(t, 1, store.TransactionCount())
}

func TestCreateTransaction_ExpenseDecreasesBalance(t *testing.T) {
	store, service := newFixture()
	seedAccount(store, "acc-1", "1000")

	err := service.CreateTransaction(context.Background(), newTransaction("acc-1", domain.TypeExpense, "100"))
	assert.NoError(t, err)
	assert.True(t, store.AccountBalance("acc-1").Equal(dec("900")))
}

func TestCreateTransaction_UnknownAccountLeavesNoRowBehind(t *testing.T) {
	store, service := newFixture()
	seedAccount(store, "acc-1", "1000")

	err := service.CreateTransaction(context.Background(), newTransaction("acc-missing", domain.TypeIncome, "100"))
	assert.True(t, financeErrors.IsNotFoundError(err))
	assert.Equal(t, 0, store.TransactionCount())
	assert.True(t, store.AccountBalance("acc-1").Equal(dec("1000")))
}

func TestCreateTransaction_ForeignAccountIsHidden(t *testing.T) {
	store, service := newFixture()
	store.PutAccount(domain.Account{
		ID: "acc-other", UserID: "other-user", Name: "Foreign",
		Type: domain.AccountChecking, Currency: "PLN", Balance: dec("500"),
	})

	err := service.CreateTransaction(context.Background(), newTransaction("acc-other", domain.TypeIncome, "100"))
	assert.True(t, financeErrors.IsNotFoundError(err))
	assert.Equal(t, 0, store.TransactionCount())
}

func TestCreateTransaction_UnknownCategoryRejected(t *testing.T) {
	store := infrastructure.NewMockStore()
	accounts := &infrastructure.MockAccountRepository{Store: store}
	transactions := &infrastructure.MockTransactionRepository{Store: store}
	service := NewTransactionService(transactions, accounts, &MockCategoryService{Existing: map[int]bool{1: true}})
	seedAccount(store, "acc-1", "1000")

	transaction := newTransaction("acc-1", domain.TypeIncome, "100")
	transaction.CategoryID = 99
	err := service.CreateTransaction(context.Background(), transaction)
	assert.True(t, financeErrors.IsNotFoundError(err))
	assert.Equal(t, 0, store.TransactionCount())
}

func TestCreateTransaction_NonPositiveAmountRejected(t *testing.T) {
	store, service := newFixture()
	seedAccount(store, "acc-1", "1000")

	transaction := newTransaction("acc-1", domain.TypeExpense, "100")
	transaction.Amount = dec("0")
	err := service.CreateTransaction(context.Background(), transaction)
	assert.True(t, financeErrors.IsValidationError(err))
	assert.Equal(t, 0, store.TransactionCount())
}

func TestCreateTransaction_FailedCommitLeavesNoPartialState(t *testing.T) {
	store, service := newFixture()
	seedAccount(store, "acc-1", "1000")
	store.FailCommit = errors.New("connection reset by peer")

	err := service.CreateTransaction(context.Background(), newTransaction("acc-1", domain.TypeIncome, "100"))
	assert.True(t, financeErrors.IsStorageError(err))
	assert.True(t, store.AccountBalance("acc-1").Equal(dec("1000")))
	assert.Equal(t, 0, store.TransactionCount())
}

func TestUpdateTransaction_ReconcilesOldAndNewEffect(t *testing.T) {
	store, service := newFixture()
	// balance already includes the +100 income
	seedAccount(store, "acc-1", "1000")
	existing := newTransaction("acc-1", domain.TypeIncome, "100")
	existing.ID = "txn-1"
	store.PutTransaction(*existing)

	expense := domain.TypeExpense
	amount := dec("200")
	updated, err := service.UpdateTransaction(context.Background(), testUserID, "txn-1", TransactionUpdate{
		Type:   &expense,
		Amount: &amount,
	})
	assert.NoError(t, err)
	assert.True(t, store.AccountBalance("acc-1").Equal(dec("700")))
	assert.Equal(t, domain.TypeExpense, updated.Type)
	assert.True(t, updated.Amount.Equal(dec("200")))
}

func TestUpdateTransaction_DescriptionOnlyKeepsBalance(t *testing.T) {
	store, service := newFixture()
	seedAccount(store, "acc-1", "1000")
	existing := newTransaction("acc-1", domain.TypeIncome, "100")
	existing.ID = "txn-1"
	store.PutTransaction(*existing)

	description := "groceries"
	_, err := service.UpdateTransaction(context.Background(), testUserID, "txn-1", TransactionUpdate{
		Description: &description,
	})
	assert.NoError(t, err)
	assert.True(t, store.AccountBalance("acc-1").Equal(dec("1000")))
}

func TestUpdateTransaction_MoveBetweenAccounts(t *testing.T) {
	store, service := newFixture()
	seedAccount(store, "acc-1", "1000") // includes the +100 income
	seedAccount(store, "acc-2", "500")
	existing := newTransaction("acc-1", domain.TypeIncome, "100")
	existing.ID = "txn-1"
	store.PutTransaction(*existing)

	targetAccount := "acc-2"
	expense := domain.TypeExpense
	amount := dec("50")
	_, err := service.UpdateTransaction(context.Background(), testUserID, "txn-1", TransactionUpdate{
		AccountID: &targetAccount,
		Type:      &expense,
		Amount:    &amount,
	})
	assert.NoError(t, err)
	assert.True(t, store.AccountBalance("acc-1").Equal(dec("900")), "old account loses the reversed income")
	assert.True(t, store.AccountBalance("acc-2").Equal(dec("450")), "new account takes the expense")
}

func TestUpdateTransaction_MoveToUnknownAccountFails(t *testing.T) {
	store, service := newFixture()
	seedAccount(store, "acc-1", "1000")
	existing := newTransaction("acc-1", domain.TypeIncome, "100")
	existing.ID = "txn-1"
	store.PutTransaction(*existing)

	targetAccount := "acc-missing"
	_, err := service.UpdateTransaction(context.Background(), testUserID, "txn-1", TransactionUpdate{
		AccountID: &targetAccount,
	})
	assert.True(t, financeErrors.IsNotFoundError(err))
	assert.True(t, store.AccountBalance("acc-1").Equal(dec("1000")))
}

func TestUpdateTransaction_UnknownTransaction(t *testing.T) {
	_, service := newFixture()
	_, err := service.UpdateTransaction(context.Background(), testUserID, "txn-missing", TransactionUpdate{})
	assert.True(t, financeErrors.IsNotFoundError(err))
}

func TestUpdateTransaction_InvalidPatchRejected(t *testing.T) {
	store, service := newFixture()
	seedAccount(store, "acc-1", "1000")
	existing := newTransaction("acc-1", domain.TypeIncome, "100")
	existing.ID = "txn-1"
	store.PutTransaction(*existing)

	negative := dec("-5")
	_, err := service.UpdateTransaction(context.Background(), testUserID, "txn-1", TransactionUpdate{
		Amount: &negative,
	})
	assert.True(t, financeErrors.IsValidationError(err))
	assert.True(t, store.AccountBalance("acc-1").Equal(dec("1000")))
}

func TestDeleteTransaction_ReversesExpense(t *testing.T) {
	store, service := newFixture()
	// balance already reflects the -200 expense
	seedAccount(store, "acc-1", "800")
	existing := newTransaction("acc-1", domain.TypeExpense, "200")
	existing.ID = "txn-1"
	store.PutTransaction(*existing)

	err := service.DeleteTransaction(context.Background(), testUserID, "txn-1")
	assert.NoError(t, err)
	assert.True(t, store.AccountBalance("acc-1").Equal(dec("1000")))
	assert.Equal(t, 0, store.TransactionCount())
}

func TestDeleteTransaction_ForeignTransactionHidden(t *testing.T) {
	store, service := newFixture()
	seedAccount(store, "acc-1", "800")
	existing := newTransaction("acc-1", domain.TypeExpense, "200")
	existing.ID = "txn-1"
	existing.UserID = "other-user"
	store.PutTransaction(*existing)

	err := service.DeleteTransaction(context.Background(), testUserID, "txn-1")
	assert.True(t, financeErrors.IsNotFoundError(err))
	assert.Equal(t, 1, store.TransactionCount())
}

func TestConcurrentExpenses_NoLostUpdate(t *testing.T) {
	store, service := newFixture()
	seedAccount(store, "acc-1", "1000")

	var wg sync.WaitGroup
	amounts := []string{"100", "250"}
	for _, amount := range amounts {
		wg.Add(1)
		go func(amount string) {
			defer wg.Done()
			err := service.CreateTransaction(context.Background(), newTransaction("acc-1", domain.TypeExpense, amount))
			assert.NoError(t, err)
		}(amount)
	}
	wg.Wait()

	assert.True(t, store.AccountBalance("acc-1").Equal(dec("650")),
		"expected 1000 - 100 - 250, got %s", store.AccountBalance("acc-1"))
}

func TestConcurrentUpdatesOfSameTransaction_NoStaleReversal(t *testing.T) {
	store, service := newFixture()
	seedAccount(store, "acc-1", "1000") // includes the +100 income
	existing := newTransaction("acc-1", domain.TypeIncome, "100")
	existing.ID = "txn-1"
	store.PutTransaction(*existing)

	var wg sync.WaitGroup
	for _, amount := range []string{"200", "300"} {
		wg.Add(1)
		go func(amount string) {
			defer wg.Done()
			value := dec(amount)
			_, err := service.UpdateTransaction(context.Background(), testUserID, "txn-1", TransactionUpdate{Amount: &value})
			assert.NoError(t, err)
		}(amount)
	}
	wg.Wait()

	page, err := service.GetUserTransactions(context.Background(), testUserID, domain.TransactionFilter{})
	assert.NoError(t, err)
	assert.Len(t, page.Items, 1)
	// whichever update won, the balance must match the committed row exactly
	want := dec("900").Add(page.Items[0].Amount)
	assert.True(t, store.AccountBalance("acc-1").Equal(want),
		"row amount %s but balance %s, want %s",
		page.Items[0].Amount, store.AccountBalance("acc-1"), want)
}

func TestConcurrentUpdateAndDelete_NoStaleReversal(t *testing.T) {
	store, service := newFixture()
	seedAccount(store, "acc-1", "1000") // includes the +100 income
	existing := newTransaction("acc-1", domain.TypeIncome, "100")
	existing.ID = "txn-1"
	store.PutTransaction(*existing)

	amount := dec("250")
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := service.UpdateTransaction(context.Background(), testUserID, "txn-1", TransactionUpdate{Amount: &amount})
		if err != nil {
			// the delete got there first
			assert.True(t, financeErrors.IsNotFoundError(err))
		}
	}()
	go func() {
		defer wg.Done()
		assert.NoError(t, service.DeleteTransaction(context.Background(), testUserID, "txn-1"))
	}()
	wg.Wait()

	// the delete reverses whatever amount was committed at that point
	assert.Equal(t, 0, store.TransactionCount())
	assert.True(t, store.AccountBalance("acc-1").Equal(dec("900")),
		"expected 900 after the income is gone, got %s", store.AccountBalance("acc-1"))
}

func TestBalanceMatchesTransactionHistoryAfterMixedOperations(t *testing.T) {
	store, service := newFixture()
	seedAccount(store, "acc-1", "0")

	income := newTransaction("acc-1", domain.TypeIncome, "500")
	assert.NoError(t, service.CreateTransaction(context.Background(), income))
	expense := newTransaction("acc-1", domain.TypeExpense, "120.55")
	assert.NoError(t, service.CreateTransaction(context.Background(), expense))

	amount := dec("80.45")
	_, err := service.UpdateTransaction(context.Background(), testUserID, expense.ID, TransactionUpdate{Amount: &amount})
	assert.NoError(t, err)
	assert.NoError(t, service.DeleteTransaction(context.Background(), testUserID, income.ID))

	// only the 80.45 expense remains
	assert.True(t, store.AccountBalance("acc-1").Equal(dec("-80.45")))
}

func TestGetUserTransactions_OrderingAndPagination(t *testing.T) {
	store, service := newFixture()
	seedAccount(store, "acc-1", "0")
	store.PutTransaction(domain.Transaction{
		ID: "txn-a", UserID: testUserID, AccountID: "acc-1", CategoryID: 1,
		Type: domain.TypeIncome, Amount: dec("10"), Date: date(2024, time.May, 1),
	})
	store.PutTransaction(domain.Transaction{
		ID: "txn-b", UserID: testUserID, AccountID: "acc-1", CategoryID: 1,
		Type: domain.TypeExpense, Amount: dec("20"), Date: date(2024, time.May, 3),
	})
	store.PutTransaction(domain.Transaction{
		ID: "txn-c", UserID: testUserID, AccountID: "acc-1", CategoryID: 1,
		Type: domain.TypeExpense, Amount: dec("30"), Date: date(2024, time.May, 3),
	})

	page, err := service.GetUserTransactions(context.Background(), testUserID, domain.TransactionFilter{})
	assert.NoError(t, err)
	assert.Equal(t, 3, page.TotalCount)
	assert.Equal(t, []string{"txn-c", "txn-b", "txn-a"}, transactionIDs(page.Items))

	// identical filters, no intervening writes: identical ordered results
	again, err := service.GetUserTransactions(context.Background(), testUserID, domain.TransactionFilter{})
	assert.NoError(t, err)
	assert.Equal(t, transactionIDs(page.Items), transactionIDs(again.Items))

	small, err := service.GetUserTransactions(context.Background(), testUserID, domain.TransactionFilter{Page: 2, PageSize: 2})
	assert.NoError(t, err)
	assert.Equal(t, []string{"txn-a"}, transactionIDs(small.Items))
	assert.Equal(t, 3, small.TotalCount)

	clamped, err := service.GetUserTransactions(context.Background(), testUserID, domain.TransactionFilter{PageSize: 500})
	assert.NoError(t, err)
	assert.Equal(t, domain.MaxPageSize, clamped.PageSize)
}

func TestGetUserTransactions_DateRangeInclusiveAndTypeFilter(t *testing.T) {
	store, service := newFixture()
	seedAccount(store, "acc-1", "0")
	store.PutTransaction(domain.Transaction{
		ID: "txn-a", UserID: testUserID, AccountID: "acc-1", CategoryID: 1,
		Type: domain.TypeIncome, Amount: dec("10"), Date: date(2024, time.May, 1),
	})
	store.PutTransaction(domain.Transaction{
		ID: "txn-b", UserID: testUserID, AccountID: "acc-1", CategoryID: 1,
		Type: domain.TypeExpense, Amount: dec("20"), Date: date(2024, time.May, 5),
	})
	store.PutTransaction(domain.Transaction{
		ID: "txn-c", UserID: testUserID, AccountID: "acc-1", CategoryID: 1,
		Type: domain.TypeExpense, Amount: dec("30"), Date: date(2024, time.May, 9),
	})

	from := date(2024, time.May, 1)
	to := date(2024, time.May, 5)
	ranged, err := service.GetUserTransactions(context.Background(), testUserID, domain.TransactionFilter{DateFrom: &from, DateTo: &to})
	assert.NoError(t, err)
	assert.Equal(t, []string{"txn-b", "txn-a"}, transactionIDs(ranged.Items), "both boundary dates included")

	expenses, err := service.GetUserTransactions(context.Background(), testUserID, domain.TransactionFilter{Type: domain.TypeExpense})
	assert.NoError(t, err)
	assert.Equal(t, []string{"txn-c", "txn-b"}, transactionIDs(expenses.Items))
}

func TestGetFormData(t *testing.T) {
	store := infrastructure.NewMockStore()
	accounts := &infrastructure.MockAccountRepository{Store: store}
	transactions := &infrastructure.MockTransactionRepository{Store: store}
	categoryService := &MockCategoryService{Categories: []domain.Category{{ID: 1, Name: "Groceries", Type: domain.TypeExpense}}}
	service := NewTransactionService(transactions, accounts, categoryService)
	seedAccount(store, "acc-1", "0")

	formData, err := service.GetFormData(context.Background(), testUserID)
	assert.NoError(t, err)
	assert.Len(t, formData.Accounts, 1)
	assert.Len(t, formData.Categories, 1)
}

func transactionIDs(items []domain.Transaction) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}
