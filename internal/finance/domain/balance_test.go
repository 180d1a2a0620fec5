package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCreateDelta_SignFollowsType(t *testing.T) {
	income := Transaction{AccountID: "acc-1", Type: TypeIncome, Amount: dec("100")}
	expense := Transaction{AccountID: "acc-1", Type: TypeExpense, Amount: dec("100")}

	assert.True(t, CreateDelta(income).Delta.Equal(dec("100")))
	assert.True(t, CreateDelta(expense).Delta.Equal(dec("-100")))
}

func TestDeleteDelta_IsInverseOfCreate(t *testing.T) {
	transaction := Transaction{AccountID: "acc-1", Type: TypeExpense, Amount: dec("42.50")}

	create := CreateDelta(transaction)
	remove := DeleteDelta(transaction)
	assert.True(t, create.Delta.Add(remove.Delta).IsZero())
}

func TestUpdateDeltas_SameAccountFoldsIntoOneChange(t *testing.T) {
	old := Transaction{AccountID: "acc-1", Type: TypeIncome, Amount: dec("100")}
	updated := Transaction{AccountID: "acc-1", Type: TypeExpense, Amount: dec("200")}

	changes := UpdateDeltas(old, updated)
	assert.Len(t, changes, 1)
	assert.Equal(t, "acc-1", changes[0].AccountID)
	// reverse the +100 income, then apply the -200 expense
	assert.True(t, changes[0].Delta.Equal(dec("-300")))
}

func TestUpdateDeltas_NonMonetaryChangeNetsToZero(t *testing.T) {
	old := Transaction{AccountID: "acc-1", Type: TypeIncome, Amount: dec("100"), Description: "before"}
	updated := old
	updated.Description = "after"

	changes := UpdateDeltas(old, updated)
	assert.Len(t, changes, 1)
	assert.True(t, changes[0].Delta.IsZero())
}

func TestUpdateDeltas_CrossAccountMoveTouchesBothAccounts(t *testing.T) {
	old := Transaction{AccountID: "acc-1", Type: TypeIncome, Amount: dec("100")}
	updated := Transaction{AccountID: "acc-2", Type: TypeExpense, Amount: dec("50")}

	changes := UpdateDeltas(old, updated)
	assert.Len(t, changes, 2)
	assert.Equal(t, "acc-1", changes[0].AccountID)
	assert.True(t, changes[0].Delta.Equal(dec("-100")))
	assert.Equal(t, "acc-2", changes[1].AccountID)
	assert.True(t, changes[1].Delta.Equal(dec("-50")))
}

func TestTransactionFilter_Normalize(t *testing.T) {
	var filter TransactionFilter
	filter.Normalize()
	assert.Equal(t, 1, filter.Page)
	assert.Equal(t, DefaultPageSize, filter.PageSize)

	filter = TransactionFilter{Page: -3, PageSize: 500}
	filter.Normalize()
	assert.Equal(t, 1, filter.Page)
	assert.Equal(t, MaxPageSize, filter.PageSize)

	filter = TransactionFilter{Page: 2, PageSize: -1}
	filter.Normalize()
	assert.Equal(t, 2, filter.Page)
	assert.Equal(t, 1, filter.PageSize)
}

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		AccountID:  "acc-1",
		CategoryID: 1,
		Type:       TypeIncome,
		Amount:     dec("10.00"),
		Date:       time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC),
	}
	assert.NoError(t, valid.Validate())

	zeroAmount := valid
	zeroAmount.Amount = decimal.Zero
	assert.Error(t, zeroAmount.Validate())

	negativeAmount := valid
	negativeAmount.Amount = dec("-5")
	assert.Error(t, negativeAmount.Validate())

	badType := valid
	badType.Type = "transfer"
	assert.Error(t, badType.Validate())

	noAccount := valid
	noAccount.AccountID = ""
	assert.Error(t, noAccount.Validate())

	noDate := valid
	noDate.Date = time.Time{}
	assert.Error(t, noDate.Validate())
}
