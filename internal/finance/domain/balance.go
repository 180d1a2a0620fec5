package domain

import "github.com/shopspring/decimal"

// BalanceChange is the signed effect of a single operation on one account's
// balance. Income counts positive, expense negative; sign never comes from the
// amount itself.
type BalanceChange struct {
	AccountID string
	Delta     decimal.Decimal
}

func signedAmount(t Transaction) decimal.Decimal {
	if t.Type == TypeExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// CreateDelta is the effect of recording a new transaction.
func CreateDelta(t Transaction) BalanceChange {
	return BalanceChange{AccountID: t.AccountID, Delta: signedAmount(t)}
}

// DeleteDelta reverses a recorded transaction's effect on its account.
func DeleteDelta(t Transaction) BalanceChange {
	return BalanceChange{AccountID: t.AccountID, Delta: signedAmount(t).Neg()}
}

// UpdateDeltas reconciles an update in one step: the old transaction's effect
// is reversed on its original account and the updated transaction's effect is
// applied to its target account. When the account is unchanged both deltas
// fold into a single change, so an update that only touches non-monetary
// fields nets out to a zero delta.
func UpdateDeltas(old, updated Transaction) []BalanceChange {
	reversal := DeleteDelta(old)
	apply := CreateDelta(updated)
	if reversal.AccountID == apply.AccountID {
		return []BalanceChange{{AccountID: apply.AccountID, Delta: reversal.Delta.Add(apply.Delta)}}
	}
	return []BalanceChange{reversal, apply}
}
