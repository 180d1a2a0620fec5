package application

import (
	"context"
	"log"

	"github.com/mkrzemien/BudgetManager/internal/finance/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Reconciler audits the balance invariant: for every account the stored
// balance must equal the signed sum of its transactions. It is read-only and
// runs on a schedule; a non-empty result means a write path bypassed the
// transaction engine.
type Reconciler struct {
	accounts     domain.AccountRepository
	transactions domain.TransactionRepository
}

func NewReconciler(accounts domain.AccountRepository, transactions domain.TransactionRepository) *Reconciler {
	return &Reconciler{accounts: accounts, transactions: transactions}
}

type Drift struct {
	AccountID string          `json:"account_id"`
	Stored    decimal.Decimal `json:"stored"`
	Computed  decimal.Decimal `json:"computed"`
}

func (r *Reconciler) Run(ctx context.Context) ([]Drift, error) {
	var accounts []domain.Account
	var sums map[string]decimal.Decimal

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accounts, err = r.accounts.FindAll(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		sums, err = r.transactions.SumByAccount(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	drifts := []Drift{}
	for _, account := range accounts {
		computed := sums[account.ID]
		if !computed.Equal(account.Balance) {
			drifts = append(drifts, Drift{AccountID: account.ID, Stored: account.Balance, Computed: computed})
			log.Printf("balance drift on account %s: stored %s, computed %s",
				account.ID, account.Balance.String(), computed.String())
		}
	}
	log.Printf("balance audit finished: %d accounts checked, %d drifted", len(accounts), len(drifts))
	return drifts, nil
}
