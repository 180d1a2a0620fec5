package infrastructure

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sort"

	"github.com/mkrzemien/BudgetManager/internal/finance/domain"
	financeErrors "github.com/mkrzemien/BudgetManager/internal/finance/errors"
	"github.com/shopspring/decimal"
)

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `id, user_id, account_id, category_id, type, amount::text, date, description, created_at, updated_at`

func scanTransaction(row interface{ Scan(...interface{}) error }) (*domain.Transaction, error) {
	var transaction domain.Transaction
	var amount string
	if err := row.Scan(
		&transaction.ID, &transaction.UserID, &transaction.AccountID, &transaction.CategoryID,
		&transaction.Type, &amount, &transaction.Date, &transaction.Description,
		&transaction.CreatedAt, &transaction.UpdatedAt,
	); err != nil {
		return nil, err
	}
	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid stored amount %q: %w", amount, err)
	}
	transaction.Amount = parsed
	return &transaction, nil
}

func (r *TransactionRepository) FindByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, transactionID)
	transaction, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, financeErrors.NewNotFoundError("transaction")
	}
	if err != nil {
		return nil, financeErrors.NewStorageError("transaction lookup", err)
	}
	return transaction, nil
}

// List pages the user's transactions, newest date first with id as the stable
// tie-break. Date bounds are inclusive on both ends.
func (r *TransactionRepository) List(ctx context.Context, userID string, filter domain.TransactionFilter) (*domain.TransactionPage, error) {
	where := `WHERE user_id = $1`
	args := []interface{}{userID}

	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		where += fmt.Sprintf(` AND date >= $%d`, len(args))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		where += fmt.Sprintf(` AND date <= $%d`, len(args))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		where += fmt.Sprintf(` AND type = $%d`, len(args))
	}

	var totalCount int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions `+where, args...).Scan(&totalCount); err != nil {
		return nil, financeErrors.NewStorageError("transaction count", err)
	}

	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)
	query := fmt.Sprintf(`SELECT %s FROM transactions %s ORDER BY date DESC, id DESC LIMIT $%d OFFSET $%d`,
		transactionColumns, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, financeErrors.NewStorageError("transaction listing", err)
	}
	defer rows.Close()

	items := []domain.Transaction{}
	for rows.Next() {
		transaction, err := scanTransaction(rows)
		if err != nil {
			return nil, financeErrors.NewStorageError("transaction listing", err)
		}
		items = append(items, *transaction)
	}
	if err := rows.Err(); err != nil {
		return nil, financeErrors.NewStorageError("transaction listing", err)
	}

	return &domain.TransactionPage{
		Items:      items,
		TotalCount: totalCount,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
	}, nil
}

// lockTransaction re-reads a transaction row under a row lock inside the
// caller's database transaction. Reversal deltas are always derived from this
// fresh read, never from a snapshot taken before the atomic unit began.
func lockTransaction(ctx context.Context, tx *sql.Tx, transactionID string) (*domain.Transaction, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, transactionID)
	transaction, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, financeErrors.NewNotFoundError("transaction")
	}
	if err != nil {
		return nil, financeErrors.NewStorageError("transaction lookup", err)
	}
	return transaction, nil
}

// InsertWithBalance writes the transaction row and the account's new balance
// in one database transaction.
func (r *TransactionRepository) InsertWithBalance(ctx context.Context, transaction domain.Transaction) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return financeErrors.NewStorageError("transaction create", err)
	}
	defer func() {
		if p := recover(); p != nil {
			safeRollback(tx)
			panic(p)
		} else if err != nil {
			safeRollback(tx)
		} else if commitErr := tx.Commit(); commitErr != nil {
			err = financeErrors.NewStorageError("transaction create", commitErr)
		}
	}()

	if err = applyBalanceChanges(ctx, tx, domain.CreateDelta(transaction)); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, account_id, category_id, type, amount, date, description)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		transaction.ID, transaction.UserID, transaction.AccountID, transaction.CategoryID,
		transaction.Type, transaction.Amount.StringFixed(2), transaction.Date, transaction.Description,
	)
	if err != nil {
		err = financeErrors.NewStorageError("transaction create", err)
	}
	return err
}

// UpdateWithBalance rewrites the transaction's mutable fields together with
// every affected account balance; a cross-account move touches two accounts.
// The reversal half of the delta comes from a locked re-read of the row, so
// two concurrent updates of the same transaction serialize on its row lock
// and each reverses what the other actually committed.
func (r *TransactionRepository) UpdateWithBalance(ctx context.Context, transaction domain.Transaction) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return financeErrors.NewStorageError("transaction update", err)
	}
	defer func() {
		if p := recover(); p != nil {
			safeRollback(tx)
			panic(p)
		} else if err != nil {
			safeRollback(tx)
		} else if commitErr := tx.Commit(); commitErr != nil {
			err = financeErrors.NewStorageError("transaction update", commitErr)
		}
	}()

	old, err := lockTransaction(ctx, tx, transaction.ID)
	if err != nil {
		return err
	}
	if err = applyBalanceChanges(ctx, tx, domain.UpdateDeltas(*old, transaction)...); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE transactions
		 SET account_id = $1, category_id = $2, type = $3, amount = $4, date = $5, description = $6, updated_at = now()
		 WHERE id = $7`,
		transaction.AccountID, transaction.CategoryID, transaction.Type,
		transaction.Amount.StringFixed(2), transaction.Date, transaction.Description, transaction.ID,
	)
	if err != nil {
		return financeErrors.NewStorageError("transaction update", err)
	}
	return nil
}

// DeleteWithBalance removes the row and applies the reversal delta atomically.
// The reversal is derived from a locked re-read, not from what the caller
// last saw.
func (r *TransactionRepository) DeleteWithBalance(ctx context.Context, transactionID string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return financeErrors.NewStorageError("transaction delete", err)
	}
	defer func() {
		if p := recover(); p != nil {
			safeRollback(tx)
			panic(p)
		} else if err != nil {
			safeRollback(tx)
		} else if commitErr := tx.Commit(); commitErr != nil {
			err = financeErrors.NewStorageError("transaction delete", commitErr)
		}
	}()

	old, err := lockTransaction(ctx, tx, transactionID)
	if err != nil {
		return err
	}
	if err = applyBalanceChanges(ctx, tx, domain.DeleteDelta(*old)); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, transactionID); err != nil {
		return financeErrors.NewStorageError("transaction delete", err)
	}
	return nil
}

// SumByAccount recomputes each account's balance straight from its
// transactions: income positive, expense negative.
func (r *TransactionRepository) SumByAccount(ctx context.Context) (map[string]decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT account_id, SUM(CASE WHEN type = 'income' THEN amount ELSE -amount END)::text
		 FROM transactions GROUP BY account_id`)
	if err != nil {
		return nil, financeErrors.NewStorageError("balance summation", err)
	}
	defer rows.Close()

	sums := make(map[string]decimal.Decimal)
	for rows.Next() {
		var accountID, total string
		if err := rows.Scan(&accountID, &total); err != nil {
			return nil, financeErrors.NewStorageError("balance summation", err)
		}
		parsed, err := decimal.NewFromString(total)
		if err != nil {
			return nil, financeErrors.NewStorageError("balance summation", err)
		}
		sums[accountID] = parsed
	}
	if err := rows.Err(); err != nil {
		return nil, financeErrors.NewStorageError("balance summation", err)
	}
	return sums, nil
}

// applyBalanceChanges re-reads each account under a row lock and writes the
// freshly computed balance, all inside the caller's database transaction.
// Accounts are locked in sorted-ID order so two concurrent cross-account
// moves cannot deadlock.
func applyBalanceChanges(ctx context.Context, tx *sql.Tx, changes ...domain.BalanceChange) error {
	sorted := make([]domain.BalanceChange, len(changes))
	copy(sorted, changes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].AccountID < sorted[j].AccountID })

	for _, change := range sorted {
		var current string
		err := tx.QueryRowContext(ctx,
			`SELECT balance::text FROM accounts WHERE id = $1 FOR UPDATE`, change.AccountID).Scan(&current)
		if err == sql.ErrNoRows {
			return financeErrors.NewNotFoundError("account")
		}
		if err != nil {
			return financeErrors.NewStorageError("balance update", err)
		}
		balance, err := decimal.NewFromString(current)
		if err != nil {
			return financeErrors.NewStorageError("balance update", err)
		}
		newBalance := balance.Add(change.Delta)
		if _, err := tx.ExecContext(ctx,
			`UPDATE accounts SET balance = $1, updated_at = now() WHERE id = $2`,
			newBalance.StringFixed(2), change.AccountID); err != nil {
			return financeErrors.NewStorageError("balance update", err)
		}
	}
	return nil
}

func safeRollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		log.Printf("Error during transaction rollback: %v", err)
	}
}
