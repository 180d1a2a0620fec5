package infrastructure

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mkrzemien/BudgetManager/internal/finance/domain"
	financeErrors "github.com/mkrzemien/BudgetManager/internal/finance/errors"
	"github.com/shopspring/decimal"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, user_id, name, type, currency, account_number, balance::text, is_primary, created_at, updated_at`

func scanAccount(row interface{ Scan(...interface{}) error }) (*domain.Account, error) {
	var account domain.Account
	var accountNumber sql.NullString
	var balance string
	if err := row.Scan(
		&account.ID, &account.UserID, &account.Name, &account.Type, &account.Currency,
		&accountNumber, &balance, &account.IsPrimary, &account.CreatedAt, &account.UpdatedAt,
	); err != nil {
		return nil, err
	}
	account.AccountNumber = accountNumber.String
	parsed, err := decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("invalid stored balance %q: %w", balance, err)
	}
	account.Balance = parsed
	return &account, nil
}

func (r *AccountRepository) FindByID(ctx context.Context, accountID string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, accountID)
	account, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, financeErrors.NewNotFoundError("account")
	}
	if err != nil {
		return nil, financeErrors.NewStorageError("account lookup", err)
	}
	return account, nil
}

func (r *AccountRepository) FindByUser(ctx context.Context, userID string) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, financeErrors.NewStorageError("account listing", err)
	}
	defer rows.Close()
	return collectAccounts(rows)
}

func (r *AccountRepository) FindAll(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY id`)
	if err != nil {
		return nil, financeErrors.NewStorageError("account listing", err)
	}
	defer rows.Close()
	return collectAccounts(rows)
}

func collectAccounts(rows *sql.Rows) ([]domain.Account, error) {
	var accounts []domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, financeErrors.NewStorageError("account listing", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, financeErrors.NewStorageError("account listing", err)
	}
	return accounts, nil
}

func (r *AccountRepository) Save(ctx context.Context, account domain.Account) error {
	var accountNumber interface{}
	if account.AccountNumber != "" {
		accountNumber = account.AccountNumber
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, user_id, name, type, currency, account_number, balance, is_primary)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		account.ID, account.UserID, account.Name, account.Type, account.Currency,
		accountNumber, account.Balance.StringFixed(2), account.IsPrimary,
	)
	if isPgError(err, pgUniqueViolation) {
		return financeErrors.ErrAccountNumberInUse
	}
	if err != nil {
		return financeErrors.NewStorageError("account create", err)
	}
	return nil
}

// SetPrimary clears the user's current primary flag and sets the new one in a
// single database transaction, so no other reader ever sees zero or two
// primary accounts.
func (r *AccountRepository) SetPrimary(ctx context.Context, userID, accountID string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return financeErrors.NewStorageError("primary account change", err)
	}
	defer func() {
		if p := recover(); p != nil {
			safeRollback(tx)
			panic(p)
		} else if err != nil {
			safeRollback(tx)
		} else if commitErr := tx.Commit(); commitErr != nil {
			err = financeErrors.NewStorageError("primary account change", commitErr)
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`UPDATE accounts SET is_primary = FALSE, updated_at = now() WHERE user_id = $1 AND is_primary`, userID); err != nil {
		return financeErrors.NewStorageError("primary account change", err)
	}
	result, err := tx.ExecContext(ctx,
		`UPDATE accounts SET is_primary = TRUE, updated_at = now() WHERE id = $1 AND user_id = $2`, accountID, userID)
	if err != nil {
		return financeErrors.NewStorageError("primary account change", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return financeErrors.NewStorageError("primary account change", err)
	}
	if affected == 0 {
		return financeErrors.NewNotFoundError("account")
	}
	return nil
}

// Delete is blocked while transactions still reference the account; the
// foreign key restriction surfaces as a validation error.
func (r *AccountRepository) Delete(ctx context.Context, accountID string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`DELETE FROM accounts WHERE id = $1 RETURNING `+accountColumns, accountID)
	account, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, financeErrors.NewNotFoundError("account")
	}
	if isPgError(err, pgForeignKeyViolation) {
		return nil, financeErrors.ErrAccountHasTransactions
	}
	if err != nil {
		return nil, financeErrors.NewStorageError("account delete", err)
	}
	return account, nil
}

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
