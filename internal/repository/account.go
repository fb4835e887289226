package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"banking-core/internal/model"
)

type AccountRepository struct {
	db     *sql.DB
	logger *logrus.Logger
}

func NewAccountRepository(db *sql.DB, logger *logrus.Logger) *AccountRepository {
	return &AccountRepository{db: db, logger: logger}
}

const accountColumns = `id, user_id, balance, currency, created_at, updated_at`

// CreateLimited inserts the account if the owner has fewer than maxAccounts
// accounts and none in the same currency. The owner's row is locked for the
// whole transaction so concurrent creations for one user serialize; the
// (user_id, currency) unique constraint backs the currency rule.
func (r *AccountRepository) CreateLimited(ctx context.Context, account *model.Account, maxAccounts int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	var locked uuid.UUID
	err = tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, account.UserID).Scan(&locked)
	if err != nil {
		return translate("failed to lock user", err)
	}

	var total, sameCurrency int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE currency = $2)
		FROM accounts
		WHERE user_id = $1
	`, account.UserID, account.Currency).Scan(&total, &sameCurrency)
	if err != nil {
		return fmt.Errorf("failed to count accounts: %w", err)
	}

	if total >= maxAccounts {
		return fmt.Errorf("%w: user already has %d accounts", model.ErrLimitExceeded, total)
	}
	if sameCurrency > 0 {
		return fmt.Errorf("%w: %s", model.ErrDuplicateCurrency, account.Currency)
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO accounts (id, user_id, balance, currency)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, account.ID, account.UserID, account.Balance, account.Currency).Scan(&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return translate("failed to create account", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit account creation: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"account_id": account.ID,
		"user_id":    account.UserID,
		"currency":   account.Currency,
	}).Debug("Account row inserted")
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate("failed to get account", err)
	}
	return account, nil
}

func (r *AccountRepository) GetUserAccounts(ctx context.Context, userID uuid.UUID) ([]model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]model.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return accounts, nil
}

// Deposit increments the balance in place and returns the stored result.
func (r *AccountRepository) Deposit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	if err := model.CheckMoneyScale(amount); err != nil {
		return decimal.Zero, err
	}
	query := `
		UPDATE accounts
		SET balance = balance + $1,
		    updated_at = NOW()
		WHERE id = $2
		RETURNING balance
	`

	var balance decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, amount, id).Scan(&balance); err != nil {
		return decimal.Zero, translate("failed to deposit", err)
	}
	return balance, nil
}

func (r *AccountRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return n, nil
}

func (r *AccountRepository) ExistsInCurrency(ctx context.Context, userID uuid.UUID, currency model.Currency) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM accounts WHERE user_id = $1 AND currency = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, currency).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check account currency: %w", err)
	}
	return exists, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*model.Account, error) {
	var a model.Account
	if err := row.Scan(&a.ID, &a.UserID, &a.Balance, &a.Currency, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
