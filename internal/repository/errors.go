package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"banking-core/internal/model"
)

const (
	constraintUserEmail         = "users_email_key"
	constraintAccountCurrency   = "accounts_user_currency_key"
	constraintAccountBalance    = "accounts_balance_check"
	constraintCardNumber        = "cards_card_number_key"
	constraintTransactionAmount = "transactions_amount_check"
)

// translate maps PostgreSQL failures onto the domain sentinels and leaves
// everything else wrapped with op.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, model.ErrNotFound)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "unique_violation":
			switch pqErr.Constraint {
			case constraintAccountCurrency:
				return fmt.Errorf("%s: %w", op, model.ErrDuplicateCurrency)
			case constraintCardNumber:
				return fmt.Errorf("%s: %w", op, model.ErrDuplicateCardNumber)
			case constraintUserEmail:
				return fmt.Errorf("%s: %w: email already registered", op, model.ErrInvalidInput)
			}
		case "check_violation":
			switch pqErr.Constraint {
			case constraintAccountBalance:
				return fmt.Errorf("%s: %w", op, model.ErrInsufficientFunds)
			case constraintTransactionAmount:
				return fmt.Errorf("%s: %w: amount must be positive", op, model.ErrInvalidInput)
			}
		case "foreign_key_violation":
			return fmt.Errorf("%s: %w: %s", op, model.ErrNotFound, pqErr.Constraint)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// rollback is deferred right after BeginTx; it is a no-op once the
// transaction has been committed.
func rollback(tx *sql.Tx) {
	_ = tx.Rollback()
}
