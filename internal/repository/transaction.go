package repository

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"banking-core/internal/model"
)

type TransactionRepository struct {
	db     *sql.DB
	logger *logrus.Logger
}

func NewTransactionRepository(db *sql.DB, logger *logrus.Logger) *TransactionRepository {
	return &TransactionRepository{db: db, logger: logger}
}

const transactionViewQuery = `
	SELECT t.id, fc.card_number, tc.card_number, t.amount, t.currency, t.description, t.created_at
	FROM transactions t
	JOIN cards fc ON fc.id = t.from_card_id
	JOIN cards tc ON tc.id = t.to_card_id
`

// ExecuteTransfer debits fromAccountID, credits toAccountID and appends the
// ledger row as a single unit. The debit is conditional on the stored
// balance, so two concurrent transfers can never overdraw the account: the
// second one finds too little money once the first commits and fails with
// model.ErrInsufficientFunds. Rows are touched in ascending id order.
func (r *TransactionRepository) ExecuteTransfer(
	ctx context.Context,
	t *model.Transaction,
	fromAccountID, toAccountID uuid.UUID,
) error {
	// The balance columns round each side on its own; a sub-cent amount
	// would debit and credit different values.
	if err := model.CheckMoneyScale(t.Amount); err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	debit := func() error { return r.debitTx(ctx, tx, fromAccountID, t.Amount) }
	credit := func() error { return r.creditTx(ctx, tx, toAccountID, t.Amount) }

	steps := []func() error{debit, credit}
	if bytes.Compare(toAccountID[:], fromAccountID[:]) < 0 {
		steps = []func() error{credit, debit}
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO transactions (id, from_card_id, to_card_id, amount, currency, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, t.ID, t.FromCardID, t.ToCardID, t.Amount, t.Currency, t.Description).Scan(&t.CreatedAt)
	if err != nil {
		return translate("failed to create transaction", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transfer: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"transaction_id": t.ID,
		"from_account":   fromAccountID,
		"to_account":     toAccountID,
		"amount":         t.Amount.String(),
		"currency":       t.Currency,
	}).Debug("Transfer committed")
	return nil
}

func (r *TransactionRepository) debitTx(ctx context.Context, tx *sql.Tx, accountID uuid.UUID, amount decimal.Decimal) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET balance = balance - $1,
		    updated_at = NOW()
		WHERE id = $2 AND balance >= $1
	`, amount, accountID)
	if err != nil {
		return translate("failed to debit account", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("debit %s: %w", accountID, model.ErrInsufficientFunds)
	}
	return nil
}

func (r *TransactionRepository) creditTx(ctx context.Context, tx *sql.Tx, accountID uuid.UUID, amount decimal.Decimal) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET balance = balance + $1,
		    updated_at = NOW()
		WHERE id = $2
	`, amount, accountID)
	if err != nil {
		return translate("failed to credit account", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("credit %s: %w", accountID, model.ErrNotFound)
	}
	return nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.TransactionView, error) {
	view, err := scanTransactionView(r.db.QueryRowContext(ctx, transactionViewQuery+` WHERE t.id = $1`, id))
	if err != nil {
		return nil, translate("failed to get transaction", err)
	}
	return view, nil
}

func (r *TransactionRepository) List(ctx context.Context) ([]model.TransactionView, error) {
	return r.list(ctx, transactionViewQuery+` ORDER BY t.created_at DESC`)
}

// ListByUser returns transfers where either side is a card of the user.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.TransactionView, error) {
	return r.list(ctx, transactionViewQuery+`
		WHERE fc.account_id IN (SELECT id FROM accounts WHERE user_id = $1)
		   OR tc.account_id IN (SELECT id FROM accounts WHERE user_id = $1)
		ORDER BY t.created_at DESC`, userID)
}

func (r *TransactionRepository) ListByCardID(ctx context.Context, cardID uuid.UUID) ([]model.TransactionView, error) {
	return r.list(ctx, transactionViewQuery+`
		WHERE t.from_card_id = $1 OR t.to_card_id = $1
		ORDER BY t.created_at DESC`, cardID)
}

func (r *TransactionRepository) ListByCardNumber(ctx context.Context, number string) ([]model.TransactionView, error) {
	return r.list(ctx, transactionViewQuery+`
		WHERE fc.card_number = $1 OR tc.card_number = $1
		ORDER BY t.created_at DESC`, number)
}

func (r *TransactionRepository) list(ctx context.Context, query string, args ...any) ([]model.TransactionView, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.WithError(err).Error("Transaction query failed")
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	views := make([]model.TransactionView, 0)
	for rows.Next() {
		v, err := scanTransactionView(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		views = append(views, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	r.logger.WithField("count", len(views)).Debug("Transactions fetched")
	return views, nil
}

func scanTransactionView(row rowScanner) (*model.TransactionView, error) {
	var (
		v    model.TransactionView
		desc sql.NullString
	)
	if err := row.Scan(&v.ID, &v.FromCardNumber, &v.ToCardNumber, &v.Amount, &v.Currency, &desc, &v.CreatedAt); err != nil {
		return nil, err
	}
	if desc.Valid {
		v.Description = &desc.String
	}
	return &v, nil
}
