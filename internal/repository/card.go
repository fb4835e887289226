package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"banking-core/internal/cardnum"
	"banking-core/internal/model"
)

type CardRepository struct {
	db     *sql.DB
	logger *logrus.Logger
}

func NewCardRepository(db *sql.DB, logger *logrus.Logger) *CardRepository {
	return &CardRepository{db: db, logger: logger}
}

const cardColumns = `c.id, c.account_id, c.card_number, c.card_type, c.payment_system,
	c.expiry_date, c.encrypted_cvv, c.hmac, c.created_at, c.updated_at`

// CreateLimited inserts the card if its account holds fewer than maxCards
// cards. The account row is locked for the duration of the transaction.
// A card number collision yields model.ErrDuplicateCardNumber.
func (r *CardRepository) CreateLimited(ctx context.Context, card *model.Card, maxCards int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	var locked uuid.UUID
	err = tx.QueryRowContext(ctx, `SELECT id FROM accounts WHERE id = $1 FOR UPDATE`, card.AccountID).Scan(&locked)
	if err != nil {
		return translate("failed to lock account", err)
	}

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards WHERE account_id = $1`, card.AccountID).Scan(&count); err != nil {
		return fmt.Errorf("failed to count cards: %w", err)
	}
	if count >= maxCards {
		return fmt.Errorf("%w: account already has %d cards", model.ErrLimitExceeded, count)
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO cards (id, account_id, card_number, card_type, payment_system, expiry_date, encrypted_cvv, hmac)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`,
		card.ID,
		card.AccountID,
		card.CardNumber,
		card.CardType,
		card.PaymentSystem,
		card.ExpiryDate,
		card.EncryptedCVV,
		card.HMAC,
	).Scan(&card.CreatedAt, &card.UpdatedAt)
	if err != nil {
		return translate("failed to create card", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit card creation: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"card_id":    card.ID,
		"account_id": card.AccountID,
		"card":       cardnum.Mask(card.CardNumber),
	}).Debug("Card row inserted")
	return nil
}

func (r *CardRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards c WHERE c.id = $1`

	card, err := scanCard(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate("failed to get card", err)
	}
	return card, nil
}

func (r *CardRepository) GetByNumber(ctx context.Context, number string) (*model.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards c WHERE c.card_number = $1`

	card, err := scanCard(r.db.QueryRowContext(ctx, query, number))
	if err != nil {
		return nil, translate("failed to get card by number", err)
	}
	return card, nil
}

func (r *CardRepository) GetWithAccountByID(ctx context.Context, id uuid.UUID) (*model.CardWithAccount, error) {
	return r.getWithAccount(ctx, "c.id = $1", id)
}

// GetWithAccountByNumber resolves a card and its owning account in one query.
// Account is nil when the card row points at no account.
func (r *CardRepository) GetWithAccountByNumber(ctx context.Context, number string) (*model.CardWithAccount, error) {
	return r.getWithAccount(ctx, "c.card_number = $1", number)
}

func (r *CardRepository) getWithAccount(ctx context.Context, where string, arg any) (*model.CardWithAccount, error) {
	query := `
		SELECT ` + cardColumns + `,
			a.id, a.user_id, a.balance, a.currency, a.created_at, a.updated_at
		FROM cards c
		LEFT JOIN accounts a ON a.id = c.account_id
		WHERE ` + where

	var (
		c          model.Card
		accID      uuid.NullUUID
		accUser    uuid.NullUUID
		accBalance decimal.NullDecimal
		accCur     sql.NullString
		accCreated sql.NullTime
		accUpdated sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&c.ID,
		&c.AccountID,
		&c.CardNumber,
		&c.CardType,
		&c.PaymentSystem,
		&c.ExpiryDate,
		&c.EncryptedCVV,
		&c.HMAC,
		&c.CreatedAt,
		&c.UpdatedAt,
		&accID,
		&accUser,
		&accBalance,
		&accCur,
		&accCreated,
		&accUpdated,
	)
	if err != nil {
		return nil, translate("failed to resolve card", err)
	}

	result := &model.CardWithAccount{Card: c}
	if accID.Valid {
		result.Account = &model.Account{
			ID:        accID.UUID,
			UserID:    accUser.UUID,
			Balance:   accBalance.Decimal,
			Currency:  model.Currency(accCur.String),
			CreatedAt: accCreated.Time,
			UpdatedAt: accUpdated.Time,
		}
	}
	return result, nil
}

func (r *CardRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]model.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards c WHERE c.account_id = $1 ORDER BY c.created_at`
	return r.list(ctx, query, accountID)
}

func (r *CardRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Card, error) {
	query := `
		SELECT ` + cardColumns + `
		FROM cards c
		JOIN accounts a ON a.id = c.account_id
		WHERE a.user_id = $1
		ORDER BY c.created_at DESC
	`
	return r.list(ctx, query, userID)
}

func (r *CardRepository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards WHERE account_id = $1`, accountID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cards: %w", err)
	}
	return n, nil
}

// DeleteByAccountID removes every transaction touching the account's cards,
// then the cards themselves, in one transaction.
func (r *CardRepository) DeleteByAccountID(ctx context.Context, accountID uuid.UUID) (cards, transactions int64, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	res, err := tx.ExecContext(ctx, `
		DELETE FROM transactions
		WHERE from_card_id IN (SELECT id FROM cards WHERE account_id = $1)
		   OR to_card_id IN (SELECT id FROM cards WHERE account_id = $1)
	`, accountID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to delete transactions: %w", err)
	}
	if transactions, err = res.RowsAffected(); err != nil {
		return 0, 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	res, err = tx.ExecContext(ctx, `DELETE FROM cards WHERE account_id = $1`, accountID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to delete cards: %w", err)
	}
	if cards, err = res.RowsAffected(); err != nil {
		return 0, 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit card deletion: %w", err)
	}
	return cards, transactions, nil
}

func (r *CardRepository) list(ctx context.Context, query string, arg any) ([]model.Card, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer rows.Close()

	cards := make([]model.Card, 0)
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, *card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return cards, nil
}

func scanCard(row rowScanner) (*model.Card, error) {
	var c model.Card
	err := row.Scan(
		&c.ID,
		&c.AccountID,
		&c.CardNumber,
		&c.CardType,
		&c.PaymentSystem,
		&c.ExpiryDate,
		&c.EncryptedCVV,
		&c.HMAC,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
