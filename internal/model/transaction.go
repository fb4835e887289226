package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction is an append-only ledger row: one debit and one credit applied
// in the same database transaction that inserted it.
type Transaction struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	FromCardID  uuid.UUID       `json:"from_card_id" db:"from_card_id"`
	ToCardID    uuid.UUID       `json:"to_card_id" db:"to_card_id"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	Currency    Currency        `json:"currency" db:"currency"`
	Description *string         `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

type TransactionView struct {
	ID             uuid.UUID       `json:"id"`
	FromCardNumber string          `json:"from_card_number"`
	ToCardNumber   string          `json:"to_card_number"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       Currency        `json:"currency"`
	Description    *string         `json:"description,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

type TransferRequest struct {
	FromCardNumber string          `json:"from_card_number"`
	ToCardNumber   string          `json:"to_card_number"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       Currency        `json:"currency"`
	Description    *string         `json:"description,omitempty"`
}
