package model

import (
	"time"

	"github.com/google/uuid"
)

type CardType string

const (
	CardTypeDebit  CardType = "DEBIT"
	CardTypeCredit CardType = "CREDIT"
)

func (t CardType) Valid() bool {
	return t == CardTypeDebit || t == CardTypeCredit
}

type PaymentSystem string

const (
	PaymentSystemVisa       PaymentSystem = "VISA"
	PaymentSystemMastercard PaymentSystem = "MASTERCARD"
)

func (p PaymentSystem) Valid() bool {
	return p == PaymentSystemVisa || p == PaymentSystemMastercard
}

// Card is the stored row. EncryptedCVV and HMAC never leave the service layer.
type Card struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	AccountID     uuid.UUID     `json:"account_id" db:"account_id"`
	CardNumber    string        `json:"card_number" db:"card_number"`
	CardType      CardType      `json:"card_type" db:"card_type"`
	PaymentSystem PaymentSystem `json:"payment_system" db:"payment_system"`
	ExpiryDate    time.Time     `json:"expiry_date" db:"expiry_date"`
	EncryptedCVV  string        `json:"-" db:"encrypted_cvv"` // hex(iv):hex(ciphertext)
	HMAC          string        `json:"-" db:"hmac"`          // HMAC-SHA256 over number|expiry|encrypted_cvv
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// CardWithAccount is a card joined with its owning account. Account is nil
// only when the row is broken.
type CardWithAccount struct {
	Card
	Account *Account
}

// View strips the card secrets.
func (c *Card) View() CardView {
	return CardView{
		ID:            c.ID,
		AccountID:     c.AccountID,
		CardNumber:    c.CardNumber,
		CardType:      c.CardType,
		PaymentSystem: c.PaymentSystem,
		ExpiryDate:    c.ExpiryDate,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

type CardView struct {
	ID            uuid.UUID     `json:"id"`
	AccountID     uuid.UUID     `json:"account_id"`
	CardNumber    string        `json:"card_number"`
	CardType      CardType      `json:"card_type"`
	PaymentSystem PaymentSystem `json:"payment_system"`
	ExpiryDate    time.Time     `json:"expiry_date"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

type CreateCardRequest struct {
	CardType      CardType      `json:"card_type"`
	PaymentSystem PaymentSystem `json:"payment_system"`
}

type CVVRequest struct {
	Password string `json:"password"`
}

type CardWithCVV struct {
	AccountID  uuid.UUID `json:"account_id"`
	CardNumber string    `json:"card_number"`
	ExpiryDate time.Time `json:"expiry_date"`
	CVV        string    `json:"cvv"`
}

type DeleteCardsResult struct {
	DeletedCards        int64 `json:"deleted_count"`
	DeletedTransactions int64 `json:"deleted_transactions"`
}
