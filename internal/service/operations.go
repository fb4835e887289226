package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"banking-core/internal/model"
)

// The operation sets below are what the HTTP layer calls. The services in
// this package implement them and the proxy package decorates them.

type AccountOperations interface {
	CreateAccountForUser(ctx context.Context, userID uuid.UUID, currency model.Currency) (*model.Account, error)
	Deposit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, requestingUserID uuid.UUID) (*model.DepositResult, error)
	GetAccountByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	GetUserAccounts(ctx context.Context, userID uuid.UUID) ([]model.AccountWithCards, error)
}

type CardOperations interface {
	CreateCardForAccount(ctx context.Context, accountID uuid.UUID, cardType model.CardType, paymentSystem model.PaymentSystem) (*model.CardView, error)
	GetCVVForCard(ctx context.Context, cardID uuid.UUID, password string, requestingUserID uuid.UUID) (*model.CardWithCVV, error)
	DeleteCardsByAccountID(ctx context.Context, accountID uuid.UUID) (*model.DeleteCardsResult, error)
	GetCardByID(ctx context.Context, id uuid.UUID) (*model.CardView, error)
	GetCardByNumber(ctx context.Context, number string) (*model.CardView, error)
	GetCardsByAccount(ctx context.Context, accountID uuid.UUID) ([]model.CardView, error)
	GetUserCards(ctx context.Context, userID uuid.UUID) ([]model.CardView, error)
}

type TransferOperations interface {
	Transfer(ctx context.Context, req model.TransferRequest, actingUserID *uuid.UUID) (*model.TransactionView, error)
	GetTransactionByID(ctx context.Context, id uuid.UUID) (*model.TransactionView, error)
	GetAllTransactions(ctx context.Context) ([]model.TransactionView, error)
	GetUserTransactions(ctx context.Context, userID uuid.UUID) ([]model.TransactionView, error)
	GetTransactionsByCardID(ctx context.Context, cardID uuid.UUID) ([]model.TransactionView, error)
	GetTransactionsByCardNumber(ctx context.Context, number string) ([]model.TransactionView, error)
}

var (
	_ AccountOperations  = (*AccountService)(nil)
	_ CardOperations     = (*CardService)(nil)
	_ TransferOperations = (*TransferService)(nil)
)
