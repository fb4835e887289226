package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"banking-core/internal/model"
)

// Persistence boundaries, satisfied by the repository package.

type UserStore interface {
	CreateWithAccount(ctx context.Context, user *model.User, account *model.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

type AccountStore interface {
	CreateLimited(ctx context.Context, account *model.Account, maxAccounts int) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	GetUserAccounts(ctx context.Context, userID uuid.UUID) ([]model.Account, error)
	Deposit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
	ExistsInCurrency(ctx context.Context, userID uuid.UUID, currency model.Currency) (bool, error)
}

type CardStore interface {
	CreateLimited(ctx context.Context, card *model.Card, maxCards int) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Card, error)
	GetByNumber(ctx context.Context, number string) (*model.Card, error)
	GetWithAccountByID(ctx context.Context, id uuid.UUID) (*model.CardWithAccount, error)
	GetWithAccountByNumber(ctx context.Context, number string) (*model.CardWithAccount, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]model.Card, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Card, error)
	CountByAccount(ctx context.Context, accountID uuid.UUID) (int, error)
	DeleteByAccountID(ctx context.Context, accountID uuid.UUID) (cards, transactions int64, err error)
}

type TransactionStore interface {
	ExecuteTransfer(ctx context.Context, t *model.Transaction, fromAccountID, toAccountID uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.TransactionView, error)
	List(ctx context.Context) ([]model.TransactionView, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.TransactionView, error)
	ListByCardID(ctx context.Context, cardID uuid.UUID) ([]model.TransactionView, error)
	ListByCardNumber(ctx context.Context, number string) ([]model.TransactionView, error)
}

// Notifier delivers transfer receipts. A nil Notifier disables them.
type Notifier interface {
	SendTransferNotification(email string, amount decimal.Decimal, currency model.Currency, from, to string) error
}
