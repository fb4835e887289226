package proxy

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"banking-core/internal/model"
	"banking-core/internal/monitoring"
	"banking-core/internal/service"
)

var _ service.AccountOperations = (*AccountProxy)(nil)

type AccountProxy struct {
	base
	next service.AccountOperations
}

func NewAccountProxy(next service.AccountOperations, recorder monitoring.Recorder, logger *logrus.Logger) *AccountProxy {
	return &AccountProxy{
		base: base{module: "account", recorder: recorder, logger: logger},
		next: next,
	}
}

func (p *AccountProxy) CreateAccountForUser(ctx context.Context, userID uuid.UUID, currency model.Currency) (*model.Account, error) {
	const op = "CreateAccountForUser"
	if err := requireID("user id", userID); err != nil {
		return reject[*model.Account](&p.base, op, err)
	}
	return observe(&p.base, op, logrus.Fields{"user_id": userID, "currency": currency}, func() (*model.Account, error) {
		return p.next.CreateAccountForUser(ctx, userID, currency)
	})
}

func (p *AccountProxy) Deposit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, requestingUserID uuid.UUID) (*model.DepositResult, error) {
	const op = "Deposit"
	if err := requireIDs(namedID{"account id", accountID}, namedID{"user id", requestingUserID}); err != nil {
		return reject[*model.DepositResult](&p.base, op, err)
	}
	fields := logrus.Fields{"account_id": accountID, "user_id": requestingUserID, "amount": amount.String()}
	return observe(&p.base, op, fields, func() (*model.DepositResult, error) {
		return p.next.Deposit(ctx, accountID, amount, requestingUserID)
	})
}

func (p *AccountProxy) GetAccountByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	const op = "GetAccountByID"
	if err := requireID("account id", id); err != nil {
		return reject[*model.Account](&p.base, op, err)
	}
	return observe(&p.base, op, logrus.Fields{"account_id": id}, func() (*model.Account, error) {
		return p.next.GetAccountByID(ctx, id)
	})
}

func (p *AccountProxy) GetUserAccounts(ctx context.Context, userID uuid.UUID) ([]model.AccountWithCards, error) {
	const op = "GetUserAccounts"
	if err := requireID("user id", userID); err != nil {
		return reject[[]model.AccountWithCards](&p.base, op, err)
	}
	return observe(&p.base, op, logrus.Fields{"user_id": userID}, func() ([]model.AccountWithCards, error) {
		return p.next.GetUserAccounts(ctx, userID)
	})
}
