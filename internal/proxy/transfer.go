package proxy

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"banking-core/internal/cardnum"
	"banking-core/internal/model"
	"banking-core/internal/monitoring"
	"banking-core/internal/service"
)

var _ service.TransferOperations = (*TransferProxy)(nil)

type TransferProxy struct {
	base
	next service.TransferOperations
}

func NewTransferProxy(next service.TransferOperations, recorder monitoring.Recorder, logger *logrus.Logger) *TransferProxy {
	return &TransferProxy{
		base: base{module: "transfer", recorder: recorder, logger: logger},
		next: next,
	}
}

func (p *TransferProxy) Transfer(ctx context.Context, req model.TransferRequest, actingUserID *uuid.UUID) (*model.TransactionView, error) {
	fields := logrus.Fields{
		"from":     cardnum.Mask(req.FromCardNumber),
		"to":       cardnum.Mask(req.ToCardNumber),
		"amount":   req.Amount.String(),
		"currency": req.Currency,
	}
	if actingUserID != nil {
		fields["user_id"] = *actingUserID
	}
	return observe(&p.base, "Transfer", fields, func() (*model.TransactionView, error) {
		return p.next.Transfer(ctx, req, actingUserID)
	})
}

func (p *TransferProxy) GetTransactionByID(ctx context.Context, id uuid.UUID) (*model.TransactionView, error) {
	const op = "GetTransactionByID"
	if err := requireID("transaction id", id); err != nil {
		return reject[*model.TransactionView](&p.base, op, err)
	}
	return observe(&p.base, op, logrus.Fields{"transaction_id": id}, func() (*model.TransactionView, error) {
		return p.next.GetTransactionByID(ctx, id)
	})
}

func (p *TransferProxy) GetAllTransactions(ctx context.Context) ([]model.TransactionView, error) {
	return observe(&p.base, "GetAllTransactions", nil, func() ([]model.TransactionView, error) {
		return p.next.GetAllTransactions(ctx)
	})
}

func (p *TransferProxy) GetUserTransactions(ctx context.Context, userID uuid.UUID) ([]model.TransactionView, error) {
	const op = "GetUserTransactions"
	if err := requireID("user id", userID); err != nil {
		return reject[[]model.TransactionView](&p.base, op, err)
	}
	return observe(&p.base, op, logrus.Fields{"user_id": userID}, func() ([]model.TransactionView, error) {
		return p.next.GetUserTransactions(ctx, userID)
	})
}

func (p *TransferProxy) GetTransactionsByCardID(ctx context.Context, cardID uuid.UUID) ([]model.TransactionView, error) {
	const op = "GetTransactionsByCardID"
	if err := requireID("card id", cardID); err != nil {
		return reject[[]model.TransactionView](&p.base, op, err)
	}
	return observe(&p.base, op, logrus.Fields{"card_id": cardID}, func() ([]model.TransactionView, error) {
		return p.next.GetTransactionsByCardID(ctx, cardID)
	})
}

func (p *TransferProxy) GetTransactionsByCardNumber(ctx context.Context, number string) ([]model.TransactionView, error) {
	const op = "GetTransactionsByCardNumber"
	if number == "" {
		return reject[[]model.TransactionView](&p.base, op, fmt.Errorf("%w: card number is required", model.ErrInvalidInput))
	}
	return observe(&p.base, op, logrus.Fields{"card": cardnum.Mask(number)}, func() ([]model.TransactionView, error) {
		return p.next.GetTransactionsByCardNumber(ctx, number)
	})
}
