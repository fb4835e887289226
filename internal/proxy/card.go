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

var _ service.CardOperations = (*CardProxy)(nil)

type CardProxy struct {
	base
	next service.CardOperations
}

func NewCardProxy(next service.CardOperations, recorder monitoring.Recorder, logger *logrus.Logger) *CardProxy {
	return &CardProxy{
		base: base{module: "card", recorder: recorder, logger: logger},
		next: next,
	}
}

func (p *CardProxy) CreateCardForAccount(
	ctx context.Context,
	accountID uuid.UUID,
	cardType model.CardType,
	paymentSystem model.PaymentSystem,
) (*model.CardView, error) {
	const op = "CreateCardForAccount"
	if err := requireID("account id", accountID); err != nil {
		return reject[*model.CardView](&p.base, op, err)
	}
	fields := logrus.Fields{"account_id": accountID, "card_type": cardType, "payment_system": paymentSystem}
	return observe(&p.base, op, fields, func() (*model.CardView, error) {
		return p.next.CreateCardForAccount(ctx, accountID, cardType, paymentSystem)
	})
}

// GetCVVForCard never logs the password or the returned value.
func (p *CardProxy) GetCVVForCard(ctx context.Context, cardID uuid.UUID, password string, requestingUserID uuid.UUID) (*model.CardWithCVV, error) {
	const op = "GetCVVForCard"
	if err := requireIDs(namedID{"card id", cardID}, namedID{"user id", requestingUserID}); err != nil {
		return reject[*model.CardWithCVV](&p.base, op, err)
	}
	if password == "" {
		return reject[*model.CardWithCVV](&p.base, op, fmt.Errorf("%w: password is required", model.ErrInvalidInput))
	}
	return observe(&p.base, op, logrus.Fields{"card_id": cardID, "user_id": requestingUserID}, func() (*model.CardWithCVV, error) {
		return p.next.GetCVVForCard(ctx, cardID, password, requestingUserID)
	})
}

func (p *CardProxy) DeleteCardsByAccountID(ctx context.Context, accountID uuid.UUID) (*model.DeleteCardsResult, error) {
	const op = "DeleteCardsByAccountID"
	if err := requireID("account id", accountID); err != nil {
		return reject[*model.DeleteCardsResult](&p.base, op, err)
	}
	return observe(&p.base, op, logrus.Fields{"account_id": accountID}, func() (*model.DeleteCardsResult, error) {
		return p.next.DeleteCardsByAccountID(ctx, accountID)
	})
}

func (p *CardProxy) GetCardByID(ctx context.Context, id uuid.UUID) (*model.CardView, error) {
	const op = "GetCardByID"
	if err := requireID("card id", id); err != nil {
		return reject[*model.CardView](&p.base, op, err)
	}
	return observe(&p.base, op, logrus.Fields{"card_id": id}, func() (*model.CardView, error) {
		return p.next.GetCardByID(ctx, id)
	})
}

func (p *CardProxy) GetCardByNumber(ctx context.Context, number string) (*model.CardView, error) {
	const op = "GetCardByNumber"
	if number == "" {
		return reject[*model.CardView](&p.base, op, fmt.Errorf("%w: card number is required", model.ErrInvalidInput))
	}
	return observe(&p.base, op, logrus.Fields{"card": cardnum.Mask(number)}, func() (*model.CardView, error) {
		return p.next.GetCardByNumber(ctx, number)
	})
}

func (p *CardProxy) GetCardsByAccount(ctx context.Context, accountID uuid.UUID) ([]model.CardView, error) {
	const op = "GetCardsByAccount"
	if err := requireID("account id", accountID); err != nil {
		return reject[[]model.CardView](&p.base, op, err)
	}
	return observe(&p.base, op, logrus.Fields{"account_id": accountID}, func() ([]model.CardView, error) {
		return p.next.GetCardsByAccount(ctx, accountID)
	})
}

func (p *CardProxy) GetUserCards(ctx context.Context, userID uuid.UUID) ([]model.CardView, error) {
	const op = "GetUserCards"
	if err := requireID("user id", userID); err != nil {
		return reject[[]model.CardView](&p.base, op, err)
	}
	return observe(&p.base, op, logrus.Fields{"user_id": userID}, func() ([]model.CardView, error) {
		return p.next.GetUserCards(ctx, userID)
	})
}
