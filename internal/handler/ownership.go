package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"banking-core/internal/model"
	"banking-core/internal/service"
)

// ownership answers whether the caller may see an account, card or transfer.
type ownership struct {
	accounts service.AccountOperations
	cards    service.CardOperations
}

func (o ownership) account(ctx context.Context, userID, accountID uuid.UUID) (*model.Account, error) {
	account, err := o.accounts.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.UserID != userID {
		return nil, fmt.Errorf("%w: account belongs to another user", model.ErrPermissionDenied)
	}
	return account, nil
}

func (o ownership) cardByID(ctx context.Context, userID, cardID uuid.UUID) (*model.CardView, error) {
	card, err := o.cards.GetCardByID(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if _, err := o.account(ctx, userID, card.AccountID); err != nil {
		return nil, err
	}
	return card, nil
}

func (o ownership) cardByNumber(ctx context.Context, userID uuid.UUID, number string) (*model.CardView, error) {
	card, err := o.cards.GetCardByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if _, err := o.account(ctx, userID, card.AccountID); err != nil {
		return nil, err
	}
	return card, nil
}

// transaction allows the caller to see a transfer when either side is theirs.
func (o ownership) transaction(ctx context.Context, userID uuid.UUID, t *model.TransactionView) error {
	for _, number := range []string{t.FromCardNumber, t.ToCardNumber} {
		_, err := o.cardByNumber(ctx, userID, number)
		if err == nil {
			return nil
		}
		if statusFor(err) == http.StatusInternalServerError {
			return err
		}
	}
	return fmt.Errorf("%w: transaction belongs to another user", model.ErrPermissionDenied)
}
