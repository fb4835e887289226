package handler

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"banking-core/internal/model"
)

const tokenPrefix = "token-"

type fakeAuth struct {
	users map[string]*model.User
}

func (f *fakeAuth) ParseToken(token string) (uuid.UUID, error) {
	if !strings.HasPrefix(token, tokenPrefix) {
		return uuid.Nil, fmt.Errorf("%w: bad token", model.ErrPermissionDenied)
	}
	return uuid.Parse(strings.TrimPrefix(token, tokenPrefix))
}

func (f *fakeAuth) SignUp(_ context.Context, input model.SignUpInput) (*model.User, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	u := &model.User{ID: uuid.New(), FullName: input.FullName, Email: input.Email, Password: input.Password}
	f.users[input.Email] = u
	return u, nil
}

func (f *fakeAuth) SignIn(_ context.Context, input model.SignInInput) (string, error) {
	u, ok := f.users[input.Email]
	if !ok || u.Password != input.Password {
		return "", fmt.Errorf("%w: invalid credentials", model.ErrPermissionDenied)
	}
	return tokenPrefix + u.ID.String(), nil
}

type fakeAccounts struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*model.Account
	err      error

	depositUser uuid.UUID
}

func (f *fakeAccounts) CreateAccountForUser(_ context.Context, userID uuid.UUID, currency model.Currency) (*model.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	if currency == "" {
		currency = model.CurrencyUAH
	}
	a := &model.Account{ID: uuid.New(), UserID: userID, Currency: currency, Balance: decimal.Zero}
	f.mu.Lock()
	f.accounts[a.ID] = a
	f.mu.Unlock()
	return a, nil
}

func (f *fakeAccounts) Deposit(_ context.Context, accountID uuid.UUID, amount decimal.Decimal, requestingUserID uuid.UUID) (*model.DepositResult, error) {
	f.depositUser = requestingUserID
	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.accounts[accountID]
	if !ok {
		return nil, model.ErrNotFound
	}
	a.Balance = a.Balance.Add(amount)
	return &model.DepositResult{AccountID: a.ID, Balance: a.Balance}, nil
}

func (f *fakeAccounts) GetAccountByID(_ context.Context, id uuid.UUID) (*model.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", id, model.ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAccounts) GetUserAccounts(_ context.Context, userID uuid.UUID) ([]model.AccountWithCards, error) {
	out := []model.AccountWithCards{}
	for _, a := range f.accounts {
		if a.UserID == userID {
			out = append(out, model.AccountWithCards{Account: *a, Cards: []model.CardView{}})
		}
	}
	return out, nil
}

type fakeCards struct {
	cards  map[uuid.UUID]*model.CardView
	cvv    *model.CardWithCVV
	cvvErr error

	cvvPassword string
	cvvUser     uuid.UUID
	deleted     uuid.UUID
}

func (f *fakeCards) CreateCardForAccount(_ context.Context, accountID uuid.UUID, cardType model.CardType, ps model.PaymentSystem) (*model.CardView, error) {
	c := &model.CardView{ID: uuid.New(), AccountID: accountID, CardType: cardType, PaymentSystem: ps}
	f.cards[c.ID] = c
	return c, nil
}

func (f *fakeCards) GetCVVForCard(_ context.Context, _ uuid.UUID, password string, requestingUserID uuid.UUID) (*model.CardWithCVV, error) {
	f.cvvPassword = password
	f.cvvUser = requestingUserID
	return f.cvv, f.cvvErr
}

func (f *fakeCards) DeleteCardsByAccountID(_ context.Context, accountID uuid.UUID) (*model.DeleteCardsResult, error) {
	f.deleted = accountID
	return &model.DeleteCardsResult{DeletedCards: 2, DeletedTransactions: 1}, nil
}

func (f *fakeCards) GetCardByID(_ context.Context, id uuid.UUID) (*model.CardView, error) {
	c, ok := f.cards[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return c, nil
}

func (f *fakeCards) GetCardByNumber(_ context.Context, number string) (*model.CardView, error) {
	for _, c := range f.cards {
		if c.CardNumber == number {
			return c, nil
		}
	}
	return nil, model.ErrNotFound
}

func (f *fakeCards) GetCardsByAccount(_ context.Context, accountID uuid.UUID) ([]model.CardView, error) {
	var out []model.CardView
	for _, c := range f.cards {
		if c.AccountID == accountID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeCards) GetUserCards(context.Context, uuid.UUID) ([]model.CardView, error) {
	return nil, nil
}

type fakeTransfers struct {
	view   *model.TransactionView
	err    error
	acting *uuid.UUID
}

func (f *fakeTransfers) Transfer(_ context.Context, _ model.TransferRequest, actingUserID *uuid.UUID) (*model.TransactionView, error) {
	f.acting = actingUserID
	return f.view, f.err
}

func (f *fakeTransfers) GetTransactionByID(context.Context, uuid.UUID) (*model.TransactionView, error) {
	if f.view == nil {
		return nil, model.ErrNotFound
	}
	return f.view, nil
}

func (f *fakeTransfers) GetAllTransactions(context.Context) ([]model.TransactionView, error) {
	return nil, f.err
}

func (f *fakeTransfers) GetUserTransactions(context.Context, uuid.UUID) ([]model.TransactionView, error) {
	return nil, f.err
}

func (f *fakeTransfers) GetTransactionsByCardID(context.Context, uuid.UUID) ([]model.TransactionView, error) {
	return []model.TransactionView{*f.view}, f.err
}

func (f *fakeTransfers) GetTransactionsByCardNumber(context.Context, string) ([]model.TransactionView, error) {
	return []model.TransactionView{*f.view}, f.err
}
