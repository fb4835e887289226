package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"banking-core/internal/config"
	"banking-core/internal/model"
)

type AccountService struct {
	accounts AccountStore
	cards    CardStore
	limits   config.Limits
	logger   *logrus.Logger
}

func NewAccountService(accounts AccountStore, cards CardStore, limits config.Limits, logger *logrus.Logger) *AccountService {
	return &AccountService{
		accounts: accounts,
		cards:    cards,
		limits:   limits,
		logger:   logger,
	}
}

// CreateAccountForUser opens a zero-balance account. An empty currency means
// the configured default. The count and currency pre-checks fail fast; the
// store re-checks both inside the insert transaction.
func (s *AccountService) CreateAccountForUser(ctx context.Context, userID uuid.UUID, currency model.Currency) (*model.Account, error) {
	if currency == "" {
		currency = s.limits.DefaultCurrency
	}
	if !currency.Valid() {
		return nil, fmt.Errorf("%w: unsupported currency %q", model.ErrInvalidInput, currency)
	}

	log := s.logger.WithFields(logrus.Fields{"user_id": userID, "currency": currency})

	count, err := s.accounts.CountByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count accounts: %w", err)
	}
	if count >= s.limits.AccountsPerUser {
		log.Warn("Account limit reached")
		return nil, fmt.Errorf("%w: at most %d accounts per user", model.ErrLimitExceeded, s.limits.AccountsPerUser)
	}

	exists, err := s.accounts.ExistsInCurrency(ctx, userID, currency)
	if err != nil {
		return nil, fmt.Errorf("failed to check currency: %w", err)
	}
	if exists {
		log.Warn("Account in this currency already exists")
		return nil, fmt.Errorf("%w: %s", model.ErrDuplicateCurrency, currency)
	}

	account := &model.Account{
		ID:       uuid.New(),
		UserID:   userID,
		Balance:  decimal.Zero,
		Currency: currency,
	}
	if err := s.accounts.CreateLimited(ctx, account, s.limits.AccountsPerUser); err != nil {
		log.WithError(err).Error("Failed to create account")
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	log.WithField("account_id", account.ID).Info("Account created")
	return account, nil
}

// Deposit credits the account of requestingUserID.
func (s *AccountService) Deposit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, requestingUserID uuid.UUID) (*model.DepositResult, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account.UserID != requestingUserID {
		s.logger.WithFields(logrus.Fields{
			"account_id": accountID,
			"user_id":    requestingUserID,
		}).Warn("Deposit to a foreign account rejected")
		return nil, fmt.Errorf("%w: account belongs to another user", model.ErrPermissionDenied)
	}

	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", model.ErrInvalidInput)
	}
	if amount.LessThan(s.limits.DepositMin) {
		return nil, fmt.Errorf("%w: minimum deposit is %s", model.ErrInvalidInput, s.limits.DepositMin)
	}
	if amount.GreaterThan(s.limits.DepositMax) {
		return nil, fmt.Errorf("%w: maximum deposit is %s", model.ErrInvalidInput, s.limits.DepositMax)
	}
	if err := model.CheckMoneyScale(amount); err != nil {
		return nil, err
	}

	balance, err := s.accounts.Deposit(ctx, accountID, amount)
	if err != nil {
		s.logger.WithError(err).WithField("account_id", accountID).Error("Deposit failed")
		return nil, fmt.Errorf("failed to deposit: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"account_id": accountID,
		"amount":     amount.String(),
	}).Info("Deposit applied")
	return &model.DepositResult{AccountID: accountID, Balance: balance}, nil
}

func (s *AccountService) GetAccountByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// GetUserAccounts lists the user's accounts, each with its cards.
func (s *AccountService) GetUserAccounts(ctx context.Context, userID uuid.UUID) ([]model.AccountWithCards, error) {
	accounts, err := s.accounts.GetUserAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get accounts: %w", err)
	}
	cards, err := s.cards.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards: %w", err)
	}

	byAccount := make(map[uuid.UUID][]model.CardView, len(accounts))
	for i := range cards {
		byAccount[cards[i].AccountID] = append(byAccount[cards[i].AccountID], cards[i].View())
	}

	result := make([]model.AccountWithCards, 0, len(accounts))
	for _, a := range accounts {
		views := byAccount[a.ID]
		if views == nil {
			views = []model.CardView{}
		}
		result = append(result, model.AccountWithCards{Account: a, Cards: views})
	}
	return result, nil
}
