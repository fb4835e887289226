package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"banking-core/internal/cardnum"
	"banking-core/internal/config"
	"banking-core/internal/model"
)

type TransferService struct {
	users        UserStore
	cards        CardStore
	transactions TransactionStore
	notifier     Notifier
	limits       config.Limits
	logger       *logrus.Logger
}

// NewTransferService wires the transfer engine. notifier may be nil.
func NewTransferService(
	users UserStore,
	cards CardStore,
	transactions TransactionStore,
	notifier Notifier,
	limits config.Limits,
	logger *logrus.Logger,
) *TransferService {
	return &TransferService{
		users:        users,
		cards:        cards,
		transactions: transactions,
		notifier:     notifier,
		limits:       limits,
		logger:       logger,
	}
}

// Transfer moves money between the accounts behind two cards. Checks run in
// a fixed order and the first failure wins; nothing is written until all of
// them pass. actingUserID is nil for service-to-service calls, which skips
// the ownership check.
func (s *TransferService) Transfer(ctx context.Context, req model.TransferRequest, actingUserID *uuid.UUID) (*model.TransactionView, error) {
	if req.FromCardNumber == "" || req.ToCardNumber == "" {
		return nil, fmt.Errorf("%w: both card numbers are required", model.ErrInvalidInput)
	}
	if req.FromCardNumber == req.ToCardNumber {
		return nil, fmt.Errorf("%w: cannot transfer to the same card", model.ErrInvalidInput)
	}
	if !req.Currency.Valid() {
		return nil, fmt.Errorf("%w: unsupported currency %q", model.ErrInvalidInput, req.Currency)
	}

	log := s.logger.WithFields(logrus.Fields{
		"from":     cardnum.Mask(req.FromCardNumber),
		"to":       cardnum.Mask(req.ToCardNumber),
		"amount":   req.Amount.String(),
		"currency": req.Currency,
	})

	from, err := s.cards.GetWithAccountByNumber(ctx, req.FromCardNumber)
	if err != nil {
		return nil, fmt.Errorf("source card: %w", err)
	}
	to, err := s.cards.GetWithAccountByNumber(ctx, req.ToCardNumber)
	if err != nil {
		return nil, fmt.Errorf("destination card: %w", err)
	}

	if from.Account == nil || to.Account == nil {
		log.Error("Card without account")
		return nil, fmt.Errorf("%w: card is not linked to an account", model.ErrDataIntegrity)
	}
	if req.Amount.LessThan(s.limits.TransferMin) {
		return nil, fmt.Errorf("%w: minimum transfer is %s", model.ErrInvalidInput, s.limits.TransferMin)
	}
	if req.Amount.GreaterThan(s.limits.TransferMax) {
		return nil, fmt.Errorf("%w: maximum transfer is %s", model.ErrInvalidInput, s.limits.TransferMax)
	}
	if err := model.CheckMoneyScale(req.Amount); err != nil {
		return nil, err
	}
	if from.Account.Balance.LessThan(req.Amount) {
		log.Warn("Transfer rejected: insufficient funds")
		return nil, fmt.Errorf("%w: balance %s", model.ErrInsufficientFunds, from.Account.Balance)
	}
	if from.Account.Currency != req.Currency || to.Account.Currency != req.Currency {
		return nil, fmt.Errorf("%w: %s -> %s in %s", model.ErrCurrencyMismatch,
			from.Account.Currency, to.Account.Currency, req.Currency)
	}
	if actingUserID != nil && from.Account.UserID != *actingUserID {
		log.WithField("user_id", *actingUserID).Warn("Transfer from a foreign card rejected")
		return nil, fmt.Errorf("%w: source card belongs to another user", model.ErrPermissionDenied)
	}

	t := &model.Transaction{
		ID:          uuid.New(),
		FromCardID:  from.ID,
		ToCardID:    to.ID,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Description: req.Description,
	}
	if err := s.transactions.ExecuteTransfer(ctx, t, from.Account.ID, to.Account.ID); err != nil {
		log.WithError(err).Error("Transfer failed")
		return nil, fmt.Errorf("transfer failed: %w", err)
	}

	log.WithField("transaction_id", t.ID).Info("Transfer completed")
	s.notify(from.Account.UserID, req)

	return &model.TransactionView{
		ID:             t.ID,
		FromCardNumber: from.CardNumber,
		ToCardNumber:   to.CardNumber,
		Amount:         t.Amount,
		Currency:       t.Currency,
		Description:    t.Description,
		CreatedAt:      t.CreatedAt,
	}, nil
}

// notify sends the receipt in the background; failures are only logged.
func (s *TransferService) notify(userID uuid.UUID, req model.TransferRequest) {
	if s.notifier == nil {
		return
	}
	go func() {
		user, err := s.users.GetByID(context.Background(), userID)
		if err != nil {
			s.logger.WithError(err).Warn("Transfer notification skipped")
			return
		}
		err = s.notifier.SendTransferNotification(user.Email, req.Amount, req.Currency,
			cardnum.Mask(req.FromCardNumber), cardnum.Mask(req.ToCardNumber))
		if err != nil {
			s.logger.WithError(err).Warn("Transfer notification failed")
		}
	}()
}

func (s *TransferService) GetTransactionByID(ctx context.Context, id uuid.UUID) (*model.TransactionView, error) {
	t, err := s.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return t, nil
}

func (s *TransferService) GetAllTransactions(ctx context.Context) ([]model.TransactionView, error) {
	list, err := s.transactions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return list, nil
}

func (s *TransferService) GetUserTransactions(ctx context.Context, userID uuid.UUID) ([]model.TransactionView, error) {
	list, err := s.transactions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return list, nil
}

func (s *TransferService) GetTransactionsByCardID(ctx context.Context, cardID uuid.UUID) ([]model.TransactionView, error) {
	list, err := s.transactions.ListByCardID(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return list, nil
}

func (s *TransferService) GetTransactionsByCardNumber(ctx context.Context, number string) ([]model.TransactionView, error) {
	list, err := s.transactions.ListByCardNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return list, nil
}
