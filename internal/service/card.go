package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"banking-core/internal/cardnum"
	"banking-core/internal/config"
	"banking-core/internal/crypto"
	"banking-core/internal/model"
)

// maxNumberAttempts bounds retries after card number collisions.
const maxNumberAttempts = 5

type CardService struct {
	users    UserStore
	accounts AccountStore
	cards    CardStore
	cipher   *crypto.CVVCipher
	signer   *crypto.Signer
	limits   config.Limits
	logger   *logrus.Logger
	now      func() time.Time
}

func NewCardService(
	users UserStore,
	accounts AccountStore,
	cards CardStore,
	cipher *crypto.CVVCipher,
	signer *crypto.Signer,
	limits config.Limits,
	logger *logrus.Logger,
) *CardService {
	return &CardService{
		users:    users,
		accounts: accounts,
		cards:    cards,
		cipher:   cipher,
		signer:   signer,
		limits:   limits,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateCardForAccount issues a card with a fresh number and CVV. The CVV is
// stored encrypted and never returned here.
func (s *CardService) CreateCardForAccount(
	ctx context.Context,
	accountID uuid.UUID,
	cardType model.CardType,
	paymentSystem model.PaymentSystem,
) (*model.CardView, error) {
	if cardType == "" {
		cardType = model.CardTypeDebit
	}
	if paymentSystem == "" {
		paymentSystem = model.PaymentSystemVisa
	}
	if !cardType.Valid() {
		return nil, fmt.Errorf("%w: unsupported card type %q", model.ErrInvalidInput, cardType)
	}
	if !paymentSystem.Valid() {
		return nil, fmt.Errorf("%w: unsupported payment system %q", model.ErrInvalidInput, paymentSystem)
	}

	log := s.logger.WithField("account_id", accountID)

	count, err := s.cards.CountByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to count cards: %w", err)
	}
	if count >= s.limits.CardsPerAccount {
		log.Warn("Card limit reached")
		return nil, fmt.Errorf("%w: at most %d cards per account", model.ErrLimitExceeded, s.limits.CardsPerAccount)
	}

	cvv, err := crypto.GenerateCVV()
	if err != nil {
		return nil, err
	}
	encryptedCVV, err := s.cipher.Encrypt(cvv)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt cvv: %w", err)
	}

	card := &model.Card{
		AccountID:     accountID,
		CardType:      cardType,
		PaymentSystem: paymentSystem,
		ExpiryDate:    s.now().UTC().Truncate(time.Second).AddDate(s.limits.CardValidityYears, 0, 0),
		EncryptedCVV:  encryptedCVV,
	}

	for attempt := 1; ; attempt++ {
		number, err := cardnum.Generate(paymentSystem)
		if err != nil {
			return nil, fmt.Errorf("failed to generate card number: %w", err)
		}
		card.ID = uuid.New()
		card.CardNumber = number
		card.HMAC = s.sign(card)

		err = s.cards.CreateLimited(ctx, card, s.limits.CardsPerAccount)
		if err == nil {
			break
		}
		if errors.Is(err, model.ErrDuplicateCardNumber) && attempt < maxNumberAttempts {
			log.WithField("attempt", attempt).Warn("Card number collision, regenerating")
			continue
		}
		log.WithError(err).Error("Failed to create card")
		return nil, fmt.Errorf("failed to create card: %w", err)
	}

	log.WithFields(logrus.Fields{
		"card_id": card.ID,
		"card":    cardnum.Mask(card.CardNumber),
	}).Info("Card issued")

	view := card.View()
	return &view, nil
}

// GetCVVForCard reveals the CVV to the card owner after a live password check.
// Ownership and password failures both yield model.ErrPermissionDenied.
func (s *CardService) GetCVVForCard(ctx context.Context, cardID uuid.UUID, password string, requestingUserID uuid.UUID) (*model.CardWithCVV, error) {
	found, err := s.cards.GetWithAccountByID(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %w", err)
	}

	audit := s.logger.WithFields(logrus.Fields{
		"card":    cardnum.Mask(found.CardNumber),
		"user_id": requestingUserID,
	})

	if found.Account == nil {
		return nil, fmt.Errorf("%w: card %s has no account", model.ErrDataIntegrity, found.ID)
	}
	if found.Account.UserID != requestingUserID {
		audit.Warn("SECURITY: cvv requested for a foreign card")
		return nil, fmt.Errorf("%w: card belongs to another user", model.ErrPermissionDenied)
	}

	user, err := s.users.GetByID(ctx, requestingUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		audit.Warn("SECURITY: cvv password check failed")
		return nil, fmt.Errorf("%w: password check failed", model.ErrPermissionDenied)
	}

	if !s.signer.Verify(found.HMAC, signedFields(&found.Card)...) {
		audit.Error("SECURITY: card integrity check failed")
		return nil, fmt.Errorf("%w: card integrity check failed", model.ErrDecryption)
	}
	cvv, err := s.cipher.Decrypt(found.EncryptedCVV)
	if err != nil {
		audit.WithError(err).Error("SECURITY: cvv decryption failed")
		return nil, err
	}

	audit.Info("SECURITY: cvv revealed")
	return &model.CardWithCVV{
		AccountID:  found.AccountID,
		CardNumber: found.CardNumber,
		ExpiryDate: found.ExpiryDate,
		CVV:        cvv,
	}, nil
}

// DeleteCardsByAccountID removes the account's cards and every transaction
// that references them.
func (s *CardService) DeleteCardsByAccountID(ctx context.Context, accountID uuid.UUID) (*model.DeleteCardsResult, error) {
	if _, err := s.accounts.GetByID(ctx, accountID); err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	cards, txs, err := s.cards.DeleteByAccountID(ctx, accountID)
	if err != nil {
		s.logger.WithError(err).WithField("account_id", accountID).Error("Failed to delete cards")
		return nil, fmt.Errorf("failed to delete cards: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"account_id":   accountID,
		"cards":        cards,
		"transactions": txs,
	}).Info("Account cards deleted")
	return &model.DeleteCardsResult{DeletedCards: cards, DeletedTransactions: txs}, nil
}

func (s *CardService) GetCardByID(ctx context.Context, id uuid.UUID) (*model.CardView, error) {
	card, err := s.cards.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	view := card.View()
	return &view, nil
}

func (s *CardService) GetCardByNumber(ctx context.Context, number string) (*model.CardView, error) {
	if !cardnum.IsValidLuhn(number) {
		return nil, fmt.Errorf("%w: malformed card number", model.ErrInvalidInput)
	}
	card, err := s.cards.GetByNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	view := card.View()
	return &view, nil
}

func (s *CardService) GetCardsByAccount(ctx context.Context, accountID uuid.UUID) ([]model.CardView, error) {
	cards, err := s.cards.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	return views(cards), nil
}

func (s *CardService) GetUserCards(ctx context.Context, userID uuid.UUID) ([]model.CardView, error) {
	cards, err := s.cards.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	return views(cards), nil
}

func (s *CardService) sign(card *model.Card) string {
	return s.signer.Sign(signedFields(card)...)
}

// signedFields are the card columns covered by the integrity tag.
func signedFields(card *model.Card) []string {
	return []string{card.CardNumber, card.ExpiryDate.UTC().Format(time.RFC3339), card.EncryptedCVV}
}

func views(cards []model.Card) []model.CardView {
	out := make([]model.CardView, 0, len(cards))
	for i := range cards {
		out = append(out, cards[i].View())
	}
	return out
}
