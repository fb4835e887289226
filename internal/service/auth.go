package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"banking-core/internal/model"
)

var errInvalidCredentials = fmt.Errorf("%w: invalid credentials", model.ErrPermissionDenied)

type AuthService struct {
	users           UserStore
	defaultCurrency model.Currency
	jwtSecret       string
	tokenExpiry     time.Duration
	logger          *logrus.Logger
}

func NewAuthService(users UserStore, defaultCurrency model.Currency, jwtSecret string, tokenExpiry time.Duration, logger *logrus.Logger) *AuthService {
	return &AuthService{
		users:           users,
		defaultCurrency: defaultCurrency,
		jwtSecret:       jwtSecret,
		tokenExpiry:     tokenExpiry,
		logger:          logger,
	}
}

// SignUp registers the user and opens their default account.
func (s *AuthService) SignUp(ctx context.Context, input model.SignUpInput) (*model.User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := input.Validate(); err != nil {
		return nil, err
	}

	log := s.logger.WithField("email", input.Email)
	log.Info("Sign-up attempt")

	exists, err := s.users.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}
	if exists {
		log.Warn("Email already registered")
		return nil, fmt.Errorf("%w: email already registered", model.ErrInvalidInput)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:       uuid.New(),
		FullName: strings.TrimSpace(input.FullName),
		Email:    input.Email,
		Password: string(hashed),
	}
	account := &model.Account{
		ID:       uuid.New(),
		UserID:   user.ID,
		Balance:  decimal.Zero,
		Currency: s.defaultCurrency,
	}
	if err := s.users.CreateWithAccount(ctx, user, account); err != nil {
		log.WithError(err).Error("Failed to register user")
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	log.WithFields(logrus.Fields{
		"user_id":    user.ID,
		"account_id": account.ID,
	}).Info("User registered")
	return user, nil
}

// SignIn checks the credentials and returns a signed access token.
func (s *AuthService) SignIn(ctx context.Context, input model.SignInInput) (string, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			s.logger.WithField("email", email).Warn("Sign-in for unknown email")
			return "", errInvalidCredentials
		}
		return "", fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		s.logger.WithField("user_id", user.ID).Warn("Sign-in with wrong password")
		return "", errInvalidCredentials
	}

	token, err := s.GenerateJWTToken(user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.WithField("user_id", user.ID).Info("User signed in")
	return token, nil
}

func (s *AuthService) GenerateJWTToken(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenExpiry)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// ParseToken validates the token and returns the user id it was issued for.
func (s *AuthService) ParseToken(tokenString string) (uuid.UUID, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return uuid.Nil, fmt.Errorf("%w: invalid token", model.ErrPermissionDenied)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid token subject", model.ErrPermissionDenied)
	}
	return userID, nil
}
