package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"banking-core/internal/model"
)

type UserRepository struct {
	db     *sql.DB
	logger *logrus.Logger
}

func NewUserRepository(db *sql.DB, logger *logrus.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

// CreateWithAccount inserts the user and their first account in one
// transaction, so a registered user always has an account.
func (r *UserRepository) CreateWithAccount(ctx context.Context, user *model.User, account *model.Account) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	err = tx.QueryRowContext(ctx, `
		INSERT INTO users (id, full_name, email, password)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, user.ID, user.FullName, user.Email, user.Password).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return translate("failed to create user", err)
	}

	account.UserID = user.ID
	err = tx.QueryRowContext(ctx, `
		INSERT INTO accounts (id, user_id, balance, currency)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, account.ID, account.UserID, account.Balance, account.Currency).Scan(&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return translate("failed to create default account", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit registration: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"user_id":    user.ID,
		"account_id": account.ID,
	}).Debug("User and default account inserted")
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
		SELECT id, full_name, email, password, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	return r.scanOne(ctx, "failed to find user by email", query, email)
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `
		SELECT id, full_name, email, password, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	return r.scanOne(ctx, "failed to find user by ID", query, id)
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) scanOne(ctx context.Context, op, query string, arg any) (*model.User, error) {
	var user model.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.FullName,
		&user.Email,
		&user.Password,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, translate(op, err)
	}
	return &user, nil
}
