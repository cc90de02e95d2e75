package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mayabot/maya/internal/models"
)

// AccountRepository defines the interface for Discord account row operations.
type AccountRepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.Account, error)
	Upsert(ctx context.Context, account *models.Account) error
	UpdateTokens(ctx context.Context, userID, accessToken, refreshToken, tokenType, scope string, expiresAt time.Time) error
	ClearTokens(ctx context.Context, userID string) error
}

type accountRepo struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new account repository.
func NewAccountRepository(pool *pgxpool.Pool) AccountRepository {
	return &accountRepo{pool: pool}
}

// GetByUserID retrieves an account by Discord user id.
func (r *accountRepo) GetByUserID(ctx context.Context, userID string) (*models.Account, error) {
	query := `
		SELECT user_id, access_token, refresh_token, token_type, expires_at, scope, created_at, updated_at
		FROM accounts WHERE user_id = $1`

	var a models.Account
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&a.UserID,
		&a.AccessToken,
		&a.RefreshToken,
		&a.TokenType,
		&a.ExpiresAt,
		&a.Scope,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Upsert inserts an account or, when the user already has one, replaces its
// token columns in place.
func (r *accountRepo) Upsert(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (user_id, access_token, refresh_token, token_type, expires_at, scope)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id)
		DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_type = EXCLUDED.token_type,
			expires_at = EXCLUDED.expires_at,
			scope = EXCLUDED.scope,
			updated_at = now()
		RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		account.UserID,
		account.AccessToken,
		account.RefreshToken,
		account.TokenType,
		account.ExpiresAt,
		account.Scope,
	).Scan(&account.CreatedAt, &account.UpdatedAt)
}

// UpdateTokens replaces the token pair after a refresh exchange.
func (r *accountRepo) UpdateTokens(ctx context.Context, userID, accessToken, refreshToken, tokenType, scope string, expiresAt time.Time) error {
	query := `
		UPDATE accounts
		SET access_token = $2, refresh_token = $3, token_type = $4, scope = $5, expires_at = $6, updated_at = now()
		WHERE user_id = $1`

	_, err := r.pool.Exec(ctx, query, userID, accessToken, refreshToken, tokenType, scope, expiresAt)
	return err
}

// ClearTokens nulls the token columns on revocation. The row is kept so the
// account's connection history survives.
func (r *accountRepo) ClearTokens(ctx context.Context, userID string) error {
	query := `
		UPDATE accounts
		SET access_token = NULL, refresh_token = NULL, token_type = NULL, expires_at = NULL, scope = NULL, updated_at = now()
		WHERE user_id = $1`

	_, err := r.pool.Exec(ctx, query, userID)
	return err
}
