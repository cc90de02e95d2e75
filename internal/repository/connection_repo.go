package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mayabot/maya/internal/models"
)

// ConnectionRepository defines the interface for account connection rows.
type ConnectionRepository interface {
	GetByUserProvider(ctx context.Context, userID, connectionName string) (*models.AccountConnection, error)
	ListByUser(ctx context.Context, userID string) ([]*models.AccountConnection, error)
	Create(ctx context.Context, conn *models.AccountConnection) error
	Delete(ctx context.Context, userID, connectionName string) error
}

type connectionRepo struct {
	pool *pgxpool.Pool
}

// NewConnectionRepository creates a new connection repository.
func NewConnectionRepository(pool *pgxpool.Pool) ConnectionRepository {
	return &connectionRepo{pool: pool}
}

// GetByUserProvider retrieves a user's connection to a named provider.
func (r *connectionRepo) GetByUserProvider(ctx context.Context, userID, connectionName string) (*models.AccountConnection, error) {
	query := `
		SELECT discord_user_id, connection_name, user_id, access_token, refresh_token, created_at
		FROM account_connections
		WHERE discord_user_id = $1 AND connection_name = $2`

	var c models.AccountConnection
	err := r.pool.QueryRow(ctx, query, userID, connectionName).Scan(
		&c.DiscordUserID,
		&c.ConnectionName,
		&c.UserID,
		&c.AccessToken,
		&c.RefreshToken,
		&c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByUser retrieves all of a user's provider connections.
func (r *connectionRepo) ListByUser(ctx context.Context, userID string) ([]*models.AccountConnection, error) {
	query := `
		SELECT discord_user_id, connection_name, user_id, access_token, refresh_token, created_at
		FROM account_connections
		WHERE discord_user_id = $1
		ORDER BY connection_name`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conns []*models.AccountConnection
	for rows.Next() {
		var c models.AccountConnection
		if err := rows.Scan(&c.DiscordUserID, &c.ConnectionName, &c.UserID, &c.AccessToken, &c.RefreshToken, &c.CreatedAt); err != nil {
			return nil, err
		}
		conns = append(conns, &c)
	}
	return conns, rows.Err()
}

// Create inserts a new connection row.
func (r *connectionRepo) Create(ctx context.Context, conn *models.AccountConnection) error {
	query := `
		INSERT INTO account_connections (discord_user_id, connection_name, user_id, access_token, refresh_token)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		conn.DiscordUserID,
		conn.ConnectionName,
		conn.UserID,
		conn.AccessToken,
		conn.RefreshToken,
	).Scan(&conn.CreatedAt)
}

// Delete removes a user's connection to a named provider.
func (r *connectionRepo) Delete(ctx context.Context, userID, connectionName string) error {
	query := `
		DELETE FROM account_connections
		WHERE discord_user_id = $1 AND connection_name = $2`

	_, err := r.pool.Exec(ctx, query, userID, connectionName)
	return err
}
