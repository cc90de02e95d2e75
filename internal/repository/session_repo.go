// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mayabot/maya/internal/models"
)

// SessionRepository defines the interface for session row operations.
type SessionRepository interface {
	GetByID(ctx context.Context, id string) (*models.Session, error)
	GetByUserIP(ctx context.Context, userID, ipAddress string) (*models.Session, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Session, error)
	Create(ctx context.Context, session *models.Session) error
	Delete(ctx context.Context, id string) error
}

type sessionRepo struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(pool *pgxpool.Pool) SessionRepository {
	return &sessionRepo{pool: pool}
}

// GetByID retrieves a session by its opaque id.
func (r *sessionRepo) GetByID(ctx context.Context, id string) (*models.Session, error) {
	query := `
		SELECT id, discord_user_id, ip_address, user_agent, created_at
		FROM session_ids WHERE id = $1`

	var s models.Session
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.DiscordUserID,
		&s.IPAddress,
		&s.UserAgent,
		&s.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByUserIP retrieves the session issued to a user from a given address.
func (r *sessionRepo) GetByUserIP(ctx context.Context, userID, ipAddress string) (*models.Session, error) {
	query := `
		SELECT id, discord_user_id, ip_address, user_agent, created_at
		FROM session_ids WHERE discord_user_id = $1 AND ip_address = $2`

	var s models.Session
	err := r.pool.QueryRow(ctx, query, userID, ipAddress).Scan(
		&s.ID,
		&s.DiscordUserID,
		&s.IPAddress,
		&s.UserAgent,
		&s.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListByUser retrieves all sessions belonging to a user.
func (r *sessionRepo) ListByUser(ctx context.Context, userID string) ([]*models.Session, error) {
	query := `
		SELECT id, discord_user_id, ip_address, user_agent, created_at
		FROM session_ids WHERE discord_user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		var s models.Session
		if err := rows.Scan(&s.ID, &s.DiscordUserID, &s.IPAddress, &s.UserAgent, &s.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}

// Create inserts a new session row.
func (r *sessionRepo) Create(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO session_ids (id, discord_user_id, ip_address, user_agent)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		session.ID,
		session.DiscordUserID,
		session.IPAddress,
		session.UserAgent,
	).Scan(&session.CreatedAt)
}

// Delete removes a session row by id.
func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM session_ids WHERE id = $1`, id)
	return err
}
