package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mayabot/maya/internal/models"
)

// ExecutionRepository defines the interface for persisted execution state.
// The interaction_state column is an opaque blob; only the dispatcher
// interprets it.
type ExecutionRepository interface {
	GetByID(ctx context.Context, executionID string) (*models.ExecutionState, error)
	Create(ctx context.Context, state *models.ExecutionState) error
	UpdateState(ctx context.Context, executionID, state string) error
}

type executionRepo struct {
	pool *pgxpool.Pool
}

// NewExecutionRepository creates a new execution state repository.
func NewExecutionRepository(pool *pgxpool.Pool) ExecutionRepository {
	return &executionRepo{pool: pool}
}

// GetByID retrieves an execution state by its opaque id.
func (r *executionRepo) GetByID(ctx context.Context, executionID string) (*models.ExecutionState, error) {
	query := `
		SELECT execution_id, discord_user_id, guild_id, command_name, command_version, interaction_state, created_at, updated_at
		FROM execution_states WHERE execution_id = $1`

	var s models.ExecutionState
	err := r.pool.QueryRow(ctx, query, executionID).Scan(
		&s.ExecutionID,
		&s.DiscordUserID,
		&s.GuildID,
		&s.CommandName,
		&s.CommandVersion,
		&s.State,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a new execution state row.
func (r *executionRepo) Create(ctx context.Context, state *models.ExecutionState) error {
	query := `
		INSERT INTO execution_states (execution_id, discord_user_id, guild_id, command_name, command_version, interaction_state)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		state.ExecutionID,
		state.DiscordUserID,
		state.GuildID,
		state.CommandName,
		state.CommandVersion,
		state.State,
	).Scan(&state.CreatedAt, &state.UpdatedAt)
}

// UpdateState replaces the serialized state blob after a button interaction.
func (r *executionRepo) UpdateState(ctx context.Context, executionID, state string) error {
	query := `
		UPDATE execution_states
		SET interaction_state = $2, updated_at = now()
		WHERE execution_id = $1`

	_, err := r.pool.Exec(ctx, query, executionID, state)
	return err
}
