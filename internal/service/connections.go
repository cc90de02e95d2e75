package service

import (
	"context"
	"fmt"

	"github.com/mayabot/maya/internal/models"
)

// GetAccountConnections retrieves all of a user's secondary provider
// connections. An empty list is cached as a value.
func (s *DataService) GetAccountConnections(ctx context.Context, userID string) ([]*models.AccountConnection, error) {
	key := connectionListKey(userID)
	if value, _, ok := s.cache.Get(key); ok {
		return value.([]*models.AccountConnection), nil
	}

	conns, err := s.conns.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query connections: %w", err)
	}

	s.cache.Set(key, conns, connectionsTTL)
	return conns, nil
}

// GetAccountConnection retrieves a user's connection to a named provider, or
// nil when the provider is not linked.
func (s *DataService) GetAccountConnection(ctx context.Context, userID, connectionName string) (*models.AccountConnection, error) {
	key := connectionKey(userID, connectionName)
	if value, absent, ok := s.cache.Get(key); ok {
		if absent {
			return nil, nil
		}
		return value.(*models.AccountConnection), nil
	}

	conn, err := s.conns.GetByUserProvider(ctx, userID, connectionName)
	if err != nil {
		return nil, fmt.Errorf("failed to query connection: %w", err)
	}
	if conn == nil {
		s.cache.SetAbsent(key, absentTTL)
		return nil, nil
	}

	s.cache.Set(key, conn, connectionTTL)
	return conn, nil
}

// CreateAccountConnection links a secondary provider identity to a Discord
// user, then invalidates both connection keys so no reader within the TTL
// window sees the pre-write state.
func (s *DataService) CreateAccountConnection(ctx context.Context, conn *models.AccountConnection) error {
	if err := s.conns.Create(ctx, conn); err != nil {
		return fmt.Errorf("failed to create connection: %w", err)
	}

	s.cache.Invalidate(ctx, connectionListKey(conn.DiscordUserID))
	s.cache.Invalidate(ctx, connectionKey(conn.DiscordUserID, conn.ConnectionName))
	return nil
}

// UnlinkAccountConnection removes a user's connection to a named provider.
func (s *DataService) UnlinkAccountConnection(ctx context.Context, userID, connectionName string) error {
	if err := s.conns.Delete(ctx, userID, connectionName); err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}

	s.cache.Invalidate(ctx, connectionListKey(userID))
	s.cache.Invalidate(ctx, connectionKey(userID, connectionName))
	return nil
}

// ConnectionAccessToken returns a usable access token for a secondary
// provider connection. Providers that issue refresh tokens would renew here;
// none of the currently linked providers do.
func (s *DataService) ConnectionAccessToken(conn *models.AccountConnection) string {
	return conn.AccessToken
}
