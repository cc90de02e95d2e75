package service

import (
	"context"
	"fmt"

	"github.com/mayabot/maya/internal/models"
	"github.com/mayabot/maya/internal/pkg/token"
)

// GetSession retrieves a session by id, or nil when no such session exists.
// An empty id short-circuits to not-found without touching cache or store.
func (s *DataService) GetSession(ctx context.Context, id string) (*models.Session, error) {
	if id == "" {
		return nil, nil
	}

	key := sessionKey(id)
	if value, absent, ok := s.cache.Get(key); ok {
		if absent {
			return nil, nil
		}
		return value.(*models.Session), nil
	}

	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	if session == nil {
		s.cache.SetAbsent(key, absentTTL)
		return nil, nil
	}

	s.cache.Set(key, session, sessionTTL)
	return session, nil
}

// GetSessions retrieves all sessions belonging to a user. The list is cached
// briefly; an empty list is cached as a value, not an absent marker.
func (s *DataService) GetSessions(ctx context.Context, userID string) ([]*models.Session, error) {
	key := sessionListKey(userID)
	if value, _, ok := s.cache.Get(key); ok {
		return value.([]*models.Session), nil
	}

	sessions, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}

	s.cache.Set(key, sessions, sessionListTTL)
	return sessions, nil
}

// GetSessionByIP retrieves the session issued to a user from a given
// address, or nil when none exists.
func (s *DataService) GetSessionByIP(ctx context.Context, userID, ipAddress string) (*models.Session, error) {
	key := sessionByIPKey(userID, ipAddress)
	if value, absent, ok := s.cache.Get(key); ok {
		if absent {
			return nil, nil
		}
		return value.(*models.Session), nil
	}

	session, err := s.sessions.GetByUserIP(ctx, userID, ipAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to query session by ip: %w", err)
	}
	if session == nil {
		s.cache.SetAbsent(key, absentTTL)
		return nil, nil
	}

	s.cache.Set(key, session, sessionByIPTTL)
	return session, nil
}

// GetOrCreateSession returns the user's existing session for this address or
// creates a new one with a fresh opaque id. At most one session exists per
// (user, IP) pair.
func (s *DataService) GetOrCreateSession(ctx context.Context, userID, ipAddress, userAgent string) (*models.Session, error) {
	existing, err := s.GetSessionByIP(ctx, userID, ipAddress)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	id, err := token.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	session := &models.Session{
		ID:            id,
		DiscordUserID: userID,
		IPAddress:     ipAddress,
		UserAgent:     userAgent,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	// The by-IP lookup above may have cached a confirmed-absent marker;
	// drop it so the next call finds the row instead of creating another.
	s.cache.Invalidate(ctx, sessionByIPKey(userID, ipAddress))
	s.cache.Invalidate(ctx, sessionListKey(userID))

	return session, nil
}

// DestroySession deletes a session and evicts every key that could still
// serve it.
func (s *DataService) DestroySession(ctx context.Context, id string) error {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to query session: %w", err)
	}

	if err := s.sessions.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	s.cache.Invalidate(ctx, sessionKey(id))
	if session != nil {
		s.cache.Invalidate(ctx, sessionByIPKey(session.DiscordUserID, session.IPAddress))
		s.cache.Invalidate(ctx, sessionListKey(session.DiscordUserID))
	}
	return nil
}
