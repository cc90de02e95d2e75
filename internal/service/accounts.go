package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mayabot/maya/internal/discord"
	"github.com/mayabot/maya/internal/models"
)

// GetAccount retrieves a Discord account by user id, or nil when the user
// has never authorized.
func (s *DataService) GetAccount(ctx context.Context, userID string) (*models.Account, error) {
	key := accountKey(userID)
	if value, absent, ok := s.cache.Get(key); ok {
		if absent {
			return nil, nil
		}
		return value.(*models.Account), nil
	}

	account, err := s.accounts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}
	if account == nil {
		s.cache.SetAbsent(key, absentTTL)
		return nil, nil
	}

	s.cache.Set(key, account, accountTTL)
	return account, nil
}

// CreateAccount upserts the account row for a user after a successful code
// exchange, replacing any previous token pair, then invalidates the cache.
func (s *DataService) CreateAccount(ctx context.Context, account *models.Account) error {
	if err := s.accounts.Upsert(ctx, account); err != nil {
		return fmt.Errorf("failed to upsert account: %w", err)
	}

	s.cache.Invalidate(ctx, accountKey(account.UserID))
	return nil
}

// GetAccessToken returns a usable access token for the user, refreshing the
// stored pair synchronously when it has expired. An empty token with a nil
// error means the user has no account or their access was revoked.
//
// Concurrent callers racing the expiry check are not de-duplicated: two
// processes may both refresh and the later write wins in the store.
func (s *DataService) GetAccessToken(ctx context.Context, userID string) (string, error) {
	account, err := s.GetAccount(ctx, userID)
	if err != nil {
		return "", err
	}
	if account == nil {
		return "", nil
	}
	return s.AccessTokenFor(ctx, account)
}

// AccessTokenFor is GetAccessToken for an already-loaded account.
func (s *DataService) AccessTokenFor(ctx context.Context, account *models.Account) (string, error) {
	if account.Revoked() {
		return "", nil
	}

	if !account.Expired(s.now()) {
		return *account.AccessToken, nil
	}

	pair, err := s.discord.Refresh(ctx, *account.RefreshToken)
	if err != nil {
		return "", upstreamErr("token refresh", err)
	}

	if err := s.accounts.UpdateTokens(ctx, account.UserID,
		pair.AccessToken, pair.RefreshToken, pair.TokenType, pair.Scope, pair.ExpiresAt,
	); err != nil {
		return "", fmt.Errorf("failed to persist refreshed tokens: %w", err)
	}
	s.cache.Invalidate(ctx, accountKey(account.UserID))

	return pair.AccessToken, nil
}

// RevokeAccess revokes the user's tokens upstream and clears them in the
// store. Access-token revocation failure aborts; refresh-token revocation is
// best-effort because Discord invalidates the pair together.
func (s *DataService) RevokeAccess(ctx context.Context, userID string) error {
	account, err := s.GetAccount(ctx, userID)
	if err != nil {
		return err
	}
	if account == nil || account.Revoked() {
		return nil
	}

	if err := s.discord.RevokeToken(ctx, *account.AccessToken, "access_token"); err != nil {
		return upstreamErr("access token revocation", err)
	}

	if err := s.discord.RevokeToken(ctx, *account.RefreshToken, "refresh_token"); err != nil {
		s.logger.Debug("refresh token revocation failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.accounts.ClearTokens(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear tokens: %w", err)
	}

	s.cache.Invalidate(ctx, accountKey(userID))
	return nil
}

// GetDiscordUser fetches the Discord user profile behind an account using a
// self-healing access token. A nil user with nil error means the account is
// missing or revoked.
func (s *DataService) GetDiscordUser(ctx context.Context, userID string) (*discord.User, error) {
	accessToken, err := s.GetAccessToken(ctx, userID)
	if err != nil {
		return nil, err
	}
	if accessToken == "" {
		return nil, nil
	}

	user, err := s.discord.CurrentUser(ctx, accessToken)
	if err != nil {
		return nil, upstreamErr("fetch current user", err)
	}
	return user, nil
}
