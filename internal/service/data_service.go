// Package service implements the read-through data access layer. Every read
// consults the local TTL cache first and falls back to PostgreSQL; every
// write goes to PostgreSQL first and then invalidates the cache keys that
// could now be stale, in that order. The store is always the final
// authority.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mayabot/maya/internal/cache"
	"github.com/mayabot/maya/internal/discord"
	"github.com/mayabot/maya/internal/repository"
)

// ErrUpstream marks a failure reported by an upstream OAuth provider. It is
// distinct from not-found conditions, which are returned as nil values, and
// is never retried here.
var ErrUpstream = errors.New("upstream oauth provider error")

// Cache TTLs, chosen per key family for acceptable staleness. Remote
// invalidation is best-effort, so the TTL is the hard staleness bound.
const (
	sessionTTL     = 30 * time.Second
	sessionByIPTTL = 10 * time.Second
	sessionListTTL = 5 * time.Second
	accountTTL     = 30 * time.Second
	connectionTTL  = 30 * time.Second
	connectionsTTL = 30 * time.Second
	absentTTL      = 5 * time.Second
)

// DiscordClient is the slice of the Discord client the data layer needs.
type DiscordClient interface {
	Refresh(ctx context.Context, refreshToken string) (*discord.TokenPair, error)
	RevokeToken(ctx context.Context, token, hint string) error
	CurrentUser(ctx context.Context, accessToken string) (*discord.User, error)
}

// DataService composes the TTL cache, the repositories and the Discord
// client into the data access layer shared by the API and the bot.
type DataService struct {
	cache    *cache.Cache
	sessions repository.SessionRepository
	accounts repository.AccountRepository
	conns    repository.ConnectionRepository
	discord  DiscordClient
	logger   *slog.Logger

	// now is the clock used for token expiry checks; tests substitute it.
	now func() time.Time
}

// NewDataService creates the data access layer.
func NewDataService(
	c *cache.Cache,
	sessions repository.SessionRepository,
	accounts repository.AccountRepository,
	conns repository.ConnectionRepository,
	discordClient DiscordClient,
	logger *slog.Logger,
) *DataService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DataService{
		cache:    c,
		sessions: sessions,
		accounts: accounts,
		conns:    conns,
		discord:  discordClient,
		logger:   logger,
		now:      time.Now,
	}
}

func sessionKey(id string) string              { return "session:" + id }
func sessionByIPKey(userID, ip string) string  { return "session:" + userID + ":" + ip }
func sessionListKey(userID string) string      { return "sessions:" + userID }
func accountKey(userID string) string          { return "account:" + userID }
func connectionKey(userID, name string) string { return "connection:" + userID + ":" + name }
func connectionListKey(userID string) string   { return "connections:" + userID }

func upstreamErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUpstream, op, err)
}
