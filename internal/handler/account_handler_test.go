package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mayabot/maya/internal/cache"
	"github.com/mayabot/maya/internal/discord"
	"github.com/mayabot/maya/internal/middleware"
	"github.com/mayabot/maya/internal/models"
	"github.com/mayabot/maya/internal/service"
)

type stubSessionRepo struct {
	sessions map[string]*models.Session
	deleted  []string
}

func (s *stubSessionRepo) GetByID(ctx context.Context, id string) (*models.Session, error) {
	return s.sessions[id], nil
}

func (s *stubSessionRepo) GetByUserIP(ctx context.Context, userID, ip string) (*models.Session, error) {
	for _, sess := range s.sessions {
		if sess.DiscordUserID == userID && sess.IPAddress == ip {
			return sess, nil
		}
	}
	return nil, nil
}

func (s *stubSessionRepo) ListByUser(ctx context.Context, userID string) ([]*models.Session, error) {
	var out []*models.Session
	for _, sess := range s.sessions {
		if sess.DiscordUserID == userID {
			out = append(out, sess)
		}
	}
	return out, nil
}

func (s *stubSessionRepo) Create(ctx context.Context, sess *models.Session) error {
	s.sessions[sess.ID] = sess
	return nil
}

func (s *stubSessionRepo) Delete(ctx context.Context, id string) error {
	delete(s.sessions, id)
	s.deleted = append(s.deleted, id)
	return nil
}

type stubAccountRepo struct {
	accounts map[string]*models.Account
}

func (s *stubAccountRepo) GetByUserID(ctx context.Context, userID string) (*models.Account, error) {
	return s.accounts[userID], nil
}

func (s *stubAccountRepo) Upsert(ctx context.Context, account *models.Account) error {
	s.accounts[account.UserID] = account
	return nil
}

func (s *stubAccountRepo) UpdateTokens(ctx context.Context, userID, accessToken, refreshToken, tokenType, scope string, expiresAt time.Time) error {
	acct := s.accounts[userID]
	acct.AccessToken = &accessToken
	acct.RefreshToken = &refreshToken
	acct.ExpiresAt = &expiresAt
	return nil
}

func (s *stubAccountRepo) ClearTokens(ctx context.Context, userID string) error {
	acct := s.accounts[userID]
	acct.AccessToken = nil
	acct.RefreshToken = nil
	return nil
}

type stubConnRepo struct {
	conns []*models.AccountConnection
}

func (s *stubConnRepo) GetByUserProvider(ctx context.Context, userID, name string) (*models.AccountConnection, error) {
	for _, c := range s.conns {
		if c.DiscordUserID == userID && c.ConnectionName == name {
			return c, nil
		}
	}
	return nil, nil
}

func (s *stubConnRepo) ListByUser(ctx context.Context, userID string) ([]*models.AccountConnection, error) {
	var out []*models.AccountConnection
	for _, c := range s.conns {
		if c.DiscordUserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubConnRepo) Create(ctx context.Context, conn *models.AccountConnection) error {
	s.conns = append(s.conns, conn)
	return nil
}

func (s *stubConnRepo) Delete(ctx context.Context, userID, name string) error {
	kept := s.conns[:0]
	for _, c := range s.conns {
		if c.DiscordUserID != userID || c.ConnectionName != name {
			kept = append(kept, c)
		}
	}
	s.conns = kept
	return nil
}

type stubDiscord struct {
	user *discord.User
}

func (s *stubDiscord) Refresh(ctx context.Context, refreshToken string) (*discord.TokenPair, error) {
	future := time.Now().Add(time.Hour)
	return &discord.TokenPair{
		AccessToken:  "refreshed-access",
		RefreshToken: "refreshed-refresh",
		TokenType:    "Bearer",
		ExpiresAt:    future,
	}, nil
}

func (s *stubDiscord) RevokeToken(ctx context.Context, token, hint string) error { return nil }

func (s *stubDiscord) CurrentUser(ctx context.Context, accessToken string) (*discord.User, error) {
	return s.user, nil
}

type handlerFixture struct {
	sessions *stubSessionRepo
	accounts *stubAccountRepo
	conns    *stubConnRepo
	data     *service.DataService
}

func newHandlerFixture() *handlerFixture {
	access, refresh := "access-token", "refresh-token"
	expires := time.Now().Add(time.Hour)

	sessions := &stubSessionRepo{sessions: map[string]*models.Session{
		"sess-1": {ID: "sess-1", DiscordUserID: "user-1", IPAddress: "10.0.0.1", UserAgent: "test-agent"},
		"sess-2": {ID: "sess-2", DiscordUserID: "user-1", IPAddress: "10.0.0.2", UserAgent: "test-agent"},
		"sess-x": {ID: "sess-x", DiscordUserID: "user-2", IPAddress: "10.0.0.3", UserAgent: "test-agent"},
	}}
	accounts := &stubAccountRepo{accounts: map[string]*models.Account{
		"user-1": {UserID: "user-1", AccessToken: &access, RefreshToken: &refresh, ExpiresAt: &expires},
	}}
	conns := &stubConnRepo{conns: []*models.AccountConnection{
		{DiscordUserID: "user-1", ConnectionName: "lichess", UserID: "lichess-1", AccessToken: "li-token"},
	}}

	data := service.NewDataService(
		cache.New("test", nil, nil),
		sessions, accounts, conns,
		&stubDiscord{user: &discord.User{ID: "user-1", Username: "maya"}},
		nil,
	)
	return &handlerFixture{sessions: sessions, accounts: accounts, conns: conns, data: data}
}

func doAccount(t *testing.T, f *handlerFixture, method, path string) *httptest.ResponseRecorder {
	t.Helper()

	r := chi.NewRouter()
	r.Mount("/account", NewAccountHandler(f.data, nil).Routes())

	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("X-Real-IP", "10.0.0.1")
	req.Header.Set("User-Agent", "test-agent")
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: "sess-1"})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAccountMe(t *testing.T) {
	rec := doAccount(t, newHandlerFixture(), http.MethodGet, "/account/me")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"maya"`)
}

func TestAccountMeRevoked(t *testing.T) {
	f := newHandlerFixture()
	f.accounts.accounts["user-1"].AccessToken = nil
	f.accounts.accounts["user-1"].RefreshToken = nil

	rec := doAccount(t, f, http.MethodGet, "/account/me")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "no_discord_account")
}

func TestAccountConnections(t *testing.T) {
	rec := doAccount(t, newHandlerFixture(), http.MethodGet, "/account/connections")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"connection_name":"lichess"`)
}

func TestAccountSessions(t *testing.T) {
	rec := doAccount(t, newHandlerFixture(), http.MethodGet, "/account/sessions")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sess-1")
	assert.Contains(t, rec.Body.String(), "sess-2")
	assert.NotContains(t, rec.Body.String(), "sess-x")
}

func TestAccountDestroyOwnSession(t *testing.T) {
	f := newHandlerFixture()

	rec := doAccount(t, f, http.MethodDelete, "/account/sessions/sess-2")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"sess-2"}, f.sessions.deleted)
}

func TestAccountDestroyForeignSessionRejected(t *testing.T) {
	f := newHandlerFixture()

	rec := doAccount(t, f, http.MethodDelete, "/account/sessions/sess-x")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.Empty(t, f.sessions.deleted)
	assert.NotNil(t, f.sessions.sessions["sess-x"])
}

func TestAccountUnauthenticated(t *testing.T) {
	f := newHandlerFixture()

	r := chi.NewRouter()
	r.Mount("/account", NewAccountHandler(f.data, nil).Routes())

	req := httptest.NewRequest(http.MethodGet, "/account/me", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "no_session_data")
}
