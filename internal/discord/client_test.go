package discord

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mayabot/maya/internal/config"
)

func testConfig() config.DiscordConfig {
	return config.DiscordConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectPath: "/auth/discord/callback",
	}
}

func TestRefreshRotatesTokenPair(t *testing.T) {
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/oauth2/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"grant_type":    r.PostFormValue("grant_type"),
			"refresh_token": r.PostFormValue("refresh_token"),
			"client_id":     r.PostFormValue("client_id"),
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "new-access",
			"refresh_token": "new-refresh",
			"token_type":    "Bearer",
			"scope":         "identify",
			"expires_in":    3600,
		})
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(testConfig(), "https://maya.example", srv.URL, srv.Client())

	pair, err := c.Refresh(context.Background(), "old-refresh")
	require.NoError(t, err)

	assert.Equal(t, "refresh_token", gotForm["grant_type"])
	assert.Equal(t, "old-refresh", gotForm["refresh_token"])
	assert.Equal(t, "client-id", gotForm["client_id"])

	assert.Equal(t, "new-access", pair.AccessToken)
	assert.Equal(t, "new-refresh", pair.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(time.Hour), pair.ExpiresAt, 5*time.Second)
}

func TestRefreshRejectedTokenReturnsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(testConfig(), "https://maya.example", srv.URL, srv.Client())

	_, err := c.Refresh(context.Background(), "revoked-refresh")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.Status)
}

func TestRevokeTokenSendsHint(t *testing.T) {
	var gotHint, gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/oauth2/token/revoke", r.URL.Path)
		require.NoError(t, r.ParseForm())
		gotHint = r.PostFormValue("token_type_hint")
		gotToken = r.PostFormValue("token")
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(testConfig(), "https://maya.example", srv.URL, srv.Client())

	require.NoError(t, c.RevokeToken(context.Background(), "the-token", "access_token"))
	assert.Equal(t, "access_token", gotHint)
	assert.Equal(t, "the-token", gotToken)
}

func TestCurrentUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/@me", r.URL.Path)
		require.Equal(t, "Bearer access-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(User{ID: "user-1", Username: "maya", GlobalName: "Maya"})
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(testConfig(), "https://maya.example", srv.URL, srv.Client())

	user, err := c.CurrentUser(context.Background(), "access-token")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, "maya", user.Username)
}

func TestCurrentUserUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(testConfig(), "https://maya.example", srv.URL, srv.Client())

	_, err := c.CurrentUser(context.Background(), "expired-token")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.Status)
}

func TestAuthCodeURLCarriesState(t *testing.T) {
	c := NewClient(testConfig(), "https://maya.example")

	u := c.AuthCodeURL("opaque-state")
	assert.Contains(t, u, "state=opaque-state")
	assert.Contains(t, u, "client_id=client-id")
	assert.Contains(t, u, "identify")
}
