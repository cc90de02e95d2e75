// Package discord implements the Discord OAuth2 and user API client used by
// the data access layer and the auth handlers.
package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/mayabot/maya/internal/config"
)

const defaultAPIBaseURL = "https://discord.com/api/v9"

// StatusError reports a non-2xx response from the Discord API.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("discord API returned status %d", e.Status)
}

// TokenPair is the result of a code exchange or refresh grant.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Scope        string
	ExpiresAt    time.Time
}

// User is the subset of the Discord user object the backend needs.
type User struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
	GlobalName    string `json:"global_name"`
	Avatar        string `json:"avatar"`
}

// Client talks to Discord's OAuth2 token endpoints and user API.
type Client struct {
	oauth      *oauth2.Config
	httpClient *http.Client
	apiBaseURL string
}

// NewClient creates a Discord client. The redirect URL is the web frontend's
// callback, assembled from the configured base URL.
func NewClient(cfg config.DiscordConfig, baseWebURL string) *Client {
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoints.Discord,
			RedirectURL:  baseWebURL + cfg.RedirectPath,
			Scopes:       []string{"identify"},
		},
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiBaseURL: defaultAPIBaseURL,
	}
}

// NewClientWithBaseURL creates a client pointed at an alternate API base.
// This is primarily used for testing against httptest servers.
func NewClientWithBaseURL(cfg config.DiscordConfig, baseWebURL, apiBaseURL string, httpClient *http.Client) *Client {
	c := NewClient(cfg, baseWebURL)
	c.apiBaseURL = apiBaseURL
	c.oauth.Endpoint = oauth2.Endpoint{
		AuthURL:   apiBaseURL + "/oauth2/authorize",
		TokenURL:  apiBaseURL + "/oauth2/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
	if httpClient != nil {
		c.httpClient = httpClient
	}
	return c
}

// AuthCodeURL returns the authorization URL for the log-in flow.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// ExchangeCode trades an authorization code for a token pair.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenPair, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		if rerr, ok := err.(*oauth2.RetrieveError); ok {
			return nil, &StatusError{Status: rerr.Response.StatusCode}
		}
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	scope, _ := tok.Extra("scope").(string)
	return &TokenPair{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Scope:        scope,
		ExpiresAt:    tok.Expiry,
	}, nil
}

// Refresh trades a refresh token for a new token pair. Discord rotates the
// refresh token on every grant, so callers must persist the returned pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	form := url.Values{
		"client_id":     {c.oauth.ClientID},
		"client_secret": {c.oauth.ClientSecret},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}

	var body struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
		Scope        string `json:"scope"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	if err := c.postForm(ctx, c.oauth.Endpoint.TokenURL, form, &body); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  body.AccessToken,
		RefreshToken: body.RefreshToken,
		TokenType:    body.TokenType,
		Scope:        body.Scope,
		ExpiresAt:    time.Now().Add(time.Duration(body.ExpiresIn) * time.Second),
	}, nil
}

// RevokeToken revokes a single token. hint is "access_token" or
// "refresh_token" per RFC 7009.
func (c *Client) RevokeToken(ctx context.Context, token, hint string) error {
	form := url.Values{
		"client_id":       {c.oauth.ClientID},
		"client_secret":   {c.oauth.ClientSecret},
		"token":           {token},
		"token_type_hint": {hint},
	}
	return c.postForm(ctx, c.apiBaseURL+"/oauth2/token/revoke", form, nil)
}

// CurrentUser fetches the user the bearer token belongs to.
func (c *Client) CurrentUser(ctx context.Context, accessToken string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBaseURL+"/users/@me", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build user request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch discord user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Status: resp.StatusCode}
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode discord user response: %w", err)
	}
	return &user, nil
}

// postForm sends a form-encoded POST and decodes the JSON response into out
// when out is non-nil.
func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Status: resp.StatusCode}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
	}
	return nil
}
