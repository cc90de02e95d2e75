// Package lichess implements the Lichess OAuth2 client used for account
// linking. Lichess is a public PKCE client, so there is no client secret.
package lichess

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/mayabot/maya/internal/config"
)

const defaultBaseURL = "https://lichess.org"

// StatusError reports a non-2xx response from the Lichess API.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("lichess API returned status %d", e.Status)
}

// Token is the result of a code exchange. Lichess does not issue refresh
// tokens to PKCE clients unless the web scope requests them.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// Account is the subset of the Lichess account object the backend needs.
type Account struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Client talks to the Lichess OAuth2 token endpoint and account API.
type Client struct {
	oauth      *oauth2.Config
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a Lichess client.
func NewClient(cfg config.LichessConfig, baseWebURL string) *Client {
	return &Client{
		oauth: &oauth2.Config{
			ClientID: cfg.ClientID,
			Endpoint: oauth2.Endpoint{
				AuthURL:  defaultBaseURL + "/oauth",
				TokenURL: defaultBaseURL + "/api/token",
			},
			RedirectURL: baseWebURL + cfg.RedirectPath,
			Scopes:      []string{"challenge:write"},
		},
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultBaseURL,
	}
}

// NewClientWithBaseURL creates a client pointed at an alternate API base,
// primarily for testing against httptest servers.
func NewClientWithBaseURL(cfg config.LichessConfig, baseWebURL, baseURL string, httpClient *http.Client) *Client {
	c := NewClient(cfg, baseWebURL)
	c.baseURL = baseURL
	c.oauth.Endpoint = oauth2.Endpoint{
		AuthURL:  baseURL + "/oauth",
		TokenURL: baseURL + "/api/token",
	}
	if httpClient != nil {
		c.httpClient = httpClient
	}
	return c
}

// AuthCodeURL returns the authorization URL carrying the PKCE challenge.
func (c *Client) AuthCodeURL(state, codeChallenge string) string {
	return c.oauth.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

// ExchangeCode trades an authorization code plus its PKCE verifier for an
// access token.
func (c *Client) ExchangeCode(ctx context.Context, code, codeVerifier string) (*Token, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"code_verifier": {codeVerifier},
		"redirect_uri":  {c.oauth.RedirectURL},
		"client_id":     {c.oauth.ClientID},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.oauth.Endpoint.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lichess token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Status: resp.StatusCode}
	}

	var body struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode lichess token response: %w", err)
	}

	return &Token{
		AccessToken: body.AccessToken,
		TokenType:   body.TokenType,
		ExpiresAt:   time.Now().Add(time.Duration(body.ExpiresIn) * time.Second),
	}, nil
}

// CurrentAccount fetches the account the bearer token belongs to.
func (c *Client) CurrentAccount(ctx context.Context, accessToken string) (*Account, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/account", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build account request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch lichess account: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Status: resp.StatusCode}
	}

	var account Account
	if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
		return nil, fmt.Errorf("failed to decode lichess account response: %w", err)
	}
	return &account, nil
}
