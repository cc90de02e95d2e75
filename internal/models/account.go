package models

import "time"

// Account represents a Discord identity and its OAuth token pair. Token
// columns mutate in place on refresh and are nulled on revocation; the row
// itself is never deleted so linkage history survives revocation.
type Account struct {
	UserID       string     `json:"user_id" db:"user_id"`
	AccessToken  *string    `json:"-" db:"access_token"`
	RefreshToken *string    `json:"-" db:"refresh_token"`
	TokenType    *string    `json:"token_type,omitempty" db:"token_type"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	Scope        *string    `json:"scope,omitempty" db:"scope"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// Revoked reports whether the account's tokens have been cleared.
func (a *Account) Revoked() bool {
	return a.AccessToken == nil || a.RefreshToken == nil
}

// Expired reports whether the access token is past its expiry at the given
// instant. Accounts without an expiry are treated as expired so callers are
// forced through the refresh path.
func (a *Account) Expired(now time.Time) bool {
	return a.ExpiresAt == nil || now.After(*a.ExpiresAt)
}
