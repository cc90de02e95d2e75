// Package models defines the persistent data structures shared by the
// repositories and services.
package models

import "time"

// Session represents an authenticated browser session. One session may exist
// per (user, IP) pair; the id is an opaque cryptographically random token.
type Session struct {
	ID            string    `json:"id" db:"id"`
	DiscordUserID string    `json:"discord_user_id" db:"discord_user_id"`
	IPAddress     string    `json:"ip_address" db:"ip_address"`
	UserAgent     string    `json:"user_agent" db:"user_agent"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
