package models

import "time"

// AccountConnection links a Discord account to a secondary provider identity
// (for example lichess). Zero-or-one row exists per (user, provider) pair;
// rows are created on linking and deleted on unlinking.
type AccountConnection struct {
	DiscordUserID  string    `json:"discord_user_id" db:"discord_user_id"`
	ConnectionName string    `json:"connection_name" db:"connection_name"`
	UserID         string    `json:"user_id" db:"user_id"`
	AccessToken    string    `json:"-" db:"access_token"`
	RefreshToken   *string   `json:"-" db:"refresh_token"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
