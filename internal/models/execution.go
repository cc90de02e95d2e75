package models

import "time"

// ExecutionState is the persisted progress of one command execution: the
// slash-command invocation plus all of its subsequent button interactions.
// The state blob is opaque to the store; only the dispatcher interprets it.
type ExecutionState struct {
	ExecutionID    string    `json:"execution_id" db:"execution_id"`
	DiscordUserID  string    `json:"discord_user_id" db:"discord_user_id"`
	GuildID        string    `json:"guild_id" db:"guild_id"`
	CommandName    string    `json:"command_name" db:"command_name"`
	CommandVersion string    `json:"command_version" db:"command_version"`
	State          string    `json:"state" db:"interaction_state"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
