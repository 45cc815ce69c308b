package models

import "time"

// User is a guild member who completed email verification. The Discord
// snowflake is the primary key; there is no separate account id.
type User struct {
	DiscordID          int64      `json:"discord_id"`
	Username           string     `json:"username"`
	Email              string     `json:"email"`
	IsAdmin            bool       `json:"is_admin"`
	JoinedAt           time.Time  `json:"joined_at"`
	LastTalked         time.Time  `json:"last_talked"`
	FlaggedForDeletion *time.Time `json:"flagged_for_deletion,omitempty"`
}

// Inactive reports whether the user has not spoken since the cutoff.
func (u *User) Inactive(cutoff time.Time) bool {
	return u.LastTalked.Before(cutoff)
}

// FlaggedBefore reports whether the user was flagged for deletion before the
// cutoff. Unflagged users are never due for removal.
func (u *User) FlaggedBefore(cutoff time.Time) bool {
	return u.FlaggedForDeletion != nil && u.FlaggedForDeletion.Before(cutoff)
}
