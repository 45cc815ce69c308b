package models

import "time"

// Challenge is a CTF-style puzzle with a secret flag and a point value.
// Hidden challenges are staged but not yet published; depreciated challenges
// remain visible but award no points.
type Challenge struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Content      string    `json:"content"`
	Flag         string    `json:"-"`
	Points       int       `json:"points"`
	Hidden       bool      `json:"hidden"`
	Depreciated  bool      `json:"depreciated"`
	CreationDate time.Time `json:"creation_date"`
	EditDate     time.Time `json:"edit_date"`
}

// Solve records a user completing a challenge.
type Solve struct {
	DiscordID   int64     `json:"discord_id"`
	ChallengeID int64     `json:"challenge_id"`
	ClaimedAt   time.Time `json:"claimed_at"`
}

// LeaderboardEntry is one row of the challenge leaderboard, ranked by total
// points with ties sharing a rank.
type LeaderboardEntry struct {
	Rank      int
	DiscordID int64
	Score     int
	Solves    int
}

// SolveCount pairs a challenge title with how many users have solved it.
type SolveCount struct {
	Title  string
	Solves int
}
