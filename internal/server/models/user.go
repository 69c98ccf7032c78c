package models

import "time"

// User is a player account together with its ledger counters.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Email        string
	Role         string
	Turns        int
	Score        int
	CreatedAt    time.Time
}

// LeaderboardEntry is the public projection of a user shown on the leaderboard.
type LeaderboardEntry struct {
	Username string
	Score    int
}
