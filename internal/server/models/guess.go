package models

import "time"

// Guess is one journaled guess. RequestID is the client's optional
// idempotency key; it is unique per username when set.
type Guess struct {
	ID           string
	Username     string
	RequestID    string
	Number       int
	ServerNumber int
	Won          bool
	TurnsAfter   int
	ScoreAfter   int
	CreatedAt    time.Time
}
