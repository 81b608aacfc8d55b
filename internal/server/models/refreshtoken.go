package models

import "time"

// RefreshToken is a server-stored, single-use token that mints new sessions.
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	Expires   time.Time
	CreatedAt time.Time
}
