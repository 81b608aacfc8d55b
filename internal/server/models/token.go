package models

import "time"

// VerificationToken proves ownership of Identifier (an email address).
type VerificationToken struct {
	Identifier string
	Token      string
	Expires    time.Time
}

// PasswordResetToken allows setting a new password for Email. There is at
// most one per email.
type PasswordResetToken struct {
	ID        string
	Email     string
	Token     string
	Expires   time.Time
	CreatedAt time.Time
}
