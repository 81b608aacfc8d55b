// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account holder. Password is the bcrypt hash and is nil for
// users that only ever signed in through an OAuth provider.
type User struct {
	ID            string     `json:"id"`
	Name          *string    `json:"name"`
	Email         string     `json:"email"`
	EmailVerified *time.Time `json:"emailVerified"`
	Image         *string    `json:"image"`
	Password      *string    `json:"-"`

	Bio     *string `json:"bio"`
	Website *string `json:"website"`
	GitHub  *string `json:"github"`

	EmailNotifications bool `json:"emailNotifications"`
	PublicProfile      bool `json:"publicProfile"`
	ShareAnalytics     bool `json:"shareAnalytics"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasPassword reports whether the user can sign in with credentials.
func (u *User) HasPassword() bool {
	return u.Password != nil && *u.Password != ""
}

// IsEmailVerified reports whether the email address has been confirmed.
func (u *User) IsEmailVerified() bool {
	return u.EmailVerified != nil
}
