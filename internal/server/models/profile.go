package models

import "time"

// Profile is the user as shown on the profile page. Optional text fields
// are rendered as empty strings.
type Profile struct {
	ID            string     `json:"id"`
	Name          *string    `json:"name"`
	Email         string     `json:"email"`
	Image         *string    `json:"image"`
	Bio           string     `json:"bio"`
	Website       string     `json:"website"`
	GitHub        string     `json:"github"`
	EmailVerified *time.Time `json:"emailVerified"`

	EmailNotifications bool `json:"emailNotifications"`
	PublicProfile      bool `json:"publicProfile"`
	ShareAnalytics     bool `json:"shareAnalytics"`

	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
	Accounts  []AccountSummary `json:"accounts"`
}

// NewProfile builds a Profile from a user row and its linked accounts.
func NewProfile(u *User, accounts []AccountSummary) *Profile {
	if accounts == nil {
		accounts = []AccountSummary{}
	}
	return &Profile{
		ID:                 u.ID,
		Name:               u.Name,
		Email:              u.Email,
		Image:              u.Image,
		Bio:                deref(u.Bio),
		Website:            deref(u.Website),
		GitHub:             deref(u.GitHub),
		EmailVerified:      u.EmailVerified,
		EmailNotifications: u.EmailNotifications,
		PublicProfile:      u.PublicProfile,
		ShareAnalytics:     u.ShareAnalytics,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
		Accounts:           accounts,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
