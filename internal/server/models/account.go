package models

// AccountTypeOAuth is the only account type created by the service.
const AccountTypeOAuth = "oauth"

// Account links a user to an identity at an external OAuth provider.
type Account struct {
	ID                string
	UserID            string
	Type              string
	Provider          string
	ProviderAccountID string

	AccessToken  *string
	RefreshToken *string
	ExpiresAt    *int64
	TokenType    *string
	Scope        *string
	IDToken      *string
}

// AccountSummary is the public view of a linked account.
type AccountSummary struct {
	Provider string `json:"provider"`
	Type     string `json:"type"`
}
