package common

const (
	// SessionCookieName is the HttpOnly cookie carrying the access token.
	SessionCookieName = "notesnap_session"

	// RefreshCookieName carries the refresh token, scoped to /api/auth.
	RefreshCookieName = "notesnap_refresh"

	// OAuthStateCookieName carries the signed OAuth state between the
	// provider redirect and its callback.
	OAuthStateCookieName = "notesnap_oauth_state"

	// TokenBytes is the amount of entropy in verification, reset and
	// refresh tokens before hex encoding.
	TokenBytes = 32
)
