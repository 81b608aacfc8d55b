package rest

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/notesnap/internal/common"
)

const (
	refreshCookiePath = "/api/auth"
	oauthCookiePath   = "/api/auth/oauth"
	oauthStateMaxAge  = 10 * time.Minute
)

func (h *Handler) cookie(name, value, path string, maxAge time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.cfg.CookieSecure,
	}
	if maxAge > 0 {
		c.MaxAge = int(maxAge.Seconds())
		c.Expires = time.Now().Add(maxAge)
	} else {
		c.MaxAge = -1
	}
	return c
}

func (h *Handler) setSessionCookies(w http.ResponseWriter, accessToken, refreshToken string) {
	http.SetCookie(w, h.cookie(common.SessionCookieName, accessToken, "/", h.cfg.AccessTokenValidityDuration))
	http.SetCookie(w, h.cookie(common.RefreshCookieName, refreshToken, refreshCookiePath, h.cfg.RefreshTokenValidityDuration))
}

func (h *Handler) clearSessionCookies(w http.ResponseWriter) {
	http.SetCookie(w, h.cookie(common.SessionCookieName, "", "/", 0))
	http.SetCookie(w, h.cookie(common.RefreshCookieName, "", refreshCookiePath, 0))
}

func (h *Handler) setStateCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, h.cookie(common.OAuthStateCookieName, value, oauthCookiePath, oauthStateMaxAge))
}

func (h *Handler) clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, h.cookie(common.OAuthStateCookieName, "", oauthCookiePath, 0))
}
