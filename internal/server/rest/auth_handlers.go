package rest

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/notesnap/internal/common"
	"github.com/dmitrijs2005/notesnap/internal/httpx"
	"github.com/dmitrijs2005/notesnap/internal/server/models"
	"github.com/dmitrijs2005/notesnap/internal/server/services"
	"github.com/dmitrijs2005/notesnap/internal/server/validation"
	"github.com/go-chi/chi/v5"
)

const (
	msgRegistered       = "Registration successful. Please check your email for verification link."
	msgResetRequested   = "If an account with that email exists, a password reset link has been sent."
	msgPasswordReset    = "Password has been reset successfully"
	msgTokenValid       = "Token is valid"
	msgEmailVerified    = "Email verified successfully"
	msgVerificationSent = "Verification email sent successfully"
	msgLoggedOut        = "Logged out successfully"
)

type registerResponse struct {
	*models.User
	Message string `json:"message"`
}

type loginResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

type tokensResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type sessionUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
}

type sessionResponse struct {
	User    sessionUser `json:"user"`
	Expires string      `json:"expires"`
}

type providersResponse struct {
	Providers []string `json:"providers"`
}

// decodeValid decodes the JSON body into dst and validates it.
func decodeValid(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := httpx.DecodeJSON(w, r, dst); err != nil {
		return err
	}
	return validation.Validate(dst)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) error {
	var req validation.SignupRequest
	if err := decodeValid(w, r, &req); err != nil {
		return err
	}

	u, err := h.svc.Users.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return clientError(err)
	}

	httpx.RespondWithJSON(w, http.StatusCreated, registerResponse{User: u, Message: msgRegistered})
	return nil
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) error {
	var req validation.LoginRequest
	if err := decodeValid(w, r, &req); err != nil {
		return err
	}

	pair, u, err := h.svc.Users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return httpx.ErrUnauthorized("Invalid email or password")
		}
		return err
	}

	h.setSessionCookies(w, pair.AccessToken, pair.RefreshToken)
	httpx.RespondWithJSON(w, http.StatusOK, loginResponse{User: u, AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
	return nil
}

// refreshTokenFrom prefers the body and falls back to the refresh cookie.
func refreshTokenFrom(w http.ResponseWriter, r *http.Request) (string, error) {
	var req validation.RefreshRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(w, r, &req); err != nil {
			return "", err
		}
	}
	if req.RefreshToken != "" {
		return req.RefreshToken, nil
	}
	if c, err := r.Cookie(common.RefreshCookieName); err == nil {
		return c.Value, nil
	}
	return "", nil
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) error {
	token, err := refreshTokenFrom(w, r)
	if err != nil {
		return err
	}
	if token == "" {
		return httpx.ErrUnauthorized("Refresh token is required")
	}

	pair, err := h.svc.Users.RefreshToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, common.ErrRefreshTokenExpired) || errors.Is(err, common.ErrorUnauthorized) {
			h.clearSessionCookies(w)
		}
		return clientError(err)
	}

	h.setSessionCookies(w, pair.AccessToken, pair.RefreshToken)
	httpx.RespondWithJSON(w, http.StatusOK, tokensResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
	return nil
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) error {
	token, err := refreshTokenFrom(w, r)
	if err != nil {
		return err
	}
	if err := h.svc.Users.Logout(r.Context(), token); err != nil {
		return err
	}
	h.clearSessionCookies(w)
	return respondMessage(w, msgLoggedOut)
}

func (h *Handler) Session(w http.ResponseWriter, r *http.Request) error {
	claims, ok := SessionFromContext(r.Context())
	if !ok {
		return common.ErrorUnauthorized
	}

	resp := sessionResponse{
		User: sessionUser{
			ID:            claims.UserID,
			Email:         claims.Email,
			Name:          claims.Name,
			EmailVerified: claims.EmailVerified,
		},
	}
	if claims.ExpiresAt != nil {
		resp.Expires = claims.ExpiresAt.UTC().Format(time.RFC3339)
	}
	httpx.RespondWithJSON(w, http.StatusOK, resp)
	return nil
}

func (h *Handler) Providers(w http.ResponseWriter, r *http.Request) error {
	httpx.RespondWithJSON(w, http.StatusOK, providersResponse{Providers: h.svc.OAuth.Providers()})
	return nil
}

func (h *Handler) OAuthStart(w http.ResponseWriter, r *http.Request) error {
	redirect, state, err := h.svc.OAuth.Begin(chi.URLParam(r, paramProvider))
	if err != nil {
		return clientError(err)
	}

	h.setStateCookie(w, state)
	http.Redirect(w, r, redirect, http.StatusFound)
	return nil
}

// loginRedirect sends the browser back to the login page with an error
// code the front end understands.
func (h *Handler) loginRedirect(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, strings.TrimRight(h.cfg.BaseURL, "/")+"/login?error="+url.QueryEscape(code), http.StatusFound)
}

func (h *Handler) OAuthCallback(w http.ResponseWriter, r *http.Request) error {
	provider := chi.URLParam(r, paramProvider)
	q := r.URL.Query()

	var stateCookie string
	if c, err := r.Cookie(common.OAuthStateCookieName); err == nil {
		stateCookie = c.Value
	}
	h.clearStateCookie(w)

	if e := q.Get("error"); e != "" {
		h.logger.Info(r.Context(), "oauth provider returned error", "provider", provider, "error", e)
		h.loginRedirect(w, r, "OAuthCallback")
		return nil
	}

	pair, _, err := h.svc.OAuth.Complete(r.Context(), provider, q.Get("code"), q.Get("state"), stateCookie)
	switch {
	case errors.Is(err, services.ErrUnknownProvider):
		return clientError(err)
	case errors.Is(err, services.ErrOAuthAccountNotLinked):
		h.loginRedirect(w, r, "OAuthAccountNotLinked")
		return nil
	case err != nil:
		h.logger.Warn(r.Context(), "oauth callback failed", "provider", provider, "error", err)
		h.loginRedirect(w, r, "OAuthCallback")
		return nil
	}

	h.setSessionCookies(w, pair.AccessToken, pair.RefreshToken)
	http.Redirect(w, r, strings.TrimRight(h.cfg.BaseURL, "/")+"/dashboard", http.StatusFound)
	return nil
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) error {
	var req validation.ForgotPasswordRequest
	if err := decodeValid(w, r, &req); err != nil {
		return err
	}
	if err := h.svc.PasswordReset.RequestReset(r.Context(), req.Email); err != nil {
		return err
	}
	return respondMessage(w, msgResetRequested)
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) error {
	var req validation.ResetPasswordRequest
	if err := decodeValid(w, r, &req); err != nil {
		return err
	}
	if err := h.svc.PasswordReset.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		return clientError(err)
	}
	return respondMessage(w, msgPasswordReset)
}

func (h *Handler) VerifyResetToken(w http.ResponseWriter, r *http.Request) error {
	var req validation.TokenRequest
	if err := decodeValid(w, r, &req); err != nil {
		return err
	}
	if err := h.svc.PasswordReset.VerifyResetToken(r.Context(), req.Token); err != nil {
		return clientError(err)
	}
	return respondMessage(w, msgTokenValid)
}

func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) error {
	var req validation.TokenRequest
	if err := decodeValid(w, r, &req); err != nil {
		return err
	}
	if err := h.svc.Verification.VerifyEmail(r.Context(), req.Token); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return httpx.ErrBadRequestWrap("Verification failed", err)
		}
		return clientError(err)
	}
	return respondMessage(w, msgEmailVerified)
}

func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) error {
	var req validation.ResendVerificationRequest
	if err := decodeValid(w, r, &req); err != nil {
		return err
	}

	token, err := h.svc.Verification.ResendVerification(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return httpx.ErrBadRequestWrap("User not found", err)
		}
		return clientError(err)
	}
	if err := h.svc.Verification.SendVerificationEmail(r.Context(), services.NormalizeEmail(req.Email), token); err != nil {
		return httpx.ErrBadRequestWrap("Failed to send verification email", err)
	}
	return respondMessage(w, msgVerificationSent)
}
