package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/notesnap/internal/common"
	"github.com/dmitrijs2005/notesnap/internal/httpx"
	"github.com/dmitrijs2005/notesnap/internal/logging"
	"github.com/dmitrijs2005/notesnap/internal/server/config"
	"github.com/dmitrijs2005/notesnap/internal/server/models"
	"github.com/dmitrijs2005/notesnap/internal/server/services"
)

type UserService interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, *models.User, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
}

type VerificationService interface {
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, email string) (string, error)
	SendVerificationEmail(ctx context.Context, email, token string) error
}

type PasswordResetService interface {
	RequestReset(ctx context.Context, email string) error
	VerifyResetToken(ctx context.Context, token string) error
	ResetPassword(ctx context.Context, token, password string) error
}

type ProfileService interface {
	Get(ctx context.Context, userID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID string, ch services.ProfileChanges) (*models.Profile, error)
	UpdatePassword(ctx context.Context, userID, current, next string) error
	UpdatePreferences(ctx context.Context, userID string, p services.Preferences) (*models.Profile, error)
	Delete(ctx context.Context, userID string) error
	AvatarUploadURL(ctx context.Context, userID, contentType string) (*models.AvatarUpload, error)
	ConfirmAvatar(ctx context.Context, userID, key string) (*models.Profile, error)
}

type OAuthService interface {
	Providers() []string
	Begin(provider string) (redirectURL, stateCookie string, err error)
	Complete(ctx context.Context, provider, code, state, stateCookie string) (*services.TokenPair, *models.User, error)
}

type HealthService interface {
	Check(ctx context.Context) (*services.HealthReport, error)
}

// Services groups what the handlers depend on.
type Services struct {
	Users         UserService
	Verification  VerificationService
	PasswordReset PasswordResetService
	Profile       ProfileService
	OAuth         OAuthService
	Health        HealthService
}

// Handler implements every API endpoint.
type Handler struct {
	svc    Services
	cfg    *config.Config
	logger logging.Logger
}

func NewHandler(s Services, cfg *config.Config, l logging.Logger) *Handler {
	return &Handler{svc: s, cfg: cfg, logger: l.With("module", "rest")}
}

type messageResponse struct {
	Message string `json:"message"`
}

func respondMessage(w http.ResponseWriter, msg string) error {
	httpx.RespondWithJSON(w, http.StatusOK, messageResponse{Message: msg})
	return nil
}

// clientError translates service errors into API errors. Errors it does
// not know pass through to httpx.MakeHandler unchanged.
func clientError(err error) error {
	badRequest := func(msg string) error { return httpx.ErrBadRequestWrap(msg, err) }

	switch {
	case errors.Is(err, services.ErrUserAlreadyExists):
		return badRequest("User with this email already exists")
	case errors.Is(err, services.ErrInvalidVerificationToken):
		return badRequest("Invalid verification token")
	case errors.Is(err, services.ErrVerificationTokenExpired):
		return badRequest("Verification token has expired")
	case errors.Is(err, services.ErrEmailAlreadyVerified):
		return badRequest("Email is already verified")
	case errors.Is(err, services.ErrInvalidResetToken):
		return badRequest("Invalid token")
	case errors.Is(err, services.ErrResetTokenExpired):
		return badRequest("Token has expired")
	case errors.Is(err, services.ErrSocialLoginPassword):
		return badRequest("Account uses social login. Password change not available.")
	case errors.Is(err, services.ErrIncorrectPassword):
		return badRequest("Current password is incorrect")
	case errors.Is(err, services.ErrUnsupportedImageType):
		return badRequest("Content type must be png, jpeg, gif or webp")
	case errors.Is(err, services.ErrInvalidAvatarKey):
		return badRequest("Invalid avatar key")
	case errors.Is(err, services.ErrAvatarNotUploaded):
		return badRequest("Avatar has not been uploaded")
	case errors.Is(err, services.ErrUserNotFound):
		return httpx.NewHTTPErrorWrap(http.StatusNotFound, "User not found", err)
	case errors.Is(err, services.ErrUnknownProvider):
		return httpx.NewHTTPErrorWrap(http.StatusNotFound, "Unknown provider", err)
	case errors.Is(err, common.ErrRefreshTokenExpired):
		return httpx.NewHTTPErrorWrap(http.StatusUnauthorized, "Refresh token expired", err)
	}
	return err
}

func (h *Handler) userID(r *http.Request) (string, error) {
	claims, ok := SessionFromContext(r.Context())
	if !ok {
		return "", common.ErrorUnauthorized
	}
	return claims.UserID, nil
}
