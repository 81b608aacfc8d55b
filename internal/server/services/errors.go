package services

import "errors"

// Domain errors returned by the services. Handlers translate them into
// client-facing messages.
var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	ErrInvalidVerificationToken = errors.New("invalid verification token")
	ErrVerificationTokenExpired = errors.New("verification token expired")
	ErrEmailAlreadyVerified     = errors.New("email already verified")

	ErrInvalidResetToken = errors.New("invalid reset token")
	ErrResetTokenExpired = errors.New("reset token expired")

	ErrSocialLoginPassword = errors.New("account uses social login")
	ErrIncorrectPassword   = errors.New("current password is incorrect")

	ErrUnknownProvider       = errors.New("unknown oauth provider")
	ErrInvalidOAuthState     = errors.New("invalid oauth state")
	ErrOAuthAccountNotLinked = errors.New("oauth account not linked")

	ErrMailDelivery = errors.New("failed to send email")
)
