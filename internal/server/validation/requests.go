package validation

// SignupRequest is the body of POST /api/auth/register. ConfirmPassword
// may be omitted by API clients but must match when sent.
type SignupRequest struct {
	Name            string `json:"name" validate:"required,max=100" msg:"required=Name is required;max=Name must be less than 100 characters"`
	Email           string `json:"email" validate:"required,email" msg:"required=Invalid email address;email=Invalid email address"`
	Password        string `json:"password" validate:"required,min=8" msg:"required=Password must be at least 8 characters;min=Password must be at least 8 characters"`
	ConfirmPassword string `json:"confirmPassword" validate:"omitempty,eqfield=Password" msg:"eqfield=Passwords don't match"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" msg:"required=Invalid email address;email=Invalid email address"`
	Password string `json:"password" validate:"required" msg:"required=Password is required"`
}

// RefreshRequest may be empty when the refresh token travels in a cookie.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email" msg:"required=Email is required;email=Invalid email address"`
}

type ResetPasswordRequest struct {
	Token           string `json:"token" validate:"required" msg:"required=Token is required"`
	Password        string `json:"password" validate:"required,min=8" msg:"required=Password must be at least 8 characters;min=Password must be at least 8 characters"`
	ConfirmPassword string `json:"confirmPassword" validate:"omitempty,eqfield=Password" msg:"eqfield=Passwords don't match"`
}

// TokenRequest carries a single token, used by email verification and
// reset-token checks.
type TokenRequest struct {
	Token string `json:"token" validate:"required" msg:"required=Token is required"`
}

type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email" msg:"required=Email is required;email=Invalid email address"`
}

type UpdateProfileRequest struct {
	Name    string  `json:"name" validate:"required,max=100" msg:"required=Name is required;max=Name must be less than 100 characters"`
	Bio     *string `json:"bio" validate:"omitempty,max=500" msg:"max=Bio must be less than 500 characters"`
	Website *string `json:"website" validate:"omitempty,url" msg:"url=Invalid website URL"`
	GitHub  *string `json:"github"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required" msg:"required=Current password is required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8" msg:"required=New password must be at least 8 characters;min=New password must be at least 8 characters"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword" msg:"required=Password confirmation is required;eqfield=New passwords don't match"`
}

// UpdatePreferencesRequest uses pointers so that false is distinguishable
// from a missing field.
type UpdatePreferencesRequest struct {
	EmailNotifications *bool `json:"emailNotifications" validate:"required" msg:"required=emailNotifications is required"`
	PublicProfile      *bool `json:"publicProfile" validate:"required" msg:"required=publicProfile is required"`
	ShareAnalytics     *bool `json:"shareAnalytics" validate:"required" msg:"required=shareAnalytics is required"`
}

type AvatarUploadRequest struct {
	ContentType string `json:"contentType" validate:"required,oneof=image/png image/jpeg image/gif image/webp" msg:"required=Content type is required;oneof=Content type must be png, jpeg, gif or webp"`
}

type AvatarConfirmRequest struct {
	Key string `json:"key" validate:"required" msg:"required=Key is required"`
}
