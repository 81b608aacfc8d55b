// Package users declares the server-side repository contract for user rows.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/notesnap/internal/server/models"
)

// Repository defines persistence operations for users. Lookups of missing
// rows return common.ErrorNotFound; a duplicate email on Create returns
// common.ErrorAlreadyExists.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	UpdateProfile(ctx context.Context, id string, name, bio, website, github *string) (*models.User, error)
	UpdatePreferences(ctx context.Context, id string, emailNotifications, publicProfile, shareAnalytics bool) (*models.User, error)
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	// UpdatePasswordByEmail sets the hash for the user owning email and returns its id.
	UpdatePasswordByEmail(ctx context.Context, email string, passwordHash string) (string, error)
	UpdateImage(ctx context.Context, id string, image string) error
	MarkEmailVerified(ctx context.Context, email string, at time.Time) error

	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}
