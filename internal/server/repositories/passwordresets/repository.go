// Package passwordresets declares the repository contract for password
// reset tokens. There is at most one token per email.
package passwordresets

import (
	"context"
	"time"

	"github.com/dmitrijs2005/notesnap/internal/server/models"
)

type Repository interface {
	// Upsert replaces any existing token for email with token.
	Upsert(ctx context.Context, email, token string, expires time.Time) error

	// Find returns the token row or common.ErrorNotFound.
	Find(ctx context.Context, token string) (*models.PasswordResetToken, error)

	Delete(ctx context.Context, token string) error

	// Consume deletes token, returning common.ErrorNotFound when it was
	// already gone. Use it when the token is being redeemed.
	Consume(ctx context.Context, token string) error
	DeleteByEmail(ctx context.Context, email string) error
}
