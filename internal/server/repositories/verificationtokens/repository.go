// Package verificationtokens declares the repository contract for email
// verification tokens.
package verificationtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/notesnap/internal/server/models"
)

type Repository interface {
	// Create stores token for identifier, valid until expires.
	Create(ctx context.Context, identifier, token string, expires time.Time) error

	// Find returns the token row or common.ErrorNotFound.
	Find(ctx context.Context, token string) (*models.VerificationToken, error)

	// Delete removes one token. Missing tokens are not an error.
	Delete(ctx context.Context, token string) error

	// Consume deletes token, returning common.ErrorNotFound when it was
	// already gone. Use it when the token is being redeemed.
	Consume(ctx context.Context, token string) error

	// DeleteByIdentifier removes every token issued for identifier.
	DeleteByIdentifier(ctx context.Context, identifier string) error
}
