// Package accounts declares the repository contract for OAuth account links.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/notesnap/internal/server/models"
)

// Repository stores links between users and OAuth provider identities.
type Repository interface {
	// Create inserts a link. A duplicate (provider, providerAccountID) yields
	// common.ErrorAlreadyExists.
	Create(ctx context.Context, account *models.Account) error

	// FindByProvider returns the link for a provider identity or common.ErrorNotFound.
	FindByProvider(ctx context.Context, provider, providerAccountID string) (*models.Account, error)

	// ListByUser returns the provider and type of every link owned by userID.
	ListByUser(ctx context.Context, userID string) ([]models.AccountSummary, error)
}
