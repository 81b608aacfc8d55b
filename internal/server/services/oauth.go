package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/notesnap/internal/common"
	"github.com/dmitrijs2005/notesnap/internal/dbx"
	"github.com/dmitrijs2005/notesnap/internal/logging"
	"github.com/dmitrijs2005/notesnap/internal/server/auth"
	"github.com/dmitrijs2005/notesnap/internal/server/config"
	"github.com/dmitrijs2005/notesnap/internal/server/models"
	"github.com/dmitrijs2005/notesnap/internal/server/repositories/repomanager"
	"golang.org/x/oauth2"
)

const oauthStateValidity = 10 * time.Minute

// OAuthService signs users in through external identity providers. An
// identity is never attached to an existing user with the same email.
type OAuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	providers   *auth.Registry
	users       *UserService
	logger      logging.Logger
	stateSecret []byte
}

func NewOAuthService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, providers *auth.Registry, users *UserService, logger logging.Logger) *OAuthService {
	return &OAuthService{
		db:          db,
		repomanager: m,
		providers:   providers,
		users:       users,
		logger:      logger.With("module", "oauth"),
		stateSecret: []byte(cfg.SecretKey),
	}
}

// Providers lists the enabled provider names.
func (s *OAuthService) Providers() []string {
	return s.providers.Names()
}

// Begin returns the consent URL for provider and the signed state cookie
// the callback must present.
func (s *OAuthService) Begin(provider string) (redirectURL, stateCookie string, err error) {
	p, ok := s.providers.Get(provider)
	if !ok {
		return "", "", ErrUnknownProvider
	}

	st, cookie, err := auth.NewOAuthState(p.Name, s.stateSecret, oauthStateValidity)
	if err != nil {
		return "", "", fmt.Errorf("error creating oauth state: %w", err)
	}
	return p.AuthCodeURL(st.Nonce, st.Verifier), cookie, nil
}

// Complete finishes the flow started by Begin: it checks state, exchanges
// code and signs in the user owning the provider identity, creating it on
// first use.
func (s *OAuthService) Complete(ctx context.Context, provider, code, state, stateCookie string) (*TokenPair, *models.User, error) {
	p, ok := s.providers.Get(provider)
	if !ok {
		return nil, nil, ErrUnknownProvider
	}

	st, err := auth.ParseOAuthState(stateCookie, s.stateSecret)
	if err != nil || st.Provider != p.Name || st.Nonce != state || code == "" {
		return nil, nil, ErrInvalidOAuthState
	}

	tok, err := p.Exchange(ctx, code, st.Verifier)
	if err != nil {
		return nil, nil, fmt.Errorf("error exchanging code: %w", err)
	}

	profile, err := p.Profile(ctx, tok)
	if err != nil {
		return nil, nil, fmt.Errorf("error fetching profile: %w", err)
	}

	user, err := s.resolveUser(ctx, p.Name, profile, tok)
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.users.IssueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

func (s *OAuthService) resolveUser(ctx context.Context, provider string, profile *auth.ProviderProfile, tok *oauth2.Token) (*models.User, error) {
	acc, err := s.repomanager.Accounts(s.db).FindByProvider(ctx, provider, profile.ID)
	switch {
	case err == nil:
		u, err := s.repomanager.Users(s.db).GetByID(ctx, acc.UserID)
		if err != nil {
			return nil, notFoundAsUser(err)
		}
		return u, nil
	case !errors.Is(err, common.ErrorNotFound):
		return nil, fmt.Errorf("error searching account: %w", err)
	}

	if _, err := s.repomanager.Users(s.db).GetByEmail(ctx, profile.Email); err == nil {
		s.logger.Info(ctx, "refusing to link oauth identity to existing email", "provider", provider)
		return nil, ErrOAuthAccountNotLinked
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	var created *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		u := &models.User{Email: profile.Email}
		if profile.Name != "" {
			u.Name = &profile.Name
		}
		if profile.Image != "" {
			u.Image = &profile.Image
		}
		if profile.EmailVerified {
			now := time.Now()
			u.EmailVerified = &now
		}

		var err error
		created, err = s.repomanager.Users(tx).Create(ctx, u)
		if err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return ErrOAuthAccountNotLinked
			}
			return fmt.Errorf("error creating user: %w", err)
		}

		if err := s.repomanager.Accounts(tx).Create(ctx, newAccount(created.ID, provider, profile.ID, tok)); err != nil {
			return fmt.Errorf("error linking account: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user created from oauth", "provider", provider, "user_id", created.ID)
	return created, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func newAccount(userID, provider, providerAccountID string, tok *oauth2.Token) *models.Account {
	acc := &models.Account{
		UserID:            userID,
		Type:              models.AccountTypeOAuth,
		Provider:          provider,
		ProviderAccountID: providerAccountID,
		AccessToken:       optional(tok.AccessToken),
		RefreshToken:      optional(tok.RefreshToken),
		TokenType:         optional(tok.TokenType),
	}
	if !tok.Expiry.IsZero() {
		exp := tok.Expiry.Unix()
		acc.ExpiresAt = &exp
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		acc.Scope = optional(scope)
	}
	if idToken, ok := tok.Extra("id_token").(string); ok {
		acc.IDToken = optional(idToken)
	}
	return acc
}
