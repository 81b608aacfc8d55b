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
	"github.com/dmitrijs2005/notesnap/internal/server/config"
	"github.com/dmitrijs2005/notesnap/internal/server/mailer"
	"github.com/dmitrijs2005/notesnap/internal/server/repositories/repomanager"
)

// VerificationService issues and consumes email verification tokens.
// An identifier (the email) has at most one live token.
type VerificationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	mailer      mailer.Mailer
	logger      logging.Logger
	baseURL     string
	validity    time.Duration
}

func NewVerificationService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, ml mailer.Mailer, logger logging.Logger) *VerificationService {
	return &VerificationService{
		db:          db,
		repomanager: m,
		mailer:      ml,
		logger:      logger.With("module", "verification"),
		baseURL:     cfg.BaseURL,
		validity:    cfg.VerificationTokenValidityDuration,
	}
}

// GenerateVerificationToken replaces every token issued for email with a
// fresh one and returns it.
func (s *VerificationService) GenerateVerificationToken(ctx context.Context, email string) (string, error) {
	email = NormalizeEmail(email)

	token, err := common.MakeRandHexString(common.TokenBytes)
	if err != nil {
		return "", fmt.Errorf("error generating token: %w", err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.VerificationTokens(tx)
		if err := repo.DeleteByIdentifier(ctx, email); err != nil {
			return err
		}
		return repo.Create(ctx, email, token, time.Now().Add(s.validity))
	})
	if err != nil {
		return "", fmt.Errorf("error storing verification token: %w", err)
	}
	return token, nil
}

// VerifyEmail consumes token and marks its email as verified.
func (s *VerificationService) VerifyEmail(ctx context.Context, token string) error {
	repo := s.repomanager.VerificationTokens(s.db)

	vt, err := repo.Find(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return ErrInvalidVerificationToken
		}
		return fmt.Errorf("error searching verification token: %w", err)
	}

	if vt.Expires.Before(time.Now()) {
		if err := repo.Delete(ctx, token); err != nil {
			s.logger.Warn(ctx, "failed to delete expired verification token", "error", err)
		}
		return ErrVerificationTokenExpired
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.VerificationTokens(tx).Consume(ctx, token); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return ErrInvalidVerificationToken
			}
			return fmt.Errorf("error consuming verification token: %w", err)
		}
		err := s.repomanager.Users(tx).MarkEmailVerified(ctx, vt.Identifier, time.Now())
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("error marking email verified: %w", err)
		}
		return nil
	})
}

// IsEmailVerified reports false for unknown emails.
func (s *VerificationService) IsEmailVerified(ctx context.Context, email string) (bool, error) {
	u, err := s.repomanager.Users(s.db).GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}
	return u.IsEmailVerified(), nil
}

// ResendVerification issues a new token for an existing, unverified user.
func (s *VerificationService) ResendVerification(ctx context.Context, email string) (string, error) {
	email = NormalizeEmail(email)

	u, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("error searching user: %w", err)
	}
	if u.IsEmailVerified() {
		return "", ErrEmailAlreadyVerified
	}

	return s.GenerateVerificationToken(ctx, email)
}

// SendVerificationEmail mails the {BaseURL}/verify-email link for token.
func (s *VerificationService) SendVerificationEmail(ctx context.Context, email, token string) error {
	link := mailer.Link(s.baseURL, "/verify-email", token)

	msg, err := mailer.VerificationEmail(email, link, s.validity)
	if err != nil {
		return fmt.Errorf("error rendering verification email: %w", err)
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("%w: %w", ErrMailDelivery, err)
	}
	return nil
}
