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
	"github.com/dmitrijs2005/notesnap/internal/server/mailer"
	"github.com/dmitrijs2005/notesnap/internal/server/models"
	"github.com/dmitrijs2005/notesnap/internal/server/repositories/repomanager"
)

// PasswordResetService runs the forgot-password flow.
type PasswordResetService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	mailer      mailer.Mailer
	logger      logging.Logger
	baseURL     string
	validity    time.Duration
	bcryptCost  int
}

func NewPasswordResetService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, ml mailer.Mailer, logger logging.Logger) *PasswordResetService {
	return &PasswordResetService{
		db:          db,
		repomanager: m,
		mailer:      ml,
		logger:      logger.With("module", "passwordreset"),
		baseURL:     cfg.BaseURL,
		validity:    cfg.PasswordResetTokenValidityDuration,
		bcryptCost:  cfg.BcryptCost,
	}
}

// RequestReset mails a reset link if email belongs to a user. Unknown
// addresses succeed silently.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	email = NormalizeEmail(email)

	if _, err := s.repomanager.Users(s.db).GetByEmail(ctx, email); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Info(ctx, "password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("error searching user: %w", err)
	}

	token, err := common.MakeRandHexString(common.TokenBytes)
	if err != nil {
		return fmt.Errorf("error generating token: %w", err)
	}

	if err := s.repomanager.PasswordResets(s.db).Upsert(ctx, email, token, time.Now().Add(s.validity)); err != nil {
		return fmt.Errorf("error storing reset token: %w", err)
	}

	link := mailer.Link(s.baseURL, "/reset-password", token)
	msg, err := mailer.PasswordResetEmail(email, link, s.validity)
	if err != nil {
		return fmt.Errorf("error rendering reset email: %w", err)
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("%w: %w", ErrMailDelivery, err)
	}
	return nil
}

// VerifyResetToken checks that token exists and has not expired. Expired
// tokens are deleted.
func (s *PasswordResetService) VerifyResetToken(ctx context.Context, token string) error {
	_, err := s.findLive(ctx, token)
	return err
}

func (s *PasswordResetService) findLive(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	repo := s.repomanager.PasswordResets(s.db)

	rt, err := repo.Find(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, ErrInvalidResetToken
		}
		return nil, fmt.Errorf("error searching reset token: %w", err)
	}

	if rt.Expires.Before(time.Now()) {
		if err := repo.Delete(ctx, token); err != nil {
			s.logger.Warn(ctx, "failed to delete expired reset token", "error", err)
		}
		return nil, ErrResetTokenExpired
	}
	return rt, nil
}

// ResetPassword sets a new password for the owner of token, consumes the
// token and signs the user out everywhere.
func (s *PasswordResetService) ResetPassword(ctx context.Context, token, password string) error {
	rt, err := s.findLive(ctx, token)
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		// a concurrent reset with the same token finds nothing left to consume
		if err := s.repomanager.PasswordResets(tx).Consume(ctx, token); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return ErrInvalidResetToken
			}
			return fmt.Errorf("error consuming reset token: %w", err)
		}
		userID, err := s.repomanager.Users(tx).UpdatePasswordByEmail(ctx, rt.Email, hash)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return ErrInvalidResetToken
			}
			return fmt.Errorf("error updating password: %w", err)
		}
		if err := s.repomanager.RefreshTokens(tx).DeleteByUser(ctx, userID); err != nil {
			return fmt.Errorf("error revoking sessions: %w", err)
		}
		return nil
	})
}
