package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/notesnap/internal/common"
	"github.com/dmitrijs2005/notesnap/internal/dbx"
	"github.com/dmitrijs2005/notesnap/internal/logging"
	"github.com/dmitrijs2005/notesnap/internal/server/auth"
	"github.com/dmitrijs2005/notesnap/internal/server/config"
	"github.com/dmitrijs2005/notesnap/internal/server/models"
	"github.com/dmitrijs2005/notesnap/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/notesnap/internal/server/storage"
)

var (
	// ErrUnsupportedImageType is returned for avatar uploads that are not images.
	ErrUnsupportedImageType = errors.New("unsupported image type")
	ErrInvalidAvatarKey     = errors.New("invalid avatar key")
	ErrAvatarNotUploaded    = errors.New("avatar not uploaded")
)

// AvatarStore hands out upload URLs for profile images.
type AvatarStore interface {
	PresignAvatarUpload(ctx context.Context, userID, contentType string) (*models.AvatarUpload, error)
	UploadedAvatarURL(ctx context.Context, key string) (string, error)
	DeleteAvatar(ctx context.Context, imageURL string) error
}

// ProfileChanges is the editable part of a profile. A nil field keeps the
// stored value; an empty string clears it.
type ProfileChanges struct {
	Name    string
	Bio     *string
	Website *string
	GitHub  *string
}

// Preferences are the user's privacy and notification switches.
type Preferences struct {
	EmailNotifications bool
	PublicProfile      bool
	ShareAnalytics     bool
}

// ProfileService serves the signed-in user's own account.
type ProfileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	avatars     AvatarStore
	logger      logging.Logger
	bcryptCost  int
}

func NewProfileService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, avatars AvatarStore, logger logging.Logger) *ProfileService {
	return &ProfileService{
		db:          db,
		repomanager: m,
		avatars:     avatars,
		logger:      logger.With("module", "profile"),
		bcryptCost:  cfg.BcryptCost,
	}
}

func notFoundAsUser(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return ErrUserNotFound
	}
	return err
}

// Get returns the profile of userID with its linked accounts.
func (s *ProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	u, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundAsUser(err)
	}
	return s.withAccounts(ctx, u)
}

func (s *ProfileService) withAccounts(ctx context.Context, u *models.User) (*models.Profile, error) {
	accounts, err := s.repomanager.Accounts(s.db).ListByUser(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("error listing accounts: %w", err)
	}
	return models.NewProfile(u, accounts), nil
}

func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, ch ProfileChanges) (*models.Profile, error) {
	u, err := s.repomanager.Users(s.db).UpdateProfile(ctx, userID, &ch.Name, ch.Bio, ch.Website, ch.GitHub)
	if err != nil {
		return nil, notFoundAsUser(err)
	}
	return s.withAccounts(ctx, u)
}

func (s *ProfileService) UpdatePreferences(ctx context.Context, userID string, p Preferences) (*models.Profile, error) {
	u, err := s.repomanager.Users(s.db).UpdatePreferences(ctx, userID, p.EmailNotifications, p.PublicProfile, p.ShareAnalytics)
	if err != nil {
		return nil, notFoundAsUser(err)
	}
	return s.withAccounts(ctx, u)
}

// UpdatePassword changes the password after checking the current one.
// Users created through OAuth have no password to change.
func (s *ProfileService) UpdatePassword(ctx context.Context, userID, current, next string) error {
	repo := s.repomanager.Users(s.db)

	u, err := repo.GetByID(ctx, userID)
	if err != nil {
		return notFoundAsUser(err)
	}
	if !u.HasPassword() {
		return ErrSocialLoginPassword
	}
	if !auth.CheckPassword(*u.Password, current) {
		return ErrIncorrectPassword
	}

	hash, err := auth.HashPassword(next, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}
	return notFoundAsUser(repo.UpdatePassword(ctx, userID, hash))
}

// Delete removes the user with everything tied to it. Accounts and
// refresh tokens go by cascade, email-keyed tokens explicitly.
func (s *ProfileService) Delete(ctx context.Context, userID string) error {
	var image *string

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repomanager.Users(tx)
		u, err := users.GetByID(ctx, userID)
		if err != nil {
			return notFoundAsUser(err)
		}
		image = u.Image

		if err := s.repomanager.VerificationTokens(tx).DeleteByIdentifier(ctx, u.Email); err != nil {
			return fmt.Errorf("error deleting verification tokens: %w", err)
		}
		if err := s.repomanager.PasswordResets(tx).DeleteByEmail(ctx, u.Email); err != nil {
			return fmt.Errorf("error deleting reset tokens: %w", err)
		}
		return notFoundAsUser(users.Delete(ctx, userID))
	})
	if err != nil {
		return err
	}

	s.dropAvatar(ctx, image)
	return nil
}

// AvatarUploadURL presigns an upload for a new profile image. The profile
// is left untouched until ConfirmAvatar sees the uploaded object.
func (s *ProfileService) AvatarUploadURL(ctx context.Context, userID, contentType string) (*models.AvatarUpload, error) {
	if _, err := s.repomanager.Users(s.db).GetByID(ctx, userID); err != nil {
		return nil, notFoundAsUser(err)
	}

	up, err := s.avatars.PresignAvatarUpload(ctx, userID, contentType)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedContentType) {
			return nil, ErrUnsupportedImageType
		}
		return nil, fmt.Errorf("error presigning upload: %w", err)
	}
	return up, nil
}

// ConfirmAvatar switches the user's image to the uploaded object at key and
// removes the previous one. key must come from AvatarUploadURL for the same
// user.
func (s *ProfileService) ConfirmAvatar(ctx context.Context, userID, key string) (*models.Profile, error) {
	name, ok := strings.CutPrefix(key, storage.AvatarKeyPrefix(userID))
	if !ok || name == "" || strings.Contains(name, "/") {
		return nil, ErrInvalidAvatarKey
	}

	repo := s.repomanager.Users(s.db)
	u, err := repo.GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundAsUser(err)
	}

	imageURL, err := s.avatars.UploadedAvatarURL(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrAvatarNotUploaded
		}
		return nil, fmt.Errorf("error checking upload: %w", err)
	}

	if err := repo.UpdateImage(ctx, userID, imageURL); err != nil {
		return nil, notFoundAsUser(err)
	}
	if u.Image == nil || *u.Image != imageURL {
		s.dropAvatar(ctx, u.Image)
	}

	u.Image = &imageURL
	return s.withAccounts(ctx, u)
}

func (s *ProfileService) dropAvatar(ctx context.Context, image *string) {
	if image == nil || *image == "" {
		return
	}
	if err := s.avatars.DeleteAvatar(ctx, *image); err != nil {
		s.logger.Warn(ctx, "failed to delete avatar object", "image", *image, "error", err)
	}
}
