package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/notesnap/internal/common"
	"github.com/dmitrijs2005/notesnap/internal/dbx"
	"github.com/dmitrijs2005/notesnap/internal/server/models"
	"github.com/google/uuid"
)

const userColumns = `id, name, email, email_verified, image, password, bio, website, github,
		email_notifications, public_profile, share_analytics, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.EmailVerified, &u.Image, &u.Password,
		&u.Bio, &u.Website, &u.GitHub,
		&u.EmailNotifications, &u.PublicProfile, &u.ShareAnalytics, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	query :=
		`INSERT INTO users (id, name, email, password, email_verified, image)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING email_notifications, public_profile, share_analytics, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Name, user.Email, user.Password, user.EmailVerified, user.Image,
	).Scan(&user.EmailNotifications, &user.PublicProfile, &user.ShareAnalytics, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// UpdateProfile sets the given profile fields. Nil arguments leave the
// column as it is.
func (r *PostgresRepository) UpdateProfile(ctx context.Context, id string, name, bio, website, github *string) (*models.User, error) {
	query :=
		`UPDATE users SET name = COALESCE($2, name), bio = COALESCE($3, bio),
		     website = COALESCE($4, website), github = COALESCE($5, github), updated_at = now()
		 WHERE id = $1
		 RETURNING ` + userColumns

	return scanUser(r.db.QueryRowContext(ctx, query, id, name, bio, website, github))
}

func (r *PostgresRepository) UpdatePreferences(ctx context.Context, id string, emailNotifications, publicProfile, shareAnalytics bool) (*models.User, error) {
	query :=
		`UPDATE users SET email_notifications = $2, public_profile = $3, share_analytics = $4, updated_at = now()
		 WHERE id = $1
		 RETURNING ` + userColumns

	return scanUser(r.db.QueryRowContext(ctx, query, id, emailNotifications, publicProfile, shareAnalytics))
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	query := `UPDATE users SET password = $2, updated_at = now() WHERE id = $1`
	return r.execOne(ctx, query, id, passwordHash)
}

func (r *PostgresRepository) UpdatePasswordByEmail(ctx context.Context, email string, passwordHash string) (string, error) {
	query :=
		`UPDATE users SET password = $2, updated_at = now()
		 WHERE email = $1
		 RETURNING id`

	var id string
	if err := r.db.QueryRowContext(ctx, query, email, passwordHash).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) UpdateImage(ctx context.Context, id string, image string) error {
	query := `UPDATE users SET image = $2, updated_at = now() WHERE id = $1`
	return r.execOne(ctx, query, id, image)
}

func (r *PostgresRepository) MarkEmailVerified(ctx context.Context, email string, at time.Time) error {
	query := `UPDATE users SET email_verified = $2, updated_at = now() WHERE email = $1`
	return r.execOne(ctx, query, email, at)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1`
	return r.execOne(ctx, query, id)
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// execOne runs a statement expected to touch exactly one row.
func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
