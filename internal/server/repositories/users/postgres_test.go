package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/notesnap/internal/common"
	"github.com/dmitrijs2005/notesnap/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userCols = []string{"id", "name", "email", "email_verified", "image", "password", "bio", "website", "github",
	"email_notifications", "public_profile", "share_analytics", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func strPtr(s string) *string { return &s }

func userRow(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(userCols).
		AddRow("u-1", "Ann", "ann@example.com", nil, nil, "$hash", nil, "https://ann.dev", nil,
			true, false, false, now, now)
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	q := `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*name,\s*email,\s*password,\s*email_verified,\s*image\).*RETURNING\s+email_notifications`
	mock.ExpectQuery(q).
		WithArgs("u-1", "Ann", "ann@example.com", "$hash", nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"email_notifications", "public_profile", "share_analytics", "created_at", "updated_at"}).
			AddRow(true, false, false, now, now))

	got, err := repo.Create(context.Background(), &models.User{
		ID: "u-1", Name: strPtr("Ann"), Email: "ann@example.com", Password: strPtr("$hash"),
	})
	require.NoError(t, err)
	assert.True(t, got.EmailNotifications)
	assert.Equal(t, now, got.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_GeneratesID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+users`).
		WithArgs(sqlmock.AnyArg(), nil, "oauth@example.com", nil, sqlmock.AnyArg(), "https://img").
		WillReturnRows(sqlmock.NewRows([]string{"email_notifications", "public_profile", "share_analytics", "created_at", "updated_at"}).
			AddRow(true, false, false, time.Now(), time.Now()))

	now := time.Now()
	got, err := repo.Create(context.Background(), &models.User{Email: "oauth@example.com", EmailVerified: &now, Image: strPtr("https://img")})
	require.NoError(t, err)
	assert.Len(t, got.ID, 36)
}

func TestCreate_Duplicate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), &models.User{Email: "dup@example.com"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+users`).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Email: "a@b.c"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*name,.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1$`).
		WithArgs("ann@example.com").
		WillReturnRows(userRow(now))

	u, err := repo.GetByEmail(context.Background(), "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)
	assert.Equal(t, "Ann", *u.Name)
	assert.Nil(t, u.EmailVerified)
	assert.Nil(t, u.Bio)
	assert.Equal(t, "https://ann.dev", *u.Website)
	assert.True(t, u.HasPassword())
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUpdateProfile(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^UPDATE\s+users\s+SET\s+name\s*=\s*COALESCE\(\$2,\s*name\),\s*bio\s*=\s*COALESCE\(\$3,\s*bio\),\s*website\s*=\s*COALESCE\(\$4,\s*website\),\s*github\s*=\s*COALESCE\(\$5,\s*github\).*RETURNING\s+id`).
		WithArgs("u-1", "Ann", nil, "https://ann.dev", nil).
		WillReturnRows(userRow(time.Now()))

	u, err := repo.UpdateProfile(context.Background(), "u-1", strPtr("Ann"), nil, strPtr("https://ann.dev"), nil)
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)
}

func TestUpdatePreferences(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^UPDATE\s+users\s+SET\s+email_notifications\s*=\s*\$2`).
		WithArgs("u-1", false, true, true).
		WillReturnRows(userRow(time.Now()))

	_, err := repo.UpdatePreferences(context.Background(), "u-1", false, true, true)
	require.NoError(t, err)
}

func TestUpdatePassword(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+users\s+SET\s+password\s*=\s*\$2.*WHERE\s+id\s*=\s*\$1$`
	mock.ExpectExec(q).WithArgs("u-1", "$new").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("gone", "$new").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdatePassword(context.Background(), "u-1", "$new"))
	assert.ErrorIs(t, repo.UpdatePassword(context.Background(), "gone", "$new"), common.ErrorNotFound)
}

func TestUpdatePasswordByEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+users\s+SET\s+password\s*=\s*\$2.*WHERE\s+email\s*=\s*\$1\s+RETURNING\s+id$`
	mock.ExpectQuery(q).WithArgs("ann@example.com", "$new").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u-1"))
	mock.ExpectQuery(q).WithArgs("nobody@example.com", "$new").
		WillReturnError(sql.ErrNoRows)

	id, err := repo.UpdatePasswordByEmail(context.Background(), "ann@example.com", "$new")
	require.NoError(t, err)
	assert.Equal(t, "u-1", id)

	_, err = repo.UpdatePasswordByEmail(context.Background(), "nobody@example.com", "$new")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMarkEmailVerified(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^UPDATE\s+users\s+SET\s+email_verified\s*=\s*\$2.*WHERE\s+email\s*=\s*\$1$`).
		WithArgs("ann@example.com", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkEmailVerified(context.Background(), "ann@example.com", time.Now()))
}

func TestUpdateImage_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^UPDATE\s+users\s+SET\s+image\s*=\s*\$2`).
		WithArgs("u-1", "https://img").
		WillReturnError(errors.New("db err"))

	err := repo.UpdateImage(context.Background(), "u-1", "https://img")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^DELETE\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`
	mock.ExpectExec(q).WithArgs("u-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("u-2").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "u-1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "u-2"), common.ErrorNotFound)
}

func TestCount(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`^SELECT\s+COUNT\(\*\)\s+FROM\s+users$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(7)))

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}
