package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/notesnap/internal/common"
	"github.com/dmitrijs2005/notesnap/internal/dbx"
	"github.com/dmitrijs2005/notesnap/internal/server/models"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Account) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	query :=
		`INSERT INTO accounts (id, user_id, type, provider, provider_account_id,
		                       access_token, refresh_token, expires_at, token_type, scope, id_token)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.UserID, a.Type, a.Provider, a.ProviderAccountID,
		a.AccessToken, a.RefreshToken, a.ExpiresAt, a.TokenType, a.Scope, a.IDToken)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindByProvider(ctx context.Context, provider, providerAccountID string) (*models.Account, error) {
	query :=
		`SELECT id, user_id, type, provider, provider_account_id
		 FROM accounts
		 WHERE provider = $1 AND provider_account_id = $2`

	a := &models.Account{}
	err := r.db.QueryRowContext(ctx, query, provider, providerAccountID).
		Scan(&a.ID, &a.UserID, &a.Type, &a.Provider, &a.ProviderAccountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]models.AccountSummary, error) {
	query :=
		`SELECT provider, type
		 FROM accounts
		 WHERE user_id = $1
		 ORDER BY provider`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.AccountSummary{}
	for rows.Next() {
		var s models.AccountSummary
		if err := rows.Scan(&s.Provider, &s.Type); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
