package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/notesnap/internal/server/repositories/repomanager"
)

// HealthReport is the result of a successful health check.
type HealthReport struct {
	UserCount int64
	Timestamp time.Time
}

// HealthService checks that the database answers queries.
type HealthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewHealthService(db *sql.DB, m repomanager.RepositoryManager) *HealthService {
	return &HealthService{db: db, repomanager: m}
}

func (s *HealthService) Check(ctx context.Context) (*HealthReport, error) {
	if err := s.db.PingContext(ctx); err != nil {
		return nil, err
	}
	n, err := s.repomanager.Users(s.db).Count(ctx)
	if err != nil {
		return nil, err
	}
	return &HealthReport{UserCount: n, Timestamp: time.Now().UTC()}, nil
}
