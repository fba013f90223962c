package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"linkguard/internal/domain/models"
)

// ReportRepository handles user-submitted scam reports
type ReportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository creates a new report repository
func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

// Create stores a user report
func (r *ReportRepository) Create(ctx context.Context, rep *models.UserReport) error {
	if rep.ID == uuid.Nil {
		rep.ID = uuid.New()
	}
	if rep.ReportedAt.IsZero() {
		rep.ReportedAt = time.Now()
	}

	query := `
		INSERT INTO user_reports (id, url, reported_by, platform, reason, reported_at, reviewed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		rep.ID, rep.URL, rep.ReportedBy, rep.Platform, rep.Reason, rep.ReportedAt, rep.Reviewed,
	)
	if err != nil {
		return fmt.Errorf("failed to create user report: %w", err)
	}
	return nil
}

// CountByDomain counts distinct reporters for a domain, used to decide
// when a reported domain is promoted to the blocklist
func (r *ReportRepository) CountByDomain(ctx context.Context, domain string) (int, error) {
	query := `
		SELECT count(*)
		FROM user_reports
		WHERE lower(split_part(split_part(url, '://', 2), '/', 1)) = lower($1)`

	var count int
	if err := r.pool.QueryRow(ctx, query, domain).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}
	return count, nil
}
