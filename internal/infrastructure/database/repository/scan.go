package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"linkguard/internal/domain/models"
)

// ScanRepository handles scan result persistence
type ScanRepository struct {
	pool *pgxpool.Pool
}

// NewScanRepository creates a new scan repository
func NewScanRepository(pool *pgxpool.Pool) *ScanRepository {
	return &ScanRepository{pool: pool}
}

// Create inserts a new scan result
func (r *ScanRepository) Create(ctx context.Context, s *models.ScanResult) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	now := time.Now()
	if s.ScannedAt.IsZero() {
		s.ScannedAt = now
	}
	s.CreatedAt = now

	query := `
		INSERT INTO scan_results (id, url, domain, is_scam, score, reasons, scanned_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		s.ID, s.URL, s.Domain, s.IsScam, s.Score, s.Reasons, s.ScannedAt, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create scan result: %w", err)
	}
	return nil
}

// GetByID retrieves a scan result by ID
func (r *ScanRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ScanResult, error) {
	query := `
		SELECT id, url, domain, is_scam, score, reasons, scanned_at, created_at
		FROM scan_results
		WHERE id = $1`

	var s models.ScanResult
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.URL, &s.Domain, &s.IsScam, &s.Score, &s.Reasons, &s.ScannedAt, &s.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan result: %w", err)
	}
	return &s, nil
}

// Stats returns aggregate scanning statistics
func (r *ScanRepository) Stats(ctx context.Context) (*models.ScanStats, error) {
	query := `
		SELECT count(*), count(*) FILTER (WHERE is_scam)
		FROM scan_results`

	var stats models.ScanStats
	err := r.pool.QueryRow(ctx, query).Scan(&stats.TotalScans, &stats.ScamDetections)
	if err != nil {
		return nil, fmt.Errorf("failed to get scan stats: %w", err)
	}

	if stats.TotalScans > 0 {
		stats.DetectionRate = float64(stats.ScamDetections) / float64(stats.TotalScans) * 100
	}
	return &stats, nil
}
