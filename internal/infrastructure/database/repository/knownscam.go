package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"linkguard/internal/domain/models"
)

// KnownScamRepository handles the known scam domain blocklist
type KnownScamRepository struct {
	pool *pgxpool.Pool
}

// NewKnownScamRepository creates a new known scam repository
func NewKnownScamRepository(pool *pgxpool.Pool) *KnownScamRepository {
	return &KnownScamRepository{pool: pool}
}

// GetByDomain looks up a domain in the blocklist. Returns nil when the
// domain is not listed or its entry has expired.
func (r *KnownScamRepository) GetByDomain(ctx context.Context, domain string) (*models.KnownScam, error) {
	query := `
		SELECT id, domain, scam_type, reported_count, verified, first_reported, last_reported, expires_at
		FROM known_scams
		WHERE domain = $1 AND (expires_at IS NULL OR expires_at > now())`

	var ks models.KnownScam
	err := r.pool.QueryRow(ctx, query, strings.ToLower(domain)).Scan(
		&ks.ID, &ks.Domain, &ks.ScamType, &ks.ReportedCount, &ks.Verified,
		&ks.FirstReported, &ks.LastReported, &ks.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get known scam: %w", err)
	}
	return &ks, nil
}

// Upsert adds a domain to the blocklist or bumps its report count
func (r *KnownScamRepository) Upsert(ctx context.Context, domain, scamType string, verified bool) (*models.KnownScam, error) {
	now := time.Now()

	query := `
		INSERT INTO known_scams (id, domain, scam_type, reported_count, verified, first_reported, last_reported)
		VALUES ($1, $2, $3, 1, $4, $5, $5)
		ON CONFLICT (domain) DO UPDATE SET
			reported_count = known_scams.reported_count + 1,
			verified = known_scams.verified OR EXCLUDED.verified,
			last_reported = EXCLUDED.last_reported
		RETURNING id, domain, scam_type, reported_count, verified, first_reported, last_reported, expires_at`

	var ks models.KnownScam
	err := r.pool.QueryRow(ctx, query, uuid.New(), strings.ToLower(domain), scamType, verified, now).Scan(
		&ks.ID, &ks.Domain, &ks.ScamType, &ks.ReportedCount, &ks.Verified,
		&ks.FirstReported, &ks.LastReported, &ks.ExpiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert known scam: %w", err)
	}
	return &ks, nil
}

// List returns blocklist entries ordered by most recently reported
func (r *KnownScamRepository) List(ctx context.Context, limit, offset int) ([]*models.KnownScam, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `
		SELECT id, domain, scam_type, reported_count, verified, first_reported, last_reported, expires_at
		FROM known_scams
		WHERE expires_at IS NULL OR expires_at > now()
		ORDER BY last_reported DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list known scams: %w", err)
	}
	defer rows.Close()

	var out []*models.KnownScam
	for rows.Next() {
		var ks models.KnownScam
		if err := rows.Scan(
			&ks.ID, &ks.Domain, &ks.ScamType, &ks.ReportedCount, &ks.Verified,
			&ks.FirstReported, &ks.LastReported, &ks.ExpiresAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan known scam row: %w", err)
		}
		out = append(out, &ks)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate known scams: %w", err)
	}
	return out, nil
}

// Delete removes a domain from the blocklist
func (r *KnownScamRepository) Delete(ctx context.Context, domain string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM known_scams WHERE domain = $1`, strings.ToLower(domain))
	if err != nil {
		return fmt.Errorf("failed to delete known scam: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
