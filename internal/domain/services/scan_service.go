package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"linkguard/internal/config"
	"linkguard/internal/detector"
	"linkguard/internal/domain/models"
	"linkguard/internal/infrastructure/cache"
	"linkguard/internal/streaming"
	"linkguard/pkg/logger"
)

// ScanRepository defines the interface for scan result storage
type ScanRepository interface {
	// Create persists a scan result
	Create(ctx context.Context, result *models.ScanResult) error

	// GetByID retrieves a scan result, nil when not found
	GetByID(ctx context.Context, id uuid.UUID) (*models.ScanResult, error)

	// Stats returns aggregate scanning statistics
	Stats(ctx context.Context) (*models.ScanStats, error)
}

// KnownScamRepository defines the interface for the scam domain blocklist
type KnownScamRepository interface {
	// GetByDomain looks up a blocklisted domain, nil when not listed
	GetByDomain(ctx context.Context, domain string) (*models.KnownScam, error)

	// Upsert adds a domain or increments its report count
	Upsert(ctx context.Context, domain, scamType string, verified bool) (*models.KnownScam, error)

	// List returns blocklist entries
	List(ctx context.Context, limit, offset int) ([]*models.KnownScam, error)

	// Delete removes a domain from the blocklist
	Delete(ctx context.Context, domain string) error
}

// ReportRepository defines the interface for user report storage
type ReportRepository interface {
	// Create persists a user report
	Create(ctx context.Context, report *models.UserReport) error

	// CountByDomain counts reports against a domain
	CountByDomain(ctx context.Context, domain string) (int, error)
}

// EventPublisher defines the interface for publishing scan events
type EventPublisher interface {
	PublishScanEvent(ctx context.Context, event *streaming.ScanEvent) error
}

// ScanService orchestrates URL scanning: cache lookup, detection,
// persistence, and event publishing
type ScanService struct {
	detector  *detector.Detector
	scans     ScanRepository
	known     KnownScamRepository
	reports   ReportRepository
	cache     *cache.RedisCache
	publisher EventPublisher
	config    config.DetectionConfig
	logger    *logger.Logger
}

// NewScanService creates a new scan service. The cache and publisher are
// optional; a nil value disables that concern.
func NewScanService(
	det *detector.Detector,
	scans ScanRepository,
	known KnownScamRepository,
	reports ReportRepository,
	redisCache *cache.RedisCache,
	publisher EventPublisher,
	cfg config.DetectionConfig,
	log *logger.Logger,
) *ScanService {
	return &ScanService{
		detector:  det,
		scans:     scans,
		known:     known,
		reports:   reports,
		cache:     redisCache,
		publisher: publisher,
		config:    cfg,
		logger:    log.WithComponent("scan-service"),
	}
}

// Scan analyzes a URL and returns the verdict. Recently scanned URLs are
// served from cache without re-running the analyzers.
func (s *ScanService) Scan(ctx context.Context, rawURL string) (*models.ScanResponse, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, fmt.Errorf("url is required")
	}
	normalized := detector.NormalizeURL(rawURL)

	if cached := s.getCached(ctx, normalized); cached != nil {
		return cached, nil
	}

	verdict := s.detector.Analyze(ctx, normalized)

	result := &models.ScanResult{
		ID:        uuid.New(),
		URL:       normalized,
		Domain:    hostOf(normalized),
		IsScam:    verdict.IsScam,
		Score:     verdict.Score,
		Reasons:   verdict.Reasons,
		ScannedAt: time.Now(),
	}

	if s.scans != nil {
		if err := s.scans.Create(ctx, result); err != nil {
			// A storage outage must not block returning the verdict
			s.logger.Error().Err(err).Str("url", normalized).Msg("failed to persist scan result")
		}
	}

	resp := &models.ScanResponse{
		ScanID:    result.ID.String(),
		URL:       result.URL,
		Domain:    result.Domain,
		IsScam:    verdict.IsScam,
		Score:     verdict.Score,
		Reasons:   verdict.Reasons,
		Breakdown: verdict.Breakdown,
		ScannedAt: result.ScannedAt,
	}

	s.putCache(ctx, normalized, resp)
	s.publish(ctx, streaming.NewScanEvent(result))

	s.logger.Info().
		Str("url", normalized).
		Bool("is_scam", verdict.IsScam).
		Float64("score", verdict.Score).
		Msg("scan complete")

	return resp, nil
}

// GetScan retrieves a previously persisted scan by ID, nil when not found
func (s *ScanService) GetScan(ctx context.Context, id uuid.UUID) (*models.ScanResult, error) {
	if s.scans == nil {
		return nil, fmt.Errorf("scan storage not configured")
	}
	return s.scans.GetByID(ctx, id)
}

// Stats returns aggregate scanning statistics
func (s *ScanService) Stats(ctx context.Context) (*models.ScanStats, error) {
	if s.scans == nil {
		return nil, fmt.Errorf("scan storage not configured")
	}
	return s.scans.Stats(ctx)
}

// Report records a user-submitted scam report. Once a domain accumulates
// enough reports it is promoted to the blocklist as an unverified entry.
func (s *ScanService) Report(ctx context.Context, req *models.ReportRequest) (*models.UserReport, error) {
	raw := strings.TrimSpace(req.URL)
	if raw == "" {
		return nil, fmt.Errorf("url is required")
	}
	normalized := detector.NormalizeURL(raw)
	domain := hostOf(normalized)
	if domain == "" {
		return nil, fmt.Errorf("invalid url")
	}

	platform := req.Platform
	if platform == "" {
		platform = "api"
	}

	report := &models.UserReport{
		ID:         uuid.New(),
		URL:        normalized,
		ReportedBy: req.ReportedBy,
		Platform:   platform,
		Reason:     req.Reason,
		ReportedAt: time.Now(),
	}

	if s.reports == nil {
		return nil, fmt.Errorf("report storage not configured")
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to store report: %w", err)
	}

	s.maybePromote(ctx, domain)
	s.publish(ctx, streaming.NewReportEvent(report, domain))

	s.logger.Info().
		Str("domain", domain).
		Str("platform", platform).
		Msg("scam report recorded")

	return report, nil
}

// AddKnownScam adds a verified domain to the blocklist (admin operation)
func (s *ScanService) AddKnownScam(ctx context.Context, domain, scamType string) (*models.KnownScam, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return nil, fmt.Errorf("domain is required")
	}
	if s.known == nil {
		return nil, fmt.Errorf("blocklist storage not configured")
	}
	return s.known.Upsert(ctx, domain, scamType, true)
}

// ListKnownScams returns blocklist entries (admin operation)
func (s *ScanService) ListKnownScams(ctx context.Context, limit, offset int) ([]*models.KnownScam, error) {
	if s.known == nil {
		return nil, fmt.Errorf("blocklist storage not configured")
	}
	return s.known.List(ctx, limit, offset)
}

// RemoveKnownScam deletes a domain from the blocklist (admin operation)
func (s *ScanService) RemoveKnownScam(ctx context.Context, domain string) error {
	if s.known == nil {
		return fmt.Errorf("blocklist storage not configured")
	}
	return s.known.Delete(ctx, strings.ToLower(strings.TrimSpace(domain)))
}

// KnownScamLookup adapts the blocklist repository for the detector gate
func (s *ScanService) KnownScamLookup(ctx context.Context, domain string) (*models.KnownScam, error) {
	if s.known == nil {
		return nil, nil
	}
	return s.known.GetByDomain(ctx, domain)
}

// maybePromote adds a domain to the blocklist once the report count
// reaches the promotion threshold. Promotion failures are logged only.
func (s *ScanService) maybePromote(ctx context.Context, domain string) {
	if s.known == nil || s.config.AutoPromoteReports <= 0 {
		return
	}

	count, err := s.reports.CountByDomain(ctx, domain)
	if err != nil {
		s.logger.Warn().Err(err).Str("domain", domain).Msg("failed to count reports")
		return
	}
	if count < s.config.AutoPromoteReports {
		return
	}

	if _, err := s.known.Upsert(ctx, domain, "user_reported", false); err != nil {
		s.logger.Error().Err(err).Str("domain", domain).Msg("failed to promote reported domain")
		return
	}

	s.logger.Info().
		Str("domain", domain).
		Int("reports", count).
		Msg("domain promoted to known scam list")
}

func (s *ScanService) getCached(ctx context.Context, normalized string) *models.ScanResponse {
	if s.cache == nil {
		return nil
	}

	var resp models.ScanResponse
	err := s.cache.GetCachedVerdict(ctx, normalized, &resp)
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("cache lookup failed")
		return nil
	}

	resp.CacheHit = true
	return &resp
}

func (s *ScanService) putCache(ctx context.Context, normalized string, resp *models.ScanResponse) {
	if s.cache == nil {
		return
	}
	if err := s.cache.CacheVerdict(ctx, normalized, resp, s.config.CacheTTL); err != nil {
		s.logger.Warn().Err(err).Msg("failed to cache verdict")
	}
}

func (s *ScanService) publish(ctx context.Context, event *streaming.ScanEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishScanEvent(ctx, event); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish scan event")
	}
}

// hostOf extracts the lowercased hostname from a normalized URL
func hostOf(normalized string) string {
	u, err := url.Parse(normalized)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
