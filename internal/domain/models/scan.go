package models

import (
	"time"

	"github.com/google/uuid"
)

// Signal is one analyzer's partial result for a single URL. Scores are
// clamped to [0,1] by the analyzer that produced them.
type Signal struct {
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
}

// Verdict is the final aggregated decision for one analyzed URL.
// It is immutable once produced.
type Verdict struct {
	IsScam    bool              `json:"is_scam"`
	Score     float64           `json:"score"`
	Reasons   []string          `json:"reasons"`
	Breakdown map[string]Signal `json:"signal_breakdown,omitempty"`
}

// ScanResult is a persisted record of one URL scan
type ScanResult struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	Domain    string    `json:"domain"`
	IsScam    bool      `json:"is_scam"`
	Score     float64   `json:"score"`
	Reasons   []string  `json:"reasons"`
	ScannedAt time.Time `json:"scanned_at"`
	CreatedAt time.Time `json:"created_at"`
}

// KnownScam is a curated known-scam domain entry. The detector consults
// these read-only; writes happen through reports and the admin API.
type KnownScam struct {
	ID            uuid.UUID  `json:"id"`
	Domain        string     `json:"domain"`
	ScamType      string     `json:"scam_type,omitempty"`
	ReportedCount int        `json:"reported_count"`
	Verified      bool       `json:"verified"`
	FirstReported time.Time  `json:"first_reported"`
	LastReported  time.Time  `json:"last_reported"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// UserReport is a user-submitted scam report from the API or a chat platform
type UserReport struct {
	ID         uuid.UUID `json:"id"`
	URL        string    `json:"url"`
	ReportedBy string    `json:"reported_by,omitempty"`
	Platform   string    `json:"platform,omitempty"` // "api", "telegram", "whatsapp"
	Reason     string    `json:"reason,omitempty"`
	ReportedAt time.Time `json:"reported_at"`
	Reviewed   bool      `json:"reviewed"`
}

// ScanRequest is the request body for POST /api/v1/scan
type ScanRequest struct {
	URL string `json:"url"`
}

// ScanResponse is the response body for scan endpoints
type ScanResponse struct {
	ScanID    string            `json:"scan_id"`
	URL       string            `json:"url"`
	Domain    string            `json:"domain,omitempty"`
	IsScam    bool              `json:"is_scam"`
	Score     float64           `json:"score"`
	Reasons   []string          `json:"reasons"`
	Breakdown map[string]Signal `json:"signal_breakdown,omitempty"`
	CacheHit  bool              `json:"cache_hit"`
	ScannedAt time.Time         `json:"scanned_at"`
}

// ReportRequest is the request body for POST /api/v1/report
type ReportRequest struct {
	URL        string `json:"url"`
	Platform   string `json:"platform,omitempty"`
	Reason     string `json:"reason,omitempty"`
	ReportedBy string `json:"reported_by,omitempty"`
}

// ScanStats holds aggregate scanning statistics
type ScanStats struct {
	TotalScans     int64   `json:"total_scans"`
	ScamDetections int64   `json:"scam_detections"`
	DetectionRate  float64 `json:"detection_rate"`
}
