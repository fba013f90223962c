package streaming

import (
	"time"

	"github.com/google/uuid"

	"linkguard/internal/domain/models"
)

// EventType represents the type of scan event
type EventType string

const (
	EventTypeScanCompleted  EventType = "scan_completed"
	EventTypeScamDetected   EventType = "scam_detected"
	EventTypeDomainReported EventType = "domain_reported"
)

// ScanEvent represents a real-time scan result event
type ScanEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	ScanID  string   `json:"scan_id,omitempty"`
	URL     string   `json:"url,omitempty"`
	Domain  string   `json:"domain,omitempty"`
	IsScam  bool     `json:"is_scam"`
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons,omitempty"`

	// Report info
	Platform   string `json:"platform,omitempty"`
	ReportedBy string `json:"reported_by,omitempty"`
}

// NewScanEvent creates a scan event from a persisted result
func NewScanEvent(result *models.ScanResult) *ScanEvent {
	eventType := EventTypeScanCompleted
	if result.IsScam {
		eventType = EventTypeScamDetected
	}

	return &ScanEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		ScanID:    result.ID.String(),
		URL:       result.URL,
		Domain:    result.Domain,
		IsScam:    result.IsScam,
		Score:     result.Score,
		Reasons:   result.Reasons,
	}
}

// NewReportEvent creates an event for a user-submitted report
func NewReportEvent(report *models.UserReport, domain string) *ScanEvent {
	return &ScanEvent{
		ID:         uuid.New().String(),
		Type:       EventTypeDomainReported,
		Timestamp:  time.Now(),
		URL:        report.URL,
		Domain:     domain,
		Platform:   report.Platform,
		ReportedBy: report.ReportedBy,
	}
}
