package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkguard/internal/config"
	"linkguard/internal/detector"
	"linkguard/internal/domain/models"
	"linkguard/internal/streaming"
	"linkguard/pkg/logger"
)

type fakeScanRepo struct {
	created []*models.ScanResult
	byID    map[uuid.UUID]*models.ScanResult
}

func newFakeScanRepo() *fakeScanRepo {
	return &fakeScanRepo{byID: make(map[uuid.UUID]*models.ScanResult)}
}

func (f *fakeScanRepo) Create(_ context.Context, r *models.ScanResult) error {
	f.created = append(f.created, r)
	f.byID[r.ID] = r
	return nil
}

func (f *fakeScanRepo) GetByID(_ context.Context, id uuid.UUID) (*models.ScanResult, error) {
	return f.byID[id], nil
}

func (f *fakeScanRepo) Stats(_ context.Context) (*models.ScanStats, error) {
	stats := &models.ScanStats{TotalScans: int64(len(f.created))}
	for _, r := range f.created {
		if r.IsScam {
			stats.ScamDetections++
		}
	}
	return stats, nil
}

type fakeKnownRepo struct {
	entries  map[string]*models.KnownScam
	upserted []string
}

func newFakeKnownRepo() *fakeKnownRepo {
	return &fakeKnownRepo{entries: make(map[string]*models.KnownScam)}
}

func (f *fakeKnownRepo) GetByDomain(_ context.Context, domain string) (*models.KnownScam, error) {
	return f.entries[domain], nil
}

func (f *fakeKnownRepo) Upsert(_ context.Context, domain, scamType string, verified bool) (*models.KnownScam, error) {
	f.upserted = append(f.upserted, domain)
	ks := &models.KnownScam{ID: uuid.New(), Domain: domain, ScamType: scamType, Verified: verified, ReportedCount: 1}
	f.entries[domain] = ks
	return ks, nil
}

func (f *fakeKnownRepo) List(_ context.Context, _, _ int) ([]*models.KnownScam, error) {
	out := make([]*models.KnownScam, 0, len(f.entries))
	for _, ks := range f.entries {
		out = append(out, ks)
	}
	return out, nil
}

func (f *fakeKnownRepo) Delete(_ context.Context, domain string) error {
	delete(f.entries, domain)
	return nil
}

type fakeReportRepo struct {
	reports []*models.UserReport
	counts  map[string]int
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{counts: make(map[string]int)}
}

func (f *fakeReportRepo) Create(_ context.Context, r *models.UserReport) error {
	f.reports = append(f.reports, r)
	return nil
}

func (f *fakeReportRepo) CountByDomain(_ context.Context, domain string) (int, error) {
	return f.counts[domain], nil
}

type fakePublisher struct {
	events []*streaming.ScanEvent
}

func (f *fakePublisher) PublishScanEvent(_ context.Context, e *streaming.ScanEvent) error {
	f.events = append(f.events, e)
	return nil
}

type serviceFixture struct {
	svc       *ScanService
	scans     *fakeScanRepo
	known     *fakeKnownRepo
	reports   *fakeReportRepo
	publisher *fakePublisher
}

func newFixture(t *testing.T) *serviceFixture {
	t.Helper()

	log := logger.New(logger.Config{Level: "error", Format: "json"})

	scans := newFakeScanRepo()
	known := newFakeKnownRepo()
	reports := newFakeReportRepo()
	publisher := &fakePublisher{}

	det := detector.New(detector.Options{
		FetchTimeout:    500 * time.Millisecond,
		TLSTimeout:      500 * time.Millisecond,
		KnownScamLookup: known.GetByDomain,
	}, log)

	cfg := config.DetectionConfig{AutoPromoteReports: 3, CacheTTL: time.Hour}
	svc := NewScanService(det, scans, known, reports, nil, publisher, cfg, log)

	return &serviceFixture{svc: svc, scans: scans, known: known, reports: reports, publisher: publisher}
}

func TestScan_PersistsAndPublishes(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Scan(context.Background(), "http://unreachable.invalid/login")
	require.NoError(t, err)

	assert.Equal(t, "unreachable.invalid", resp.Domain)
	assert.False(t, resp.CacheHit)

	require.Len(t, f.scans.created, 1)
	assert.Equal(t, resp.URL, f.scans.created[0].URL)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, streaming.EventTypeScanCompleted, f.publisher.events[0].Type)
}

func TestScan_KnownScamPublishesScamEvent(t *testing.T) {
	f := newFixture(t)
	f.known.entries["bad.invalid"] = &models.KnownScam{Domain: "bad.invalid"}

	resp, err := f.svc.Scan(context.Background(), "https://bad.invalid/offer")
	require.NoError(t, err)

	assert.True(t, resp.IsScam)
	assert.Equal(t, 1.0, resp.Score)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, streaming.EventTypeScamDetected, f.publisher.events[0].Type)
}

func TestScan_EmptyURLRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Scan(context.Background(), "   ")
	assert.Error(t, err)
	assert.Empty(t, f.scans.created)
}

func TestScan_SchemelessURLNormalized(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Scan(context.Background(), "unreachable.invalid/page")
	require.NoError(t, err)
	assert.Equal(t, "https://unreachable.invalid/page", resp.URL)
}

func TestGetScan_RoundTrip(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Scan(context.Background(), "http://unreachable.invalid/x")
	require.NoError(t, err)

	id, err := uuid.Parse(resp.ScanID)
	require.NoError(t, err)

	stored, err := f.svc.GetScan(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, resp.URL, stored.URL)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	f.known.entries["bad.invalid"] = &models.KnownScam{Domain: "bad.invalid"}

	_, err := f.svc.Scan(context.Background(), "https://bad.invalid/a")
	require.NoError(t, err)
	_, err = f.svc.Scan(context.Background(), "http://unreachable.invalid/b")
	require.NoError(t, err)

	stats, err := f.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalScans)
	assert.Equal(t, int64(1), stats.ScamDetections)
}

func TestReport_StoresReport(t *testing.T) {
	f := newFixture(t)

	report, err := f.svc.Report(context.Background(), &models.ReportRequest{
		URL:      "https://shady.invalid/deal",
		Reason:   "fake store",
		Platform: "telegram",
	})
	require.NoError(t, err)

	assert.Equal(t, "telegram", report.Platform)
	require.Len(t, f.reports.reports, 1)

	// Below the promotion threshold, nothing is blocklisted
	assert.Empty(t, f.known.upserted)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, streaming.EventTypeDomainReported, f.publisher.events[0].Type)
}

func TestReport_DefaultsPlatformToAPI(t *testing.T) {
	f := newFixture(t)

	report, err := f.svc.Report(context.Background(), &models.ReportRequest{URL: "https://shady.invalid"})
	require.NoError(t, err)
	assert.Equal(t, "api", report.Platform)
}

func TestReport_PromotesAtThreshold(t *testing.T) {
	f := newFixture(t)
	f.reports.counts["shady.invalid"] = 3

	_, err := f.svc.Report(context.Background(), &models.ReportRequest{URL: "https://shady.invalid/deal"})
	require.NoError(t, err)

	require.Contains(t, f.known.upserted, "shady.invalid")
	entry := f.known.entries["shady.invalid"]
	require.NotNil(t, entry)
	assert.Equal(t, "user_reported", entry.ScamType)
	assert.False(t, entry.Verified)
}

func TestReport_EmptyURLRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Report(context.Background(), &models.ReportRequest{URL: ""})
	assert.Error(t, err)
}

func TestAddKnownScam_Verified(t *testing.T) {
	f := newFixture(t)

	entry, err := f.svc.AddKnownScam(context.Background(), "  Phish.Example.COM ", "phishing")
	require.NoError(t, err)
	assert.Equal(t, "phish.example.com", entry.Domain)
	assert.True(t, entry.Verified)
}

func TestBlocklistOps_WithoutStorage(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	det := detector.New(detector.Options{
		FetchTimeout: 500 * time.Millisecond,
		TLSTimeout:   500 * time.Millisecond,
	}, log)
	cfg := config.DetectionConfig{CacheTTL: time.Hour}
	svc := NewScanService(det, nil, nil, nil, nil, nil, cfg, log)

	_, err := svc.ListKnownScams(context.Background(), 10, 0)
	assert.Error(t, err)

	err = svc.RemoveKnownScam(context.Background(), "bad.invalid")
	assert.Error(t, err)

	_, err = svc.AddKnownScam(context.Background(), "bad.invalid", "phishing")
	assert.Error(t, err)
}

func TestKnownScamLookup_Adapter(t *testing.T) {
	f := newFixture(t)
	f.known.entries["bad.invalid"] = &models.KnownScam{Domain: "bad.invalid"}

	rec, err := f.svc.KnownScamLookup(context.Background(), "bad.invalid")
	require.NoError(t, err)
	assert.NotNil(t, rec)

	rec, err = f.svc.KnownScamLookup(context.Background(), "good.invalid")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestHostOf(t *testing.T) {
	assert.Equal(t, "example.com", hostOf("https://Example.COM:8443/path"))
	assert.Equal(t, "", hostOf("https://%zz"))
}
