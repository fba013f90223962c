package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkguard/internal/config"
	"linkguard/internal/domain/models"
	"linkguard/pkg/logger"
)

type stubScanner struct {
	mu      sync.Mutex
	scanned []string
	resp    *models.ScanResponse
}

func (s *stubScanner) Scan(_ context.Context, url string) (*models.ScanResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scanned = append(s.scanned, url)
	resp := *s.resp
	resp.URL = url
	return &resp, nil
}

// testWebhook wires a webhook at a fake Graph API endpoint and records
// every message body it sends.
func testWebhook(t *testing.T, scanner Scanner) (*Webhook, *[]string) {
	t.Helper()

	var sent []string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Text struct {
				Body string `json:"body"`
			} `json:"text"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		sent = append(sent, payload.Text.Body)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(api.Close)

	return &Webhook{
		scanner:     scanner,
		httpClient:  &http.Client{Timeout: time.Second},
		baseURL:     api.URL,
		apiKey:      "test-key",
		verifyToken: "verify-me",
		logger:      logger.New(logger.Config{Level: "error", Format: "json"}).WithComponent("whatsapp"),
	}, &sent
}

func TestNewWebhook_DisabledWithoutCredentials(t *testing.T) {
	log := logger.NewDefault()

	assert.Nil(t, NewWebhook(config.WhatsAppConfig{Enabled: true, APIKey: "k"}, nil, log))
	assert.Nil(t, NewWebhook(config.WhatsAppConfig{Enabled: false, APIKey: "k", PhoneNumberID: "1"}, nil, log))
	assert.NotNil(t, NewWebhook(config.WhatsAppConfig{Enabled: true, APIKey: "k", PhoneNumberID: "1"}, nil, log))
}

func TestVerify_Handshake(t *testing.T) {
	wh, _ := testWebhook(t, &stubScanner{})

	req := httptest.NewRequest(http.MethodGet, "/webhooks/whatsapp?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	wh.Verify(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "12345", rec.Body.String())
}

func TestVerify_RejectsBadToken(t *testing.T) {
	wh, _ := testWebhook(t, &stubScanner{})

	req := httptest.NewRequest(http.MethodGet, "/webhooks/whatsapp?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	wh.Verify(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandle_ScansURLsAndReplies(t *testing.T) {
	scanner := &stubScanner{resp: &models.ScanResponse{IsScam: true, Score: 0.9, Reasons: []string{"Suspicious URL pattern detected"}}}
	wh, sent := testWebhook(t, scanner)

	body := `{
		"entry": [{"changes": [{"value": {"messages": [
			{"from": "15550001111", "type": "text", "text": {"body": "is this safe? https://phish.example.com/login"}}
		]}}]}]
	}`

	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(body))
	rec := httptest.NewRecorder()
	wh.Handle(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"https://phish.example.com/login"}, scanner.scanned)

	require.Len(t, *sent, 1)
	assert.Contains(t, (*sent)[0], "SCAM DETECTED")
	assert.Contains(t, (*sent)[0], "https://phish.example.com/login")
}

func TestHandle_TextWithoutURLGetsHelp(t *testing.T) {
	scanner := &stubScanner{resp: &models.ScanResponse{}}
	wh, sent := testWebhook(t, scanner)

	body := `{"entry": [{"changes": [{"value": {"messages": [
		{"from": "15550001111", "type": "text", "text": {"body": "hello"}}
	]}}]}]}`

	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(body))
	rec := httptest.NewRecorder()
	wh.Handle(rec, req)

	assert.Empty(t, scanner.scanned)
	require.Len(t, *sent, 1)
	assert.Contains(t, (*sent)[0], "Send me a link")
}

func TestHandle_IgnoresNonTextMessages(t *testing.T) {
	scanner := &stubScanner{resp: &models.ScanResponse{}}
	wh, sent := testWebhook(t, scanner)

	body := `{"entry": [{"changes": [{"value": {"messages": [
		{"from": "15550001111", "type": "image"}
	]}}]}]}`

	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(body))
	rec := httptest.NewRecorder()
	wh.Handle(rec, req)

	assert.Empty(t, scanner.scanned)
	assert.Empty(t, *sent)
}

func TestHandle_MalformedBodyStillOK(t *testing.T) {
	wh, _ := testWebhook(t, &stubScanner{})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	wh.Handle(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
