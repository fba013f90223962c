// Package whatsapp receives WhatsApp Business webhook events, scans links
// found in messages, and replies with the verdict.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"linkguard/internal/config"
	"linkguard/internal/domain/models"
	"linkguard/internal/integrations"
	"linkguard/pkg/logger"
)

// Scanner is the scanning surface the webhook needs
type Scanner interface {
	Scan(ctx context.Context, url string) (*models.ScanResponse, error)
}

// Webhook handles WhatsApp Business API webhook events
type Webhook struct {
	scanner     Scanner
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	verifyToken string
	logger      *logger.Logger
}

// NewWebhook creates a WhatsApp webhook handler. Returns nil when the
// integration is disabled or not fully configured.
func NewWebhook(cfg config.WhatsAppConfig, scanner Scanner, log *logger.Logger) *Webhook {
	if !cfg.Enabled || cfg.APIKey == "" || cfg.PhoneNumberID == "" {
		return nil
	}

	return &Webhook{
		scanner:     scanner,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		baseURL:     "https://graph.facebook.com/v18.0/" + cfg.PhoneNumberID,
		apiKey:      cfg.APIKey,
		verifyToken: cfg.VerifyToken,
		logger:      log.WithComponent("whatsapp"),
	}
}

// webhookPayload is the subset of the WhatsApp webhook format we consume
type webhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []message `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type message struct {
	From string `json:"from"`
	Type string `json:"type"`
	Text struct {
		Body string `json:"body"`
	} `json:"text"`
}

// Verify handles GET /webhooks/whatsapp, the Meta webhook subscription
// handshake
func (h *Webhook) Verify(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken {
		h.logger.Info().Msg("webhook verified")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(challenge))
		return
	}

	h.logger.Warn().Msg("webhook verification failed")
	http.Error(w, "Forbidden", http.StatusForbidden)
}

// Handle processes POST /webhooks/whatsapp
func (h *Webhook) Handle(w http.ResponseWriter, r *http.Request) {
	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.logger.Warn().Err(err).Msg("failed to decode webhook payload")
		h.respondStatus(w, http.StatusOK, "ok")
		return
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				h.processMessage(r.Context(), msg)
			}
		}
	}

	h.respondStatus(w, http.StatusOK, "ok")
}

func (h *Webhook) processMessage(ctx context.Context, msg message) {
	if msg.Type != "text" || msg.From == "" {
		return
	}

	urls := integrations.ExtractURLs(msg.Text.Body)
	if len(urls) == 0 {
		h.sendMessage(ctx, msg.From,
			"🛡️ *LinkGuard Scanner*\n\nSend me a link to scan for scams, or include a link in your message and I'll analyze it automatically.")
		return
	}

	for _, u := range urls {
		h.scanAndReply(ctx, msg.From, u)
	}
}

func (h *Webhook) scanAndReply(ctx context.Context, to, url string) {
	result, err := h.scanner.Scan(ctx, url)
	if err != nil {
		h.logger.Error().Err(err).Str("url", url).Msg("scan failed")
		h.sendMessage(ctx, to, "❌ Error scanning link. Please try again later.")
		return
	}

	h.sendMessage(ctx, to, FormatVerdict(result))
}

// sendMessage sends a text message via the WhatsApp Business API
func (h *Webhook) sendMessage(ctx context.Context, to, text string) {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]string{"body": text},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal message payload")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to build message request")
		return
	}
	req.Header.Set("Authorization", "Bearer "+h.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to send WhatsApp message")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		h.logger.Warn().Int("status", resp.StatusCode).Msg("WhatsApp API error")
		return
	}

	h.logger.Debug().Str("to", to).Msg("message sent")
}

func (h *Webhook) respondStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

// FormatVerdict renders a scan result as a WhatsApp text message
func FormatVerdict(result *models.ScanResponse) string {
	var sb strings.Builder

	if result.IsScam {
		sb.WriteString("⚠️ *SCAM DETECTED*\n\n")
		fmt.Fprintf(&sb, "*Risk Score:* %.1f%%\n", result.Score*100)
		sb.WriteString(scoreBar(result.Score))
		sb.WriteString("\n\n*Detection Reasons:*\n")
		for i, reason := range result.Reasons {
			if i == 5 {
				break
			}
			sb.WriteString("• ")
			sb.WriteString(reason)
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "\n*URL:* %s\n", result.URL)
		sb.WriteString("\n⚠️ *Warning:* This link appears to be a scam. Do not click or provide any personal information.")
	} else {
		sb.WriteString("✅ *Link Analysis Complete*\n\n")
		fmt.Fprintf(&sb, "*Risk Score:* %.1f%%\n", result.Score*100)
		sb.WriteString("\n*Status:* Appears safe, but always exercise caution when clicking links.\n")
		fmt.Fprintf(&sb, "\n*URL:* %s", result.URL)
	}

	return sb.String()
}

func scoreBar(score float64) string {
	filled := int(score * 10)
	if filled > 10 {
		filled = 10
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
}
