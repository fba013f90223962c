// Package telegram receives bot webhook updates, scans links found in
// messages, and replies with the verdict.
package telegram

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

// Webhook handles Telegram bot webhook updates
type Webhook struct {
	scanner    Scanner
	httpClient *http.Client
	baseURL    string
	secret     string
	logger     *logger.Logger
}

// Update is the subset of the Telegram update payload we consume
type Update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		MessageID int64  `json:"message_id"`
		Text      string `json:"text"`
		Chat      struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		From struct {
			Username string `json:"username"`
		} `json:"from"`
	} `json:"message"`
}

// NewWebhook creates a Telegram webhook handler. Returns nil when the
// integration is disabled or no bot token is configured.
func NewWebhook(cfg config.TelegramConfig, scanner Scanner, log *logger.Logger) *Webhook {
	if !cfg.Enabled || cfg.BotToken == "" {
		return nil
	}

	return &Webhook{
		scanner:    scanner,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    "https://api.telegram.org/bot" + cfg.BotToken,
		secret:     cfg.WebhookSecret,
		logger:     log.WithComponent("telegram"),
	}
}

// Handle processes POST /webhooks/telegram. Telegram retries failed
// deliveries, so all processing errors still answer 200.
func (h *Webhook) Handle(w http.ResponseWriter, r *http.Request) {
	if h.secret != "" && r.Header.Get("X-Telegram-Bot-Api-Secret-Token") != h.secret {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var update Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.logger.Warn().Err(err).Msg("failed to decode update")
		w.WriteHeader(http.StatusOK)
		return
	}

	if update.Message == nil || update.Message.Text == "" {
		w.WriteHeader(http.StatusOK)
		return
	}

	h.processMessage(r.Context(), update.Message.Chat.ID, update.Message.Text)
	w.WriteHeader(http.StatusOK)
}

func (h *Webhook) processMessage(ctx context.Context, chatID int64, text string) {
	switch {
	case strings.HasPrefix(text, "/start"):
		h.sendMessage(ctx, chatID, startMessage)
		return
	case strings.HasPrefix(text, "/help"):
		h.sendMessage(ctx, chatID, helpMessage)
		return
	case strings.HasPrefix(text, "/scan"):
		arg := strings.TrimSpace(strings.TrimPrefix(text, "/scan"))
		if arg == "" {
			h.sendMessage(ctx, chatID, "Please provide a URL to scan.\nUsage: /scan <url>")
			return
		}
		h.scanAndReply(ctx, chatID, arg)
		return
	}

	urls := integrations.ExtractURLs(text)
	for _, u := range urls {
		h.scanAndReply(ctx, chatID, u)
	}
}

func (h *Webhook) scanAndReply(ctx context.Context, chatID int64, url string) {
	result, err := h.scanner.Scan(ctx, url)
	if err != nil {
		h.logger.Error().Err(err).Str("url", url).Msg("scan failed")
		h.sendMessage(ctx, chatID, "❌ Error scanning link. Please try again later.")
		return
	}

	h.sendMessage(ctx, chatID, FormatVerdict(result))
}

// sendMessage calls the Telegram Bot API sendMessage method
func (h *Webhook) sendMessage(ctx context.Context, chatID int64, text string) {
	payload := map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal sendMessage payload")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/sendMessage", bytes.NewReader(body))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to build sendMessage request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to send Telegram message")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		h.logger.Warn().Int("status", resp.StatusCode).Msg("Telegram API error")
	}
}

// FormatVerdict renders a scan result as a Markdown chat message
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
		fmt.Fprintf(&sb, "\n*URL:* `%s`\n", result.URL)
		sb.WriteString("\n⚠️ *Warning:* This link appears to be a scam. Do not click or provide any personal information.")
	} else {
		sb.WriteString("✅ *Link Analysis Complete*\n\n")
		fmt.Fprintf(&sb, "*Risk Score:* %.1f%%\n", result.Score*100)
		sb.WriteString("\n*Status:* Appears safe, but always exercise caution when clicking links.\n")
		fmt.Fprintf(&sb, "\n*URL:* `%s`", result.URL)
	}

	return sb.String()
}

// scoreBar renders a ten-segment risk gauge
func scoreBar(score float64) string {
	filled := int(score * 10)
	if filled > 10 {
		filled = 10
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
}

const startMessage = `🛡️ *Welcome to LinkGuard*

I automatically scan links in your messages to detect potential scams and phishing attempts.

*Commands:*
/scan <url> - Manually scan a URL
/help - Show this help message

*How it works:*
Just send me a message with a link, and I'll analyze it automatically. I'll warn you if I detect any scam indicators.

Stay safe! 🚀`

const helpMessage = `*LinkGuard Commands:*

/start - Start the bot
/scan <url> - Manually scan a URL for scams
/help - Show this help message

*Automatic Scanning:*
I automatically detect and scan links in your messages. No need to use commands!

*What I detect:*
• Phishing websites
• Fake shopping sites
• Crypto scams
• Suspicious domains
• And more...`
