// Package ai provides an LLM-backed risk scorer that supplements the
// rule-based analyzers with a model's judgment of a page.
package ai

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sashabaranov/go-openai"

	"linkguard/internal/config"
	"linkguard/internal/domain/models"
	"linkguard/pkg/logger"
)

const (
	maxTokens       = 512
	maxContentChars = 500
	defaultModel    = "gpt-4o-mini"
)

const systemPrompt = `You are a scam and phishing detection assistant. ` +
	`You analyze website URLs and content previews for scam indicators: ` +
	`phishing attempts, fake websites, financial scams, suspicious patterns. ` +
	`Respond in exactly this format:
SCORE: [0.0-1.0]
REASONS: [comma-separated list of reasons, or "none"]`

// Analyzer scores URLs using an OpenAI chat model
type Analyzer struct {
	client     *openai.Client
	httpClient *http.Client
	model      string
	logger     *logger.Logger
}

// NewAnalyzer creates an LLM analyzer. Returns nil when AI analysis is
// disabled or no API key is configured, which callers treat as absent.
func NewAnalyzer(cfg config.AIConfig, log *logger.Logger) *Analyzer {
	if !cfg.Enabled || cfg.APIKey == "" {
		return nil
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	return &Analyzer{
		client:     openai.NewClient(cfg.APIKey),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		model:      model,
		logger:     log.WithComponent("ai-analyzer"),
	}
}

// Score analyzes a URL with the model and returns a risk signal. A nil
// signal means the model had nothing usable to say.
func (a *Analyzer) Score(ctx context.Context, url string) (*models.Signal, error) {
	preview := a.fetchPreview(ctx, url)

	req := openai.ChatCompletionRequest{
		Model:       a.model,
		MaxTokens:   maxTokens,
		Temperature: 0.2,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(url, preview)},
		},
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from model")
	}

	signal, err := parseResponse(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}

	a.logger.Debug().
		Str("url", url).
		Float64("score", signal.Score).
		Msg("AI analysis complete")

	return signal, nil
}

// fetchPreview grabs a short plain-text preview of the page body. Fetch
// failures just degrade the prompt to URL-only analysis.
func (a *Analyzer) fetchPreview(ctx context.Context, url string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ""
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return ""
	}

	preview := strings.Join(strings.Fields(string(body)), " ")
	return truncate(preview, maxContentChars)
}

// truncate caps a string at n bytes without splitting a UTF-8 sequence
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func buildPrompt(url, preview string) string {
	var sb strings.Builder
	sb.WriteString("Analyze this website URL and content for scam indicators:\n\n")
	sb.WriteString("URL: ")
	sb.WriteString(url)
	sb.WriteString("\n")
	if preview != "" {
		sb.WriteString("Content preview: ")
		sb.WriteString(preview)
		sb.WriteString("\n")
	}
	sb.WriteString("\nProvide a scam risk score (0.0 to 1.0) and list specific reasons if it appears to be a scam.")
	return sb.String()
}

// parseResponse extracts the score and reasons from the model's reply.
// The parser is lenient about casing, whitespace, and extra prose around
// the expected SCORE/REASONS lines.
func parseResponse(content string) (*models.Signal, error) {
	var (
		score     float64
		scoreSeen bool
		reasons   []string
	)

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		upper := strings.ToUpper(line)

		switch {
		case strings.HasPrefix(upper, "SCORE:"):
			raw := strings.TrimSpace(line[len("SCORE:"):])
			raw = strings.Trim(raw, "[]")
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("bad score %q: %w", raw, err)
			}
			score = v
			scoreSeen = true

		case strings.HasPrefix(upper, "REASONS:"):
			raw := strings.TrimSpace(line[len("REASONS:"):])
			raw = strings.Trim(raw, "[]")
			for _, r := range strings.Split(raw, ",") {
				r = strings.TrimSpace(r)
				if r == "" || strings.EqualFold(r, "none") {
					continue
				}
				reasons = append(reasons, r)
			}
		}
	}

	if !scoreSeen {
		return nil, fmt.Errorf("no score line in response")
	}

	return &models.Signal{Score: score, Reasons: reasons}, nil
}
