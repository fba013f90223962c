package detector

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bare domain", "example.com", "https://example.com"},
		{"http kept", "http://example.com", "http://example.com"},
		{"https kept", "https://example.com", "https://example.com"},
		{"path without scheme", "example.com/login", "https://example.com/login"},
		{"empty", "", "https://"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeURL(tt.raw))
		})
	}
}

func TestAnalyzeURLPatterns_IPLiteral(t *testing.T) {
	sig := analyzeURLPatterns(newInput("http://192.168.1.1/scam"))

	assert.Greater(t, sig.Score, 0.0)
	assert.Contains(t, sig.Reasons, "Suspicious URL pattern detected")
}

func TestAnalyzeURLPatterns_Shortener(t *testing.T) {
	sig := analyzeURLPatterns(newInput("https://bit.ly/3xYz"))

	assert.Contains(t, sig.Reasons, "Suspicious URL pattern detected")
}

func TestAnalyzeURLPatterns_LongURL(t *testing.T) {
	long := "https://example.com/" + strings.Repeat("a", 200)
	sig := analyzeURLPatterns(newInput(long))

	assert.Contains(t, sig.Reasons, "Unusually long URL")
}

func TestAnalyzeURLPatterns_Subdomains(t *testing.T) {
	sig := analyzeURLPatterns(newInput("https://login.secure.account.example.com"))

	assert.Contains(t, sig.Reasons, "Multiple subdomains detected")
}

func TestAnalyzeURLPatterns_Encoding(t *testing.T) {
	sig := analyzeURLPatterns(newInput("https://example.com/?q=%41%42%43%44"))

	assert.Contains(t, sig.Reasons, "Suspicious URL encoding")
}

func TestAnalyzeURLPatterns_Clean(t *testing.T) {
	sig := analyzeURLPatterns(newInput("https://example.com/about"))

	assert.Zero(t, sig.Score)
	assert.Empty(t, sig.Reasons)
}

func TestAnalyzeURLPatterns_ClampedAndIdempotent(t *testing.T) {
	// IP literal + shortener-free long encoded URL stacks several checks
	raw := "http://192.168.1.1/" + strings.Repeat("x", 200) + "?a=%41%42%43%44"

	first := analyzeURLPatterns(newInput(raw))
	second := analyzeURLPatterns(newInput(raw))

	assert.LessOrEqual(t, first.Score, 1.0)
	assert.Equal(t, first, second)
}

func TestAnalyzeDomain_Typosquatting(t *testing.T) {
	sig := analyzeDomain(newInput("https://amazom-support.com"))

	assert.GreaterOrEqual(t, sig.Score, 0.8)
	assert.Contains(t, sig.Reasons, "Possible typosquatting detected")
}

func TestAnalyzeDomain_UncommonTLD(t *testing.T) {
	sig := analyzeDomain(newInput("https://win-a-prize.xyz"))

	assert.InDelta(t, 0.2, sig.Score, 1e-9)
	assert.Contains(t, sig.Reasons, "Uncommon TLD: xyz")
}

func TestAnalyzeDomain_CommonTLD(t *testing.T) {
	for _, raw := range []string{
		"https://example.com",
		"https://example.org",
		"https://example.co.uk",
		"https://example.co.jp", // co. prefix family exemption
	} {
		sig := analyzeDomain(newInput(raw))
		assert.Zero(t, sig.Score, raw)
	}
}

func TestAnalyzeDomain_MalformedHost(t *testing.T) {
	sig := analyzeDomain(Input{URL: "https://", Scheme: "https"})

	assert.Zero(t, sig.Score)
	assert.Empty(t, sig.Reasons)
}

func TestAnalyzeDomain_Deterministic(t *testing.T) {
	in := newInput("https://gooogle.top")

	assert.Equal(t, analyzeDomain(in), analyzeDomain(in))
}

func TestNewSignalClamps(t *testing.T) {
	assert.Equal(t, 1.0, newSignal(1.7, nil).Score)
	assert.Equal(t, 0.0, newSignal(-0.2, nil).Score)
	assert.Equal(t, 0.5, newSignal(0.5, nil).Score)
}

func TestDedupeReasons(t *testing.T) {
	got := dedupeReasons([]string{"a", "b", "a", "c", "b"})

	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestRound3(t *testing.T) {
	assert.Equal(t, 0.333, round3(1.0/3.0))
	assert.Equal(t, 0.7, round3(0.7004))
}
