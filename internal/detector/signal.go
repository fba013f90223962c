package detector

import (
	"math"

	"linkguard/internal/domain/models"
)

// Signal breakdown keys, one per analyzer
const (
	SignalURLPattern = "url_analysis"
	SignalDomain     = "domain_analysis"
	SignalContent    = "content_analysis"
	SignalTransport  = "ssl_analysis"
	SignalExtra      = "ai_analysis"
	SignalKnownScam  = "known_scam"
)

// newSignal builds a Signal with the score clamped to [0,1]. Every analyzer
// returns through here so the aggregator never sees an out-of-range score.
func newSignal(score float64, reasons []string) models.Signal {
	return models.Signal{
		Score:   clamp(score, 0, 1),
		Reasons: reasons,
	}
}

// clamp clamps a value between min and max
func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// round3 rounds a score to 3 decimal places for presentation
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// dedupeReasons removes duplicate reasons while keeping first-seen order
func dedupeReasons(reasons []string) []string {
	seen := make(map[string]struct{}, len(reasons))
	out := make([]string, 0, len(reasons))
	for _, r := range reasons {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
