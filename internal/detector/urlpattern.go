package detector

import (
	"regexp"
	"strings"

	"linkguard/internal/domain/models"
)

// Patterns that make a URL worth a closer look: IPv4 literals in place of a
// hostname, and the common URL shorteners scammers hide behind.
var suspiciousURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}`),
	regexp.MustCompile(`(?i)bit\.ly|tinyurl|t\.co|goo\.gl`),
}

// analyzeURLPatterns scores lexical features of the URL string itself.
// Pure and deterministic, no I/O.
func analyzeURLPatterns(in Input) models.Signal {
	var score float64
	var reasons []string

	for _, re := range suspiciousURLPatterns {
		if re.MatchString(in.URL) {
			score += 0.3
			reasons = append(reasons, "Suspicious URL pattern detected")
		}
	}

	if len(in.URL) > 200 {
		score += 0.2
		reasons = append(reasons, "Unusually long URL")
	}

	if len(strings.Split(in.Host, ".")) > 3 {
		score += 0.2
		reasons = append(reasons, "Multiple subdomains detected")
	}

	if strings.Count(in.URL, "%") > 3 {
		score += 0.3
		reasons = append(reasons, "Suspicious URL encoding")
	}

	return newSignal(score, reasons)
}
