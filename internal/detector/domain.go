package detector

import (
	"fmt"
	"strings"

	"golang.org/x/net/publicsuffix"

	"linkguard/internal/domain/models"
)

// Common typosquat variants of heavily phished brands. A hit here is close
// to conclusive on its own, hence the heavy weight.
var typosquatVariants = []string{"amazom", "gooogle", "facebok", "microsft"}

// TLDs that rarely host scams. Country suffixes under "co." (co.uk, co.jp,
// ...) are exempted as a family.
var commonTLDs = map[string]struct{}{
	"com":   {},
	"org":   {},
	"net":   {},
	"edu":   {},
	"gov":   {},
	"co.uk": {},
	"de":    {},
	"fr":    {},
	"au":    {},
}

// analyzeDomain scores the registrable domain and public suffix of the host.
// Deterministic and I/O-free; a host we cannot make sense of degrades to an
// empty signal rather than failing the scan.
func analyzeDomain(in Input) models.Signal {
	if in.Hostname == "" {
		return models.Signal{}
	}

	var score float64
	var reasons []string

	for _, typo := range typosquatVariants {
		if strings.Contains(in.Host, typo) {
			score += 0.8
			reasons = append(reasons, "Possible typosquatting detected")
			break
		}
	}

	suffix, _ := publicsuffix.PublicSuffix(in.Hostname)
	if _, ok := commonTLDs[suffix]; !ok && !strings.HasPrefix(suffix, "co.") {
		score += 0.2
		reasons = append(reasons, fmt.Sprintf("Uncommon TLD: %s", suffix))
	}

	return newSignal(score, reasons)
}
