package detector

import (
	"net/url"
	"strings"
)

// NormalizeURL coerces a raw URL into an absolute one. Input without an
// http:// or https:// scheme gets https:// prepended. It never fails;
// malformed input flows through to the analyzers, which degrade to empty
// signals instead of aborting the scan.
func NormalizeURL(raw string) string {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return "https://" + raw
	}
	return raw
}

// Input is the shared input for one analysis, computed once per Analyze
// call. Analyzers read it concurrently and must not mutate it.
type Input struct {
	URL      string // normalized absolute URL
	Scheme   string
	Host     string // lowercased host, may include a port
	Hostname string // host without port, used for transport probing
}

func newInput(raw string) Input {
	normalized := NormalizeURL(raw)
	in := Input{URL: normalized}

	u, err := url.Parse(normalized)
	if err != nil {
		return in
	}
	in.Scheme = u.Scheme
	in.Host = strings.ToLower(u.Host)
	in.Hostname = strings.ToLower(u.Hostname())
	return in
}
