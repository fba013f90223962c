// Package integrations holds helpers shared by the chat platform
// webhook adapters.
package integrations

import "regexp"

var urlPattern = regexp.MustCompile(`https?://[^\s<>"']+`)

// ExtractURLs returns all http(s) URLs found in a chat message, in order
// of appearance, without duplicates.
func ExtractURLs(text string) []string {
	matches := urlPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}
