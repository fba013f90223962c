package detector

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"linkguard/internal/domain/models"
)

// Vocabulary that shows up on scam and phishing pages far more often than
// on legitimate ones.
var scamKeywords = []string{
	"verify", "confirm", "urgent", "limited time", "act now",
	"click here", "suspended", "locked", "expired", "verify account",
	"win", "prize", "congratulations", "free money", "crypto",
	"investment", "guaranteed returns", "double your money",
}

// Form vocabulary that suggests credential or payment-card harvesting
var sensitiveFields = []string{"password", "ssn", "credit", "card", "pin", "cvv"}

// analyzeContent fetches the page and scores its HTML content. Content
// analysis is best-effort: any fetch or parse failure degrades to an empty
// signal, never an error.
func (d *Detector) analyzeContent(ctx context.Context, in Input, f *fetcher) models.Signal {
	res, err := f.get(ctx, in.URL)
	if err != nil {
		d.logger.Debug().Err(err).Str("url", in.URL).Msg("content fetch failed")
		return models.Signal{}
	}
	if res.StatusCode != http.StatusOK {
		return models.Signal{}
	}

	doc, err := html.Parse(bytes.NewReader(res.Body))
	if err != nil {
		d.logger.Debug().Err(err).Str("url", in.URL).Msg("content parse failed")
		return models.Signal{}
	}

	// Redirects may land on another host; links are judged against the
	// host that actually served the page.
	pageHost := in.Hostname
	if u, err := url.Parse(res.FinalURL); err == nil && u.Hostname() != "" {
		pageHost = strings.ToLower(u.Hostname())
	}

	page := collectPage(doc)
	text := strings.ToLower(page.text.String())

	var score float64
	var reasons []string

	matches := 0
	for _, kw := range scamKeywords {
		if strings.Contains(text, kw) {
			matches++
		}
	}
	if matches > 3 {
		score += 0.4
		reasons = append(reasons, fmt.Sprintf("Multiple scam-related keywords found (%d)", matches))
	}

	for _, formText := range page.forms {
		lower := strings.ToLower(formText)
		for _, field := range sensitiveFields {
			if strings.Contains(lower, field) {
				score += 0.3
				reasons = append(reasons, "Form requesting sensitive information detected")
				break
			}
		}
	}

	if countExternalLinks(page.links, pageHost) < 2 {
		score += 0.2
		reasons = append(reasons, "Very few external links (potential scam site)")
	}

	return newSignal(score, reasons)
}

// countExternalLinks counts distinct anchor targets whose host differs from
// the analyzed page's host. Relative links have no host of their own and do
// not count as external.
func countExternalLinks(hrefs []string, pageHost string) int {
	external := make(map[string]struct{})
	for _, href := range hrefs {
		u, err := url.Parse(href)
		if err != nil {
			continue
		}
		host := strings.ToLower(u.Hostname())
		if host != "" && host != pageHost {
			external[href] = struct{}{}
		}
	}
	return len(external)
}

// pageContent is the flattened view of a parsed HTML document: visible
// text, per-form text, and anchor targets.
type pageContent struct {
	text  strings.Builder
	forms []string
	links []string
}

func collectPage(doc *html.Node) *pageContent {
	page := &pageContent{}
	walk(doc, page)
	return page
}

func walk(n *html.Node, page *pageContent) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style":
			return
		case "form":
			page.forms = append(page.forms, nodeText(n))
		case "a":
			for _, attr := range n.Attr {
				if attr.Key == "href" && attr.Val != "" {
					page.links = append(page.links, attr.Val)
				}
			}
		}
	}
	if n.Type == html.TextNode {
		page.text.WriteString(n.Data)
		page.text.WriteString(" ")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, page)
	}
}

// nodeText flattens the text content under a node, skipping script and style
func nodeText(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return b.String()
}
