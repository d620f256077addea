// Package duckduckgo searches the DuckDuckGo HTML endpoint, which needs no
// API key, and parses result blocks out of the returned document.
package duckduckgo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/mohammad-safakhou/websage/models"
)

const (
	DefaultEndpoint = "https://html.duckduckgo.com/html/"

	// Placeholder snippet for result blocks that carry none.
	noDescription = "No description available."
)

type Search struct {
	Endpoint  string
	UserAgent string
	client    *http.Client
}

func New(endpoint, userAgent string, timeout time.Duration) *Search {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Search{
		Endpoint:  endpoint,
		UserAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
	}
}

func (s *Search) Search(ctx context.Context, q string, k int) ([]models.SearchCandidate, error) {
	searchURL := fmt.Sprintf("%s?q=%s", s.Endpoint, url.QueryEscape(q))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return parseResults(string(body), k)
}

// parseResults walks the document for result divs, skipping blocks missing a
// title or link and capping the list at k. Ordinals follow document order.
func parseResults(htmlContent string, k int) ([]models.SearchCandidate, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var out []models.SearchCandidate

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if k > 0 && len(out) >= k {
			return
		}
		if n.Type == html.ElementNode && n.Data == "div" && hasClass(n, "result") {
			title, link, snippet := extractResult(n)
			if title != "" && link != "" {
				if snippet == "" {
					snippet = noDescription
				}
				out = append(out, models.SearchCandidate{
					Ordinal: len(out),
					Title:   title,
					Link:    link,
					Snippet: snippet,
				})
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return out, nil
}

func extractResult(n *html.Node) (title, link, snippet string) {
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			switch {
			case hasClass(n, "result__a"):
				link = cleanRedirect(attrValue(n, "href"))
				title = textContent(n)
			case hasClass(n, "result__snippet"):
				snippet = textContent(n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return title, link, snippet
}

// cleanRedirect unwraps DuckDuckGo's uddg redirect links to the target URL.
func cleanRedirect(link string) string {
	const prefix = "//duckduckgo.com/l/?uddg="
	if !strings.HasPrefix(link, prefix) {
		return link
	}
	decoded, err := url.QueryUnescape(strings.TrimPrefix(link, prefix))
	if err != nil {
		return link
	}
	if idx := strings.Index(decoded, "&"); idx > 0 {
		decoded = decoded[:idx]
	}
	return decoded
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
