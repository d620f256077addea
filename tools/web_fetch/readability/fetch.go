// Package readability: plain HTTP fetch + main-content extraction.
package readability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

// Result is the readable main content extracted from one page.
type Result struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

type Fetch struct {
	Timeout   time.Duration
	MaxChars  int
	UserAgent string
	client    *http.Client
}

func New(timeout time.Duration, maxChars int, userAgent string) *Fetch {
	return &Fetch{
		Timeout:   timeout,
		MaxChars:  maxChars,
		UserAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
	}
}

// Fetch downloads link and extracts its main text with formatting and link
// markup stripped. It fails on network errors, bad status, or pages where
// extraction yields no text.
func (f *Fetch) Fetch(ctx context.Context, link string) (Result, error) {
	if strings.TrimSpace(link) == "" {
		return Result{}, errors.New("invalid url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("fetch returned status %d", resp.StatusCode)
	}

	article, err := readability.FromReader(resp.Body, mustParseURL(link))
	if err != nil {
		return Result{}, fmt.Errorf("extraction failed: %w", err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return Result{}, errors.New("no main content extracted")
	}
	if f.MaxChars > 0 && len(text) > f.MaxChars {
		text = text[:f.MaxChars]
	}

	return Result{
		URL:   link,
		Title: strings.TrimSpace(article.Title),
		Text:  text,
	}, nil
}

func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}
