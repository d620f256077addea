package web_fetch

import (
	"context"
	"errors"
	"time"

	"github.com/mohammad-safakhou/websage/tools/web_fetch/readability"
)

const (
	DefaultTimeout  = 15 * time.Second
	MaxCharsDefault = 20000
)

// Result is the readable main content extracted from one page.
type Result = readability.Result

// WebFetcher fetches a URL and extracts its main readable text. Fetch and
// extraction failures are returned as errors; callers treat them as
// non-fatal and move on to the next candidate.
type WebFetcher interface {
	Fetch(ctx context.Context, link string) (Result, error)
}

type FetcherType string

const (
	ReadabilityFetcherType FetcherType = "readability"
)

var ErrUnsupportedFetcher = errors.New("unsupported fetcher type")

func NewWebFetcher(fetcherType FetcherType, timeout time.Duration, maxChars int, userAgent string) (WebFetcher, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxChars <= 0 {
		maxChars = MaxCharsDefault
	}

	switch fetcherType {
	case ReadabilityFetcherType:
		return readability.New(timeout, maxChars, userAgent), nil
	default:
		return nil, ErrUnsupportedFetcher
	}
}
