package web_search

import (
	"context"
	"errors"
	"time"

	"github.com/mohammad-safakhou/websage/models"
	"github.com/mohammad-safakhou/websage/tools/web_search/duckduckgo"
)

// WebSearcher executes one web search and returns a small ranked candidate
// list with sequential ordinals in document order.
type WebSearcher interface {
	Search(ctx context.Context, q string, k int) ([]models.SearchCandidate, error)
}

type Provider string

const (
	DuckDuckGoProvider Provider = "duckduckgo"
)

var ErrUnsupportedProvider = errors.New("unsupported provider")

func NewWebSearcher(provider Provider, endpoint, userAgent string, timeout time.Duration) (WebSearcher, error) {
	switch provider {
	case DuckDuckGoProvider:
		return duckduckgo.New(endpoint, userAgent, timeout), nil
	default:
		return nil, ErrUnsupportedProvider
	}
}
