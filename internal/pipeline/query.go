package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/mohammad-safakhou/websage/internal/telemetry"
	"github.com/mohammad-safakhou/websage/provider"
	"github.com/mohammad-safakhou/websage/utils"
)

// QuerySynthesizer turns the user's request into a concise search query.
type QuerySynthesizer struct {
	provider    provider.Provider
	temperature float64
	logger      *log.Logger
	telemetry   *telemetry.Telemetry
}

func NewQuerySynthesizer(prov provider.Provider, temperature float64, logger *log.Logger, tele *telemetry.Telemetry) *QuerySynthesizer {
	return &QuerySynthesizer{provider: prov, temperature: temperature, logger: logger, telemetry: tele}
}

// Synthesize returns the generated query with at most one matching quote
// pair stripped from its ends. A call failure aborts the whole pipeline: no
// search is attempted without a query.
func (s *QuerySynthesizer) Synthesize(ctx context.Context, userPrompt string) (string, error) {
	reply, err := s.provider.Chat(ctx, QueryPrompt{UserPrompt: userPrompt, Temperature: s.temperature}.Request())
	s.telemetry.RecordLLM("query", err)
	if err != nil {
		return "", fmt.Errorf("query synthesis failed: %w", err)
	}

	query := utils.StripQuotes(strings.TrimSpace(reply))
	if query == "" {
		return "", fmt.Errorf("query synthesis returned empty query")
	}
	s.logger.Printf("generated search query: %s", query)
	return query, nil
}
