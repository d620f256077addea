package pipeline

import (
	"context"
	"log"

	"github.com/mohammad-safakhou/websage/internal/telemetry"
	"github.com/mohammad-safakhou/websage/provider"
)

// RelevanceGate judges whether extracted page text answers the request.
type RelevanceGate struct {
	provider    provider.Provider
	temperature float64
	maxChars    int
	logger      *log.Logger
	telemetry   *telemetry.Telemetry
}

func NewRelevanceGate(prov provider.Provider, temperature float64, maxChars int, logger *log.Logger, tele *telemetry.Telemetry) *RelevanceGate {
	return &RelevanceGate{provider: prov, temperature: temperature, maxChars: maxChars, logger: logger, telemetry: tele}
}

// IsRelevant treats call failures and ambiguous replies as not relevant; the
// caller moves on to the next candidate.
func (g *RelevanceGate) IsRelevant(ctx context.Context, pageText, userPrompt, query string) bool {
	reply, err := g.provider.Chat(ctx, RelevancePrompt{
		PageText:    pageText,
		MaxChars:    g.maxChars,
		UserPrompt:  userPrompt,
		Query:       query,
		Temperature: g.temperature,
	}.Request())
	g.telemetry.RecordLLM("relevance", err)
	if err != nil {
		g.logger.Printf("relevance call failed: %v", err)
		return false
	}

	decision := containsTrue(reply)
	g.logger.Printf("content relevance decision: %v", decision)
	return decision
}
