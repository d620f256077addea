package pipeline

import (
	"context"
	"log"

	"github.com/mohammad-safakhou/websage/internal/telemetry"
	"github.com/mohammad-safakhou/websage/models"
	"github.com/mohammad-safakhou/websage/provider"
)

// DecisionClassifier judges whether the latest user turn needs a web search.
type DecisionClassifier struct {
	provider    provider.Provider
	temperature float64
	logger      *log.Logger
	telemetry   *telemetry.Telemetry
}

func NewDecisionClassifier(prov provider.Provider, temperature float64, logger *log.Logger, tele *telemetry.Telemetry) *DecisionClassifier {
	return &DecisionClassifier{provider: prov, temperature: temperature, logger: logger, telemetry: tele}
}

// ShouldSearch returns false without any external call when the history is
// empty or its last turn is not a user turn. Call failures and ambiguous
// replies also yield false: the bias is toward not searching.
func (c *DecisionClassifier) ShouldSearch(ctx context.Context, conv *models.Conversation) bool {
	last, ok := conv.Last()
	if !ok || last.Role != models.RoleUser {
		c.logger.Printf("warn: cannot decide to search without a preceding user turn")
		return false
	}

	reply, err := c.provider.Chat(ctx, DecisionPrompt{LastUserTurn: last, Temperature: c.temperature}.Request())
	c.telemetry.RecordLLM("decision", err)
	if err != nil {
		c.logger.Printf("decision call failed: %v", err)
		return false
	}

	decision := containsTrue(reply)
	c.logger.Printf("decision to search: %v", decision)
	return decision
}
