// Package chat folds pipeline outcomes back into a conversation and streams
// the final answer, for both the REPL and the HTTP API.
package chat

import (
	"context"
	"fmt"
	"log"

	"github.com/mohammad-safakhou/websage/config"
	"github.com/mohammad-safakhou/websage/internal/pipeline"
	"github.com/mohammad-safakhou/websage/internal/telemetry"
	"github.com/mohammad-safakhou/websage/models"
	"github.com/mohammad-safakhou/websage/provider"
)

// DefaultSystemPrompt seeds every new conversation.
const DefaultSystemPrompt = "You are a helpful assistant. Answer the user's questions clearly and concisely. When a message includes retrieved web information between ---BEGIN INFO--- and ---END INFO--- markers, answer using only that information."

const contextTemplate = "Based on the following information: \n---BEGIN INFO---\n%s\n---END INFO---\n\n" +
	"Please answer this question or address this request: \"%s\""

const failedSearchTemplate = "I tried to find information on the web to answer your request: \"%s\", " +
	"but I couldn't find relevant information or the search failed. " +
	"Please answer based on your general knowledge, or state that you couldn't find the specific information."

// RenderAugmented builds the replacement for the pending user turn from the
// pipeline outcome and the original request.
func RenderAugmented(outcome models.Outcome, originalPrompt string) string {
	if text, ok := outcome.Context(); ok {
		return fmt.Sprintf(contextTemplate, text, originalPrompt)
	}
	return fmt.Sprintf(failedSearchTemplate, originalPrompt)
}

// Chat runs one exchange: append the user turn, maybe augment it through the
// search pipeline, stream the answer, and record it.
type Chat struct {
	cfg       *config.Config
	provider  provider.Provider
	orch      *pipeline.Orchestrator
	logger    *log.Logger
	telemetry *telemetry.Telemetry
}

func NewChat(cfg *config.Config, prov provider.Provider, orch *pipeline.Orchestrator, logger *log.Logger, tele *telemetry.Telemetry) *Chat {
	return &Chat{cfg: cfg, provider: prov, orch: orch, logger: logger, telemetry: tele}
}

// Respond processes input for sess, emitting answer tokens through emit as
// they arrive. On streaming failure the conversation keeps the already
// applied turn replacement but gains no assistant turn; the session itself
// stays usable.
func (c *Chat) Respond(ctx context.Context, sess *Session, input string, emit func(token string) error) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	conv := sess.conv
	conv.Append(models.RoleUser, input)

	if c.orch.ShouldSearch(ctx, conv) {
		c.logger.Printf("web search required")
		outcome := c.orch.Run(ctx, input)
		// Replace, never append: the log must not hold two consecutive
		// user turns.
		conv.ReplacePending(RenderAugmented(outcome, input))
	}

	req := provider.ChatRequest{
		Messages:    provider.FromTurns(conv.Turns()),
		Temperature: c.cfg.LLM.ChatTemperature,
	}
	full, err := c.provider.ChatStream(ctx, req, emit)
	c.telemetry.RecordLLM("chat", err)
	if err != nil {
		return fmt.Errorf("response streaming failed: %w", err)
	}

	conv.Append(models.RoleAssistant, full)
	return nil
}
