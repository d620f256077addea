package pipeline

import (
	"context"
	"log"
	"strconv"
	"strings"

	"github.com/mohammad-safakhou/websage/internal/telemetry"
	"github.com/mohammad-safakhou/websage/models"
	"github.com/mohammad-safakhou/websage/provider"
)

// CandidateSelector asks the model for the ordinal of the best remaining
// candidate. Attempts draw from a budget shared across the whole candidate
// loop of one pipeline run, deliberately limiting total judgment calls.
type CandidateSelector struct {
	provider    provider.Provider
	temperature float64
	logger      *log.Logger
	telemetry   *telemetry.Telemetry
}

func NewCandidateSelector(prov provider.Provider, temperature float64, logger *log.Logger, tele *telemetry.Telemetry) *CandidateSelector {
	return &CandidateSelector{provider: prov, temperature: temperature, logger: logger, telemetry: tele}
}

// Select retries until the model names a valid ordinal or budget runs out,
// decrementing budget per attempt. Exhaustion yields ok=false — the
// no-selection sentinel callers must treat as a normal outcome.
func (s *CandidateSelector) Select(ctx context.Context, cands []models.SearchCandidate, userPrompt, query string, budget *int) (int, bool) {
	if len(cands) == 0 {
		return 0, false
	}

	// The prompt is identical on every retry; the budget is the only thing
	// that moves.
	req := SelectionPrompt{
		Candidates:  cands,
		UserPrompt:  userPrompt,
		Query:       query,
		Temperature: s.temperature,
	}.Request()

	for *budget > 0 {
		*budget--

		reply, err := s.provider.Chat(ctx, req)
		s.telemetry.RecordLLM("selection", err)
		if err != nil {
			s.logger.Printf("selection call failed: %v", err)
			s.telemetry.SelectorRetries.Inc()
			continue
		}

		id, err := strconv.Atoi(strings.TrimSpace(reply))
		if err != nil {
			s.logger.Printf("selection reply is not an integer: %q", reply)
			s.telemetry.SelectorRetries.Inc()
			continue
		}
		if id < 0 || id >= len(cands) {
			s.logger.Printf("selection reply out of range: %d (candidates: %d)", id, len(cands))
			s.telemetry.SelectorRetries.Inc()
			continue
		}
		return id, true
	}

	return 0, false
}
