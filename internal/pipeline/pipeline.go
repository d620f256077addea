// Package pipeline implements the search-augmentation core: deciding
// whether to search, synthesizing a query, retrieving and judging
// candidates, and extracting readable context for the final answer.
package pipeline

import (
	"context"
	"log"
	"time"

	"github.com/mohammad-safakhou/websage/config"
	"github.com/mohammad-safakhou/websage/internal/telemetry"
	"github.com/mohammad-safakhou/websage/models"
	"github.com/mohammad-safakhou/websage/provider"
	"github.com/mohammad-safakhou/websage/tools/web_fetch"
	"github.com/mohammad-safakhou/websage/tools/web_search"
)

// Orchestrator drives one pipeline run through a bounded loop that consumes
// a shrinking candidate list and returns either extracted context or
// no-context. Candidates are tried strictly one at a time.
type Orchestrator struct {
	cfg       config.PipelineConfig
	searchK   int
	logger    *log.Logger
	telemetry *telemetry.Telemetry

	classifier  *DecisionClassifier
	synthesizer *QuerySynthesizer
	selector    *CandidateSelector
	gate        *RelevanceGate
	searcher    web_search.WebSearcher
	fetcher     web_fetch.WebFetcher
}

func NewOrchestrator(cfg *config.Config, prov provider.Provider, searcher web_search.WebSearcher, fetcher web_fetch.WebFetcher, logger *log.Logger, tele *telemetry.Telemetry) *Orchestrator {
	return &Orchestrator{
		cfg:         cfg.Pipeline,
		searchK:     cfg.Search.MaxResults,
		logger:      logger,
		telemetry:   tele,
		classifier:  NewDecisionClassifier(prov, cfg.LLM.DecisionTemperature, logger, tele),
		synthesizer: NewQuerySynthesizer(prov, cfg.LLM.PromptTemperature, logger, tele),
		selector:    NewCandidateSelector(prov, cfg.LLM.PromptTemperature, logger, tele),
		gate:        NewRelevanceGate(prov, cfg.LLM.PromptTemperature, cfg.Pipeline.RelevanceMaxChars, logger, tele),
		searcher:    searcher,
		fetcher:     fetcher,
	}
}

// ShouldSearch reports whether the latest user turn needs a web search.
func (o *Orchestrator) ShouldSearch(ctx context.Context, conv *models.Conversation) bool {
	return o.classifier.ShouldSearch(ctx, conv)
}

// Run executes one pipeline run for the pending user request. Every failure
// inside degrades to a narrower fallback or to no-context, never to an
// error: the enclosing session must survive anything that happens here.
func (o *Orchestrator) Run(ctx context.Context, userPrompt string) models.Outcome {
	started := time.Now()
	outcome := o.run(ctx, userPrompt)
	o.telemetry.ObserveStage("pipeline", started)
	if _, ok := outcome.Context(); ok {
		o.telemetry.PipelineRuns.WithLabelValues("context").Inc()
	} else {
		o.telemetry.PipelineRuns.WithLabelValues("no_context").Inc()
	}
	return outcome
}

func (o *Orchestrator) run(ctx context.Context, userPrompt string) models.Outcome {
	query, err := o.synthesizer.Synthesize(ctx, userPrompt)
	if err != nil {
		o.logger.Printf("pipeline aborted: %v", err)
		return models.NoContext()
	}

	searchStart := time.Now()
	o.telemetry.Searches.Inc()
	working, err := o.searcher.Search(ctx, query, o.searchK)
	o.telemetry.ObserveStage("search", searchStart)
	if err != nil {
		o.logger.Printf("pipeline aborted: search failed: %v", err)
		return models.NoContext()
	}
	if len(working) == 0 {
		o.logger.Printf("pipeline aborted: no search results")
		return models.NoContext()
	}

	// Judged-selection budget shared across the whole loop.
	budget := o.cfg.SelectorRetries

	rounds := len(working)
	if rounds > o.cfg.SelectorRetries {
		rounds = o.cfg.SelectorRetries
	}

	for i := 0; i < rounds; i++ {
		if len(working) == 0 {
			break
		}

		cand, rest := o.takeCandidate(ctx, working, userPrompt, query, &budget)
		working = rest

		fetchStart := time.Now()
		page, err := o.fetcher.Fetch(ctx, cand.Link)
		o.telemetry.ObserveStage("extract", fetchStart)
		if err != nil {
			o.telemetry.ExtractionFailures.Inc()
			o.logger.Printf("extraction failed for %s: %v", cand.Link, err)
			continue
		}

		if o.gate.IsRelevant(ctx, page.Text, userPrompt, query) {
			o.logger.Printf("relevant content found from: %s", cand.Link)
			return models.ExtractedContext(page.Text)
		}
		o.logger.Printf("content from %s deemed not relevant, trying next result", cand.Link)
	}

	o.logger.Printf("no relevant context found after trying available results")
	return models.NoContext()
}

// takeCandidate removes and returns the candidate to try next: the model's
// pick when the selector lands a valid ordinal, otherwise the first of the
// working list (FIFO degrade — never a hard failure). Ordinals are
// re-labelled first so the prompt always matches the current list.
func (o *Orchestrator) takeCandidate(ctx context.Context, working []models.SearchCandidate, userPrompt, query string, budget *int) (models.SearchCandidate, []models.SearchCandidate) {
	for i := range working {
		working[i].Ordinal = i
	}

	idx, ok := o.selector.Select(ctx, working, userPrompt, query, budget)
	if !ok || idx < 0 || idx >= len(working) {
		// idx is validated again at removal time as a guard against a
		// selection that no longer matches the list.
		o.logger.Printf("no judged selection, falling back to first remaining result")
		return working[0], working[1:]
	}

	cand := working[idx]
	return cand, append(working[:idx], working[idx+1:]...)
}
