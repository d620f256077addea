package pipeline

import (
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/websage/models"
	"github.com/mohammad-safakhou/websage/provider"
	"github.com/mohammad-safakhou/websage/utils"
)

const decisionSystemPrompt = `You are a classifier that decides whether the latest user message requires a web search to answer well.
A search is required when the message asks about current events, live data, recent releases, prices, weather, or anything likely to have changed after your training data.
Respond with only the single word "true" if a web search is required, or "false" if it is not. Do not add any other text.`

const querySystemPrompt = `You are a search query generator. Given a user request, produce one concise web search query that would surface pages answering it.
Respond with only the query text. Do not add quotes, explanations, or any other text.`

const selectionSystemPrompt = `You are selecting the most promising search result for a user request.

SEARCH RESULTS:
%s

USER REQUEST: %s
SEARCH QUERY: %s

Respond with only the integer ID of the single best result. Do not add any other text.`

const relevanceSystemPrompt = `You are judging whether a scraped web page actually answers a user request.

PAGE TEXT:
%s

USER REQUEST: %s
SEARCH QUERY: %s

Respond with only the single word "true" if the page text contains information that answers the request, or "false" if it does not. Do not add any other text.`

// DecisionPrompt asks whether the pending user turn needs a web search.
type DecisionPrompt struct {
	LastUserTurn models.Turn
	Temperature  float64
}

func (p DecisionPrompt) Request() provider.ChatRequest {
	return provider.ChatRequest{
		System:      decisionSystemPrompt,
		Messages:    []provider.Message{{Role: string(p.LastUserTurn.Role), Content: p.LastUserTurn.Content}},
		Temperature: p.Temperature,
	}
}

// QueryPrompt asks for a search query covering the user request.
type QueryPrompt struct {
	UserPrompt  string
	Temperature float64
}

func (p QueryPrompt) Request() provider.ChatRequest {
	return provider.ChatRequest{
		System: querySystemPrompt,
		Messages: []provider.Message{{
			Role:    string(models.RoleUser),
			Content: "CREATE A SEARCH QUERY FOR THIS PROMPT: \n" + p.UserPrompt,
		}},
		Temperature: p.Temperature,
	}
}

// SelectionPrompt asks for the ordinal of the best remaining candidate.
type SelectionPrompt struct {
	Candidates  []models.SearchCandidate
	UserPrompt  string
	Query       string
	Temperature float64
}

func (p SelectionPrompt) Request() provider.ChatRequest {
	blocks := make([]string, len(p.Candidates))
	for i, c := range p.Candidates {
		blocks[i] = fmt.Sprintf("ID: %d\nTitle: %s\nLink: %s\nSnippet: %s\n---", c.Ordinal, c.Title, c.Link, c.Snippet)
	}
	return provider.ChatRequest{
		System:      fmt.Sprintf(selectionSystemPrompt, strings.Join(blocks, "\n"), p.UserPrompt, p.Query),
		Temperature: p.Temperature,
	}
}

// RelevancePrompt asks whether extracted page text answers the request. Page
// text is capped before it enters the prompt.
type RelevancePrompt struct {
	PageText    string
	MaxChars    int
	UserPrompt  string
	Query       string
	Temperature float64
}

func (p RelevancePrompt) Request() provider.ChatRequest {
	return provider.ChatRequest{
		System:      fmt.Sprintf(relevanceSystemPrompt, utils.Truncate(p.PageText, p.MaxChars), p.UserPrompt, p.Query),
		Temperature: p.Temperature,
	}
}

// containsTrue applies the shared boolean-reply rule: true iff the literal
// substring "true" occurs case-insensitively anywhere in the reply.
func containsTrue(reply string) bool {
	return strings.Contains(strings.ToLower(reply), "true")
}
