package provider

import (
	"context"
	"errors"

	"github.com/mohammad-safakhou/websage/config"
	"github.com/mohammad-safakhou/websage/models"
	provmodels "github.com/mohammad-safakhou/websage/provider/models"
	ollama_provider "github.com/mohammad-safakhou/websage/provider/ollama"
	openai_provider "github.com/mohammad-safakhou/websage/provider/openai"
)

// Client represents different LLM providers
type Client string

const (
	Ollama Client = "ollama"
	OpenAI Client = "openai"
)

type (
	Message     = provmodels.Message
	ChatRequest = provmodels.ChatRequest
)

// Provider is the interface that all LLM implementations must satisfy.
type Provider interface {
	// Chat issues one blocking call and returns the full reply.
	Chat(ctx context.Context, req ChatRequest) (string, error)
	// ChatStream issues one streaming call, invoking emit per token, and
	// returns the accumulated reply.
	ChatStream(ctx context.Context, req ChatRequest, emit func(token string) error) (string, error)
}

// FromTurns maps conversation turns into provider messages.
func FromTurns(turns []models.Turn) []Message {
	out := make([]Message, len(turns))
	for i, t := range turns {
		out[i] = Message{Role: string(t.Role), Content: t.Content}
	}
	return out
}

// NewProvider creates a new LLM client based on the provided configuration.
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	switch Client(cfg.Provider) {
	case Ollama:
		return ollama_provider.New(cfg.BaseURL, cfg.Model, cfg.Timeout, cfg.StreamTimeout, cfg.MaxTokens), nil
	case OpenAI:
		return openai_provider.New(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Timeout, cfg.StreamTimeout, cfg.MaxTokens), nil
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}
