package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LLM.Provider != "ollama" {
		t.Errorf("unexpected llm provider: %s", cfg.LLM.Provider)
	}
	if cfg.Search.MaxResults != 5 {
		t.Errorf("unexpected search.max_results: %d", cfg.Search.MaxResults)
	}
	if cfg.Search.Timeout != 10*time.Second {
		t.Errorf("unexpected search.timeout: %s", cfg.Search.Timeout)
	}
	if cfg.Pipeline.SelectorRetries != 3 {
		t.Errorf("unexpected pipeline.selector_retries: %d", cfg.Pipeline.SelectorRetries)
	}
	if cfg.Pipeline.RelevanceMaxChars != 8000 {
		t.Errorf("unexpected pipeline.relevance_max_chars: %d", cfg.Pipeline.RelevanceMaxChars)
	}
	if cfg.LLM.StreamTimeout != 120*time.Second {
		t.Errorf("unexpected llm.stream_timeout: %s", cfg.LLM.StreamTimeout)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("WEBSAGE_LLM_MODEL", "llama3:8b")
	t.Setenv("WEBSAGE_SEARCH_MAX_RESULTS", "7")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LLM.Model != "llama3:8b" {
		t.Errorf("env override ignored, model = %s", cfg.LLM.Model)
	}
	if cfg.Search.MaxResults != 7 {
		t.Errorf("env override ignored, max_results = %d", cfg.Search.MaxResults)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	t.Setenv("WEBSAGE_LLM_PROVIDER", "bogus")
	if _, err := LoadConfig(""); err == nil {
		t.Fatal("expected validation error for bogus provider")
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/config.json"); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestOpenAIRequiresAPIKey(t *testing.T) {
	cfg := LLMConfig{Provider: "openai", Model: "gpt-4o"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for openai without api key")
	}
}
