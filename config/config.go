package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the assistant.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Search    SearchConfig    `mapstructure:"search"`
	Extract   ExtractConfig   `mapstructure:"extract"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Server    ServerConfig    `mapstructure:"server"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// LLMConfig selects and tunes the language-model backend.
type LLMConfig struct {
	Provider string `mapstructure:"provider"` // ollama, openai
	BaseURL  string `mapstructure:"base_url"`
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
	// Timeout bounds non-streaming calls. StreamTimeout bounds the final
	// streaming call; zero disables the bound.
	Timeout             time.Duration `mapstructure:"timeout"`
	StreamTimeout       time.Duration `mapstructure:"stream_timeout"`
	DecisionTemperature float64       `mapstructure:"decision_temperature"`
	PromptTemperature   float64       `mapstructure:"prompt_temperature"`
	ChatTemperature     float64       `mapstructure:"chat_temperature"`
	MaxTokens           int           `mapstructure:"max_tokens"`
}

func (c LLMConfig) Validate() error {
	switch c.Provider {
	case "ollama", "openai":
	default:
		return fmt.Errorf("llm.provider must be ollama or openai, got %q", c.Provider)
	}
	if c.Provider == "openai" && strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("llm.api_key required for openai provider")
	}
	if c.Model == "" {
		return fmt.Errorf("llm.model required")
	}
	return nil
}

// SearchConfig tunes the web-search provider.
type SearchConfig struct {
	Provider   string        `mapstructure:"provider"` // duckduckgo
	Endpoint   string        `mapstructure:"endpoint"`
	UserAgent  string        `mapstructure:"user_agent"`
	MaxResults int           `mapstructure:"max_results"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

func (c SearchConfig) Validate() error {
	if c.MaxResults <= 0 {
		return fmt.Errorf("search.max_results must be > 0")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("search.timeout must be > 0")
	}
	return nil
}

// ExtractConfig tunes page-content extraction.
type ExtractConfig struct {
	Timeout  time.Duration `mapstructure:"timeout"`
	MaxChars int           `mapstructure:"max_chars"`
}

// PipelineConfig tunes the search-augmentation loop.
type PipelineConfig struct {
	// SelectorRetries is the total judged-selection budget shared across
	// one pipeline run, and also bounds the candidate loop.
	SelectorRetries int `mapstructure:"selector_retries"`
	// RelevanceMaxChars caps page text included in the relevance prompt.
	RelevanceMaxChars int `mapstructure:"relevance_max_chars"`
}

func (c PipelineConfig) Validate() error {
	if c.SelectorRetries <= 0 {
		return fmt.Errorf("pipeline.selector_retries must be > 0")
	}
	return nil
}

// TelemetryConfig contains monitoring settings.
type TelemetryConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	MetricsPort int  `mapstructure:"metrics_port"`
}

func (t TelemetryConfig) Validate() error {
	if t.Enabled && t.MetricsPort <= 0 {
		return fmt.Errorf("telemetry.metrics_port must be > 0 when telemetry is enabled")
	}
	return nil
}

// ServerConfig contains HTTP API settings for serve mode.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

func (c *Config) Validate() error {
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	if err := c.Search.Validate(); err != nil {
		return err
	}
	if err := c.Pipeline.Validate(); err != nil {
		return err
	}
	return c.Telemetry.Validate()
}

func setDefaults() {
	viper.SetDefault("general.debug", false)
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("llm.provider", "ollama")
	viper.SetDefault("llm.base_url", "http://localhost:11434")
	viper.SetDefault("llm.model", "gemma3:27b")
	viper.SetDefault("llm.timeout", 120*time.Second)
	viper.SetDefault("llm.stream_timeout", 120*time.Second)
	viper.SetDefault("llm.decision_temperature", 0.1)
	viper.SetDefault("llm.prompt_temperature", 0.3)
	viper.SetDefault("llm.chat_temperature", 0.7)
	viper.SetDefault("llm.max_tokens", 0)
	viper.SetDefault("search.provider", "duckduckgo")
	viper.SetDefault("search.endpoint", "https://html.duckduckgo.com/html/")
	viper.SetDefault("search.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	viper.SetDefault("search.max_results", 5)
	viper.SetDefault("search.timeout", 10*time.Second)
	viper.SetDefault("extract.timeout", 15*time.Second)
	viper.SetDefault("extract.max_chars", 20000)
	viper.SetDefault("pipeline.selector_retries", 3)
	viper.SetDefault("pipeline.relevance_max_chars", 8000)
	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.metrics_port", 0)
	viper.SetDefault("server.address", ":10010")
}

// LoadConfig loads config from file, falling back to defaults and WEBSAGE_*
// environment variables when no file is present.
func LoadConfig(path string) (*Config, error) {
	viper.Reset()
	setDefaults()

	if path == "" {
		viper.SetConfigName("config")
		viper.SetConfigType("json")
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("WEBSAGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// A missing file is fine when no explicit path was given.
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
