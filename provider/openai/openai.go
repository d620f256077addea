// Package openai_provider implements the LLM provider against an
// OpenAI-compatible chat completions API (SSE streaming).
package openai_provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	provmodels "github.com/mohammad-safakhou/websage/provider/models"
)

const defaultBaseURL = "https://api.openai.com/v1"

type client struct {
	baseURL      string
	apiKey       string
	model        string
	maxTokens    int
	httpClient   *http.Client
	streamClient *http.Client
}

// request represents a request to the chat completions API.
type request struct {
	Model       string               `json:"model"`
	Messages    []provmodels.Message `json:"messages"`
	Temperature float64              `json:"temperature"`
	MaxTokens   int                  `json:"max_tokens,omitempty"`
	Stream      bool                 `json:"stream,omitempty"`
}

// response represents a non-streaming response.
type response struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// streamChunk represents one SSE data payload.
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// New creates an OpenAI-compatible client. streamTimeout zero disables the
// bound on streaming calls.
func New(baseURL, apiKey, model string, timeout, streamTimeout time.Duration, maxTokens int) *client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		model:        model,
		maxTokens:    maxTokens,
		httpClient:   &http.Client{Timeout: timeout},
		streamClient: &http.Client{Timeout: streamTimeout},
	}
}

func (c *client) Chat(ctx context.Context, req provmodels.ChatRequest) (string, error) {
	resp, err := c.send(ctx, c.httpClient, req, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return out.Choices[0].Message.Content, nil
}

func (c *client) ChatStream(ctx context.Context, req provmodels.ChatRequest, emit func(token string) error) (string, error) {
	resp, err := c.send(ctx, c.streamClient, req, true)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var full strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			break
		}
		var chunk streamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			return "", fmt.Errorf("failed to parse stream chunk: %w", err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		token := chunk.Choices[0].Delta.Content
		if token == "" {
			continue
		}
		full.WriteString(token)
		if emit != nil {
			if err := emit(token); err != nil {
				return "", err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read stream: %w", err)
	}
	return full.String(), nil
}

func (c *client) send(ctx context.Context, hc *http.Client, req provmodels.ChatRequest, stream bool) (*http.Response, error) {
	messages := make([]provmodels.Message, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, provmodels.Message{Role: "system", Content: req.System})
	}
	messages = append(messages, req.Messages...)

	body := request{
		Model:       c.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   c.maxTokens,
		Stream:      stream,
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := hc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		resp.Body.Close()
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return resp, nil
}
