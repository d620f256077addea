// Package ollama_provider implements the LLM provider against a local
// Ollama server (/api/chat, NDJSON streaming).
package ollama_provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	provmodels "github.com/mohammad-safakhou/websage/provider/models"
)

type client struct {
	baseURL      string
	model        string
	maxTokens    int
	httpClient   *http.Client
	streamClient *http.Client
}

type chatRequest struct {
	Model    string              `json:"model"`
	Messages []provmodels.Message `json:"messages"`
	Stream   bool                `json:"stream"`
	Options  *chatOptions        `json:"options,omitempty"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatResponse struct {
	Message provmodels.Message `json:"message"`
	Done    bool               `json:"done"`
}

// New creates an Ollama client. streamTimeout zero disables the bound on
// streaming calls.
func New(baseURL, model string, timeout, streamTimeout time.Duration, maxTokens int) *client {
	return &client{
		baseURL:      strings.TrimRight(baseURL, "/"),
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

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	return out.Message.Content, nil
}

func (c *client) ChatStream(ctx context.Context, req provmodels.ChatRequest, emit func(token string) error) (string, error) {
	resp, err := c.send(ctx, c.streamClient, req, true)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var full strings.Builder
	dec := json.NewDecoder(resp.Body)
	for {
		var chunk chatResponse
		if err := dec.Decode(&chunk); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", fmt.Errorf("failed to parse stream chunk: %w", err)
		}
		if chunk.Message.Content != "" {
			full.WriteString(chunk.Message.Content)
			if emit != nil {
				if err := emit(chunk.Message.Content); err != nil {
					return "", err
				}
			}
		}
		if chunk.Done {
			break
		}
	}
	return full.String(), nil
}

func (c *client) send(ctx context.Context, hc *http.Client, req provmodels.ChatRequest, stream bool) (*http.Response, error) {
	messages := make([]provmodels.Message, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, provmodels.Message{Role: "system", Content: req.System})
	}
	messages = append(messages, req.Messages...)

	body := chatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   stream,
		Options:  &chatOptions{Temperature: req.Temperature},
	}
	if c.maxTokens > 0 {
		body.Options.NumPredict = c.maxTokens
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

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
