package ollama_provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	provmodels "github.com/mohammad-safakhou/websage/provider/models"
)

func TestChat(t *testing.T) {
	var got chatRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(chatResponse{
			Message: provmodels.Message{Role: "assistant", Content: "pong"},
			Done:    true,
		})
	}))
	defer ts.Close()

	c := New(ts.URL, "test-model", 2*time.Second, 2*time.Second, 128)
	reply, err := c.Chat(context.Background(), provmodels.ChatRequest{
		System:      "be terse",
		Messages:    []provmodels.Message{{Role: "user", Content: "ping"}},
		Temperature: 0.3,
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply != "pong" {
		t.Errorf("unexpected reply: %q", reply)
	}
	if got.Stream {
		t.Error("non-streaming call must set stream=false")
	}
	if got.Model != "test-model" {
		t.Errorf("unexpected model: %s", got.Model)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[0].Content != "be terse" {
		t.Errorf("system prompt not prepended: %+v", got.Messages)
	}
	if got.Options == nil || got.Options.Temperature != 0.3 || got.Options.NumPredict != 128 {
		t.Errorf("unexpected options: %+v", got.Options)
	}
}

func TestChatStream(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		enc := json.NewEncoder(w)
		enc.Encode(chatResponse{Message: provmodels.Message{Content: "Hel"}})
		enc.Encode(chatResponse{Message: provmodels.Message{Content: "lo"}})
		enc.Encode(chatResponse{Done: true})
	}))
	defer ts.Close()

	c := New(ts.URL, "m", 2*time.Second, 2*time.Second, 0)
	var tokens []string
	full, err := c.ChatStream(context.Background(), provmodels.ChatRequest{
		Messages: []provmodels.Message{{Role: "user", Content: "hi"}},
	}, func(token string) error {
		tokens = append(tokens, token)
		return nil
	})
	if err != nil {
		t.Fatalf("ChatStream: %v", err)
	}
	if full != "Hello" {
		t.Errorf("unexpected accumulated reply: %q", full)
	}
	if len(tokens) != 2 || tokens[0] != "Hel" || tokens[1] != "lo" {
		t.Errorf("unexpected tokens: %v", tokens)
	}
}

func TestChatStreamEmitError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chatResponse{Message: provmodels.Message{Content: "x"}})
	}))
	defer ts.Close()

	c := New(ts.URL, "m", 2*time.Second, 2*time.Second, 0)
	_, err := c.ChatStream(context.Background(), provmodels.ChatRequest{}, func(string) error {
		return fmt.Errorf("sink closed")
	})
	if err == nil {
		t.Fatal("expected emit error to propagate")
	}
}

func TestChatStatusFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer ts.Close()

	c := New(ts.URL, "m", 2*time.Second, 2*time.Second, 0)
	if _, err := c.Chat(context.Background(), provmodels.ChatRequest{}); err == nil {
		t.Fatal("expected error on non-200 status")
	}
}
