package chat

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/mohammad-safakhou/websage/config"
	"github.com/mohammad-safakhou/websage/internal/pipeline"
	"github.com/mohammad-safakhou/websage/internal/telemetry"
	"github.com/mohammad-safakhou/websage/models"
	"github.com/mohammad-safakhou/websage/provider"
	"github.com/mohammad-safakhou/websage/tools/web_fetch"
)

// pipeProvider feeds the orchestrator canned non-streaming replies in order.
type pipeProvider struct {
	replies []string
	calls   int
}

func (p *pipeProvider) Chat(_ context.Context, _ provider.ChatRequest) (string, error) {
	i := p.calls
	p.calls++
	if i >= len(p.replies) {
		return "", errors.New("no scripted reply left")
	}
	return p.replies[i], nil
}

func (p *pipeProvider) ChatStream(_ context.Context, _ provider.ChatRequest, _ func(string) error) (string, error) {
	return "", errors.New("unexpected stream call")
}

// streamProvider answers the final chat stream.
type streamProvider struct {
	tokens []string
	err    error
	gotReq provider.ChatRequest
}

func (p *streamProvider) Chat(_ context.Context, _ provider.ChatRequest) (string, error) {
	return "", errors.New("unexpected chat call")
}

func (p *streamProvider) ChatStream(_ context.Context, req provider.ChatRequest, emit func(string) error) (string, error) {
	p.gotReq = req
	if p.err != nil {
		return "", p.err
	}
	var full strings.Builder
	for _, tok := range p.tokens {
		full.WriteString(tok)
		if err := emit(tok); err != nil {
			return "", err
		}
	}
	return full.String(), nil
}

type fakeSearcher struct {
	candidates []models.SearchCandidate
}

func (s *fakeSearcher) Search(_ context.Context, _ string, _ int) ([]models.SearchCandidate, error) {
	out := make([]models.SearchCandidate, len(s.candidates))
	copy(out, s.candidates)
	return out, nil
}

type fakeFetcher struct {
	pages map[string]string
}

func (f *fakeFetcher) Fetch(_ context.Context, link string) (web_fetch.Result, error) {
	text, ok := f.pages[link]
	if !ok {
		return web_fetch.Result{}, errors.New("fetch failed")
	}
	return web_fetch.Result{URL: link, Text: text}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		LLM:      config.LLMConfig{ChatTemperature: 0.7},
		Search:   config.SearchConfig{MaxResults: 5},
		Pipeline: config.PipelineConfig{SelectorRetries: 3, RelevanceMaxChars: 8000},
	}
}

func newTestChat(pipeReplies []string, streamer *streamProvider, fetcher *fakeFetcher) (*Chat, *Session) {
	cfg := testConfig()
	logger := log.New(io.Discard, "", 0)
	tele := telemetry.New()
	searcher := &fakeSearcher{candidates: []models.SearchCandidate{
		{Ordinal: 0, Title: "Result", Link: "https://example.com/a", Snippet: "s"},
	}}
	if fetcher == nil {
		fetcher = &fakeFetcher{pages: map[string]string{}}
	}
	orch := pipeline.NewOrchestrator(cfg, &pipeProvider{replies: pipeReplies}, searcher, fetcher, logger, tele)
	c := NewChat(cfg, streamer, orch, logger, tele)
	store := NewStore()
	return c, store.Create(DefaultSystemPrompt)
}

func TestRenderAugmentedWithContext(t *testing.T) {
	got := RenderAugmented(models.ExtractedContext("the sky is blue"), "why is the sky blue?")
	if !strings.Contains(got, "---BEGIN INFO---\nthe sky is blue\n---END INFO---") {
		t.Errorf("context markers missing:\n%s", got)
	}
	if !strings.Contains(got, `Please answer this question or address this request: "why is the sky blue?"`) {
		t.Errorf("original request not restated:\n%s", got)
	}
}

func TestRenderAugmentedNoContext(t *testing.T) {
	got := RenderAugmented(models.NoContext(), "latest scores")
	want := `I tried to find information on the web to answer your request: "latest scores", ` +
		"but I couldn't find relevant information or the search failed. " +
		"Please answer based on your general knowledge, or state that you couldn't find the specific information."
	if got != want {
		t.Errorf("fallback text mismatch:\ngot:  %s\nwant: %s", got, want)
	}
}

func TestRespondWithoutSearch(t *testing.T) {
	streamer := &streamProvider{tokens: []string{"hel", "lo"}}
	c, sess := newTestChat([]string{"false"}, streamer, nil)

	var emitted strings.Builder
	err := c.Respond(context.Background(), sess, "hi there", func(tok string) error {
		emitted.WriteString(tok)
		return nil
	})
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if emitted.String() != "hello" {
		t.Errorf("unexpected emitted tokens: %q", emitted.String())
	}

	turns := sess.Turns()
	if len(turns) != 3 {
		t.Fatalf("expected system+user+assistant turns, got %d", len(turns))
	}
	if turns[1].Role != models.RoleUser || turns[1].Content != "hi there" {
		t.Errorf("user turn must stay untouched without a search: %+v", turns[1])
	}
	if turns[2].Role != models.RoleAssistant || turns[2].Content != "hello" {
		t.Errorf("unexpected assistant turn: %+v", turns[2])
	}
	if streamer.gotReq.Temperature != 0.7 {
		t.Errorf("chat temperature not applied: %v", streamer.gotReq.Temperature)
	}
}

func TestRespondWithSearchContext(t *testing.T) {
	streamer := &streamProvider{tokens: []string{"24C today"}}
	fetcher := &fakeFetcher{pages: map[string]string{"https://example.com/a": "paris is at 24C"}}
	// decision, query, selection, relevance
	c, sess := newTestChat([]string{"true", "paris weather", "0", "true"}, streamer, fetcher)

	err := c.Respond(context.Background(), sess, "weather in paris?", func(string) error { return nil })
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}

	turns := sess.Turns()
	if len(turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(turns))
	}
	user := turns[1]
	if user.Role != models.RoleUser {
		t.Fatalf("augmented turn must stay a user turn, got %s", user.Role)
	}
	if !strings.Contains(user.Content, "paris is at 24C") {
		t.Errorf("extracted context missing from augmented turn:\n%s", user.Content)
	}
	if !strings.Contains(user.Content, `"weather in paris?"`) {
		t.Errorf("original request missing from augmented turn:\n%s", user.Content)
	}
	if strings.Count(user.Content, "weather in paris?") != 1 {
		t.Errorf("request restated more than once:\n%s", user.Content)
	}
}

func TestRespondWithFailedSearch(t *testing.T) {
	streamer := &streamProvider{tokens: []string{"from general knowledge"}}
	// decision true, then query synthesis fails and the pipeline degrades.
	c, sess := newTestChat([]string{"true", ""}, streamer, nil)

	err := c.Respond(context.Background(), sess, "latest scores", func(string) error { return nil })
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}

	turns := sess.Turns()
	if want := RenderAugmented(models.NoContext(), "latest scores"); turns[1].Content != want {
		t.Errorf("fallback rewrite mismatch:\ngot:  %s\nwant: %s", turns[1].Content, want)
	}
}

func TestRespondStreamFailureKeepsSessionUsable(t *testing.T) {
	streamer := &streamProvider{err: errors.New("connection reset")}
	c, sess := newTestChat([]string{"false"}, streamer, nil)

	if err := c.Respond(context.Background(), sess, "hi", func(string) error { return nil }); err == nil {
		t.Fatal("expected streaming error")
	}
	turns := sess.Turns()
	if turns[len(turns)-1].Role != models.RoleUser {
		t.Errorf("no assistant turn may be recorded on stream failure, got %+v", turns[len(turns)-1])
	}

	// The same session answers the next exchange.
	streamer.err = nil
	streamer.tokens = []string{"recovered"}
	c2, _ := newTestChat([]string{"false"}, streamer, nil)
	if err := c2.Respond(context.Background(), sess, "still there?", func(string) error { return nil }); err != nil {
		t.Fatalf("second Respond: %v", err)
	}
	turns = sess.Turns()
	if turns[len(turns)-1].Content != "recovered" {
		t.Errorf("unexpected final turn: %+v", turns[len(turns)-1])
	}
}

func TestStoreLifecycle(t *testing.T) {
	st := NewStore()
	sess := st.Create(DefaultSystemPrompt)
	if sess.ID() == "" {
		t.Fatal("expected a session id")
	}
	if got, ok := st.Get(sess.ID()); !ok || got != sess {
		t.Fatal("session not retrievable")
	}
	if turns := sess.Turns(); len(turns) != 1 || turns[0].Role != models.RoleSystem {
		t.Errorf("new session must hold only the system turn, got %+v", turns)
	}
	st.Delete(sess.ID())
	if _, ok := st.Get(sess.ID()); ok {
		t.Fatal("session still present after delete")
	}
	// Deleting twice is harmless.
	st.Delete(sess.ID())
}

func TestREPLQuitAndBlankLines(t *testing.T) {
	streamer := &streamProvider{tokens: []string{"hi!"}}
	c, sess := newTestChat([]string{"false"}, streamer, nil)

	in := strings.NewReader("   \nhello\nQUIT\n")
	var out strings.Builder
	r := NewREPL(c, sess, in, &out, log.New(io.Discard, "", 0))

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "ASSISTANT:\nhi!") {
		t.Errorf("streamed answer missing from output:\n%s", out.String())
	}
	if got := strings.Count(out.String(), "ASSISTANT:"); got != 1 {
		t.Errorf("blank line must not trigger a response, got %d answers", got)
	}
}

func TestREPLEOF(t *testing.T) {
	c, sess := newTestChat(nil, &streamProvider{}, nil)
	r := NewREPL(c, sess, strings.NewReader(""), io.Discard, log.New(io.Discard, "", 0))
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run at EOF: %v", err)
	}
}

func TestREPLCancelledContext(t *testing.T) {
	c, sess := newTestChat(nil, &streamProvider{}, nil)
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewREPL(c, sess, pr, io.Discard, log.New(io.Discard, "", 0))
	if err := r.Run(ctx); err != nil {
		t.Fatalf("Run with cancelled context: %v", err)
	}
}

func TestREPLRespondErrorContinues(t *testing.T) {
	streamer := &streamProvider{err: errors.New("boom")}
	c, sess := newTestChat([]string{"false", "false"}, streamer, nil)

	in := strings.NewReader("hello\nexit\n")
	var out strings.Builder
	r := NewREPL(c, sess, in, &out, log.New(io.Discard, "", 0))

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "[ERROR] Sorry, I encountered a problem while generating my response.") {
		t.Errorf("error notice missing from output:\n%s", out.String())
	}
	// The loop came back for another prompt after the failure.
	if got := strings.Count(out.String(), "USER: "); got < 2 {
		t.Errorf("expected the prompt again after a failed answer, got %d prompts", got)
	}
}
