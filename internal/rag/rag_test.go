package rag

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sitebrain/sitebrain/internal/log"
	"github.com/sitebrain/sitebrain/internal/store"
)

func TestBuildContextBudget(t *testing.T) {
	chunks := []store.Chunk{
		{URI: "a", Title: "A", Text: strings.Repeat("x", 100)},
		{URI: "b", Title: "B", Text: strings.Repeat("y", 100)},
		{URI: "c", Title: "C", Text: strings.Repeat("z", 100)},
	}

	// Each block is a bit over 100 chars with its header lines. A budget of
	// 260 fits exactly two.
	blocks, sources := buildContext(chunks, 260)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if len(sources) != 2 || sources[0] != "a" || sources[1] != "b" {
		t.Errorf("sources = %v, want [a b]", sources)
	}
}

func TestBuildContextBlockFormat(t *testing.T) {
	blocks, _ := buildContext([]store.Chunk{{
		URI:   "https://example.com/guide",
		Title: "Guide",
		Text:  "chunk body",
	}}, 0)
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	want := "Source: https://example.com/guide\nTitle: Guide\nContent:\nchunk body\n"
	if blocks[0] != want {
		t.Errorf("block = %q, want %q", blocks[0], want)
	}
}

func TestBuildContextTitleFallback(t *testing.T) {
	blocks, _ := buildContext([]store.Chunk{{URI: "u", Text: "body"}}, 0)
	if !strings.Contains(blocks[0], "Title: N/A\n") {
		t.Errorf("expected N/A title fallback, got:\n%s", blocks[0])
	}
}

func TestBuildContextDedupesSources(t *testing.T) {
	chunks := []store.Chunk{
		{URI: "a", Text: "first chunk"},
		{URI: "b", Text: "second chunk"},
		{URI: "a", Text: "third chunk, same source"},
	}
	blocks, sources := buildContext(chunks, 0)
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(blocks))
	}
	if len(sources) != 2 || sources[0] != "a" || sources[1] != "b" {
		t.Errorf("sources = %v, want [a b]", sources)
	}
}

func TestBuildPrompt(t *testing.T) {
	got := buildPrompt("What is this?", []string{"block one", "block two"})
	want := "Question: What is this?\n\nContext:\nblock one\n---\nblock two"
	if got != want {
		t.Errorf("prompt = %q, want %q", got, want)
	}
}

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = f.vec
	}
	return out, nil
}

type fakeRetriever struct {
	chunks []store.Chunk
	err    error
}

func (f *fakeRetriever) Search(_ context.Context, _ []float32, _ int) ([]store.Chunk, error) {
	return f.chunks, f.err
}

type fakeCompleter struct {
	answer string
	err    error
	prompt string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func newAnswerer(emb Embedder, ret Retriever, comp Completer) *Answerer {
	return NewAnswerer(emb, ret, comp, AnswererOptions{}, log.NewNop())
}

func TestAskHappyPath(t *testing.T) {
	comp := &fakeCompleter{answer: "Deploy with the serve command."}
	a := newAnswerer(
		&fakeEmbedder{vec: []float32{1, 0}},
		&fakeRetriever{chunks: []store.Chunk{
			{URI: "https://example.com/deploy", Title: "Deploy", Text: "Run serve to start."},
			{URI: "https://example.com/deploy", Title: "Deploy", Text: "Migrations run first."},
		}},
		comp,
	)

	ans, err := a.Ask(context.Background(), "How do I deploy?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if ans.Answer != comp.answer {
		t.Errorf("answer = %q", ans.Answer)
	}
	if len(ans.Sources) != 1 || ans.Sources[0] != "https://example.com/deploy" {
		t.Errorf("sources = %v", ans.Sources)
	}
	if !strings.Contains(comp.prompt, "Question: How do I deploy?") {
		t.Errorf("prompt missing question: %q", comp.prompt)
	}
	if !strings.Contains(comp.prompt, "Run serve to start.") {
		t.Errorf("prompt missing retrieved content: %q", comp.prompt)
	}
}

func TestAskEmptyQuestion(t *testing.T) {
	a := newAnswerer(&fakeEmbedder{}, &fakeRetriever{}, &fakeCompleter{})
	if _, err := a.Ask(context.Background(), "   "); !errors.Is(err, ErrEmptyQuestion) {
		t.Fatalf("expected ErrEmptyQuestion, got %v", err)
	}
}

func TestAskNoContent(t *testing.T) {
	comp := &fakeCompleter{answer: "should not be called"}
	a := newAnswerer(&fakeEmbedder{vec: []float32{1}}, &fakeRetriever{}, comp)

	ans, err := a.Ask(context.Background(), "Anything stored?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if ans.Answer != NoInfoMessage {
		t.Errorf("answer = %q, want canned no-info message", ans.Answer)
	}
	if ans.Sources == nil || len(ans.Sources) != 0 {
		t.Errorf("sources = %#v, want empty non-nil slice", ans.Sources)
	}
	if comp.prompt != "" {
		t.Error("completer was called despite empty retrieval")
	}
}

func TestAskRetrieverError(t *testing.T) {
	a := newAnswerer(
		&fakeEmbedder{vec: []float32{1}},
		&fakeRetriever{err: errors.New("db down")},
		&fakeCompleter{},
	)
	if _, err := a.Ask(context.Background(), "q"); err == nil {
		t.Fatal("expected error from retriever")
	}
}

func TestAskCompleterErrorPassthrough(t *testing.T) {
	a := newAnswerer(
		&fakeEmbedder{vec: []float32{1}},
		&fakeRetriever{chunks: []store.Chunk{{URI: "u", Text: "some stored text"}}},
		&fakeCompleter{err: ErrRateLimited},
	)
	_, err := a.Ask(context.Background(), "q")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func newChatServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *ChatCompleter) {
	t.Helper()
	srv := httptest.NewServer(handler)
	c, err := NewChatCompleter(ChatConfig{APIKey: "test-key", BaseURL: srv.URL}, log.NewNop())
	if err != nil {
		t.Fatalf("NewChatCompleter: %v", err)
	}
	return srv, c
}

func TestChatCompleterComplete(t *testing.T) {
	srv, c := newChatServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  the answer  "}}]}`))
	})
	defer srv.Close()

	got, err := c.Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "the answer" {
		t.Errorf("answer = %q", got)
	}
}

func TestChatCompleterRateLimited(t *testing.T) {
	srv, c := newChatServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded","type":"rate_limit_error"}}`))
	})
	defer srv.Close()

	_, err := c.Complete(context.Background(), "prompt")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestChatCompleterEmptyChoices(t *testing.T) {
	srv, c := newChatServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})
	defer srv.Close()

	_, err := c.Complete(context.Background(), "prompt")
	if !errors.Is(err, ErrMalformedCompletion) {
		t.Fatalf("expected ErrMalformedCompletion, got %v", err)
	}
}

func TestNewChatCompleterRequiresKey(t *testing.T) {
	if _, err := NewChatCompleter(ChatConfig{}, log.NewNop()); err == nil {
		t.Fatal("expected error for missing API key")
	}
}
