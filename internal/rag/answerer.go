package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sitebrain/sitebrain/internal/store"
)

// NoInfoMessage is returned verbatim when retrieval finds nothing to ground
// an answer in.
const NoInfoMessage = "I don't have any information available to answer your question. " +
	"Please ensure content has been ingested."

// DefaultTopK is how many chunks retrieval returns when unconfigured.
const DefaultTopK = 6

// Embedder turns the question into a query vector.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Retriever finds the chunks nearest to a query vector.
type Retriever interface {
	Search(ctx context.Context, queryVec []float32, topK int) ([]store.Chunk, error)
}

// Completer turns a grounded prompt into answer text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Answer is the final response to a question: the generated text plus the
// distinct source URIs that grounded it.
type Answer struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// Answerer wires retrieval and generation into the question-answering flow.
type Answerer struct {
	embedder  Embedder
	retriever Retriever
	completer Completer
	logger    *slog.Logger

	topK            int
	maxContextChars int
}

type AnswererOptions struct {
	TopK            int
	MaxContextChars int
}

func NewAnswerer(emb Embedder, ret Retriever, comp Completer, opts AnswererOptions, logger *slog.Logger) *Answerer {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.MaxContextChars <= 0 {
		opts.MaxContextChars = DefaultMaxContextChars
	}
	return &Answerer{
		embedder:        emb,
		retriever:       ret,
		completer:       comp,
		logger:          logger,
		topK:            opts.TopK,
		maxContextChars: opts.MaxContextChars,
	}
}

// Ask answers one question grounded in stored content. When nothing
// relevant is stored it returns the canned no-information answer with an
// empty source list rather than asking the model to improvise.
func (a *Answerer) Ask(ctx context.Context, question string) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, ErrEmptyQuestion
	}

	vectors, err := a.embedder.Embed(ctx, []string{question})
	if err != nil {
		return Answer{}, fmt.Errorf("embedding question: %w", err)
	}
	if len(vectors) != 1 {
		return Answer{}, fmt.Errorf("embedding question: got %d vectors", len(vectors))
	}

	chunks, err := a.retriever.Search(ctx, vectors[0], a.topK)
	if err != nil {
		return Answer{}, fmt.Errorf("retrieving chunks: %w", err)
	}

	blocks, sources := buildContext(chunks, a.maxContextChars)
	if len(blocks) == 0 {
		a.logger.Info("no grounding content found", "question_chars", len(question))
		return Answer{Answer: NoInfoMessage, Sources: []string{}}, nil
	}

	answer, err := a.completer.Complete(ctx, buildPrompt(question, blocks))
	if err != nil {
		return Answer{}, err
	}

	a.logger.Info("answered question",
		"chunks", len(chunks),
		"context_blocks", len(blocks),
		"sources", len(sources))
	return Answer{Answer: answer, Sources: sources}, nil
}
