// Package embed converts text into fixed-length vectors through a common
// Provider interface with two backends: a remote OpenAI-compatible API and
// a local Ollama model. The two backends produce vectors of different
// dimensionality; the store keeps them isolated at retrieval time.
package embed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sitebrain/sitebrain/internal/config"
)

var (
	// ErrNoCredential indicates the remote provider was selected without an
	// API key. Raised before any network call.
	ErrNoCredential = errors.New("missing embedding API key")

	// ErrAuth indicates the embedding service rejected the credential.
	ErrAuth = errors.New("embedding authentication failed")

	// ErrTimeout indicates the embedding call exceeded its deadline.
	ErrTimeout = errors.New("embedding request timed out")

	// ErrMalformedResponse indicates the service returned an unusable payload.
	ErrMalformedResponse = errors.New("malformed embedding response")

	// ErrModelInit indicates the local embedding model could not be
	// initialized. Distinct from per-call embedding errors: it is raised at
	// provider construction, once per process.
	ErrModelInit = errors.New("local embedding model initialization failed")
)

// Provider converts a batch of texts into embedding vectors.
//
// Embed is order-preserving: result[i] is the vector for texts[i]. Empty
// input yields an empty result without any service call. Batching against
// the underlying service is provider-internal.
type Provider interface {
	Name() string
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Resolve constructs the embedding provider for this process.
//
// An explicit embedding_provider setting wins. Otherwise the choice is
// auto-detected from credential availability: with no remote API key the
// local model is used, with a key the remote API is used. Construction
// performs provider initialization (including the local model check), so
// a misconfigured provider fails here rather than mid-request.
func Resolve(cfg *config.Config, logger *slog.Logger) (Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}

	choice := cfg.EmbeddingProvider
	if choice == "" {
		if cfg.EmbeddingCredential() == "" {
			choice = config.ProviderLocal
		} else {
			choice = config.ProviderOpenAI
		}
		logger.Debug("auto-detected embedding provider", "provider", choice)
	}

	switch choice {
	case config.ProviderOpenAI:
		return NewOpenAI(OpenAIConfig{
			APIKey:  cfg.EmbeddingCredential(),
			Model:   cfg.EmbeddingModel,
			BaseURL: cfg.OpenAIBaseURL,
		}, logger)
	case config.ProviderLocal:
		return NewLocal(LocalConfig{
			Host:  cfg.OllamaHost,
			Model: cfg.LocalEmbeddingModel,
		}, logger)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidProvider, choice)
	}
}
