package config

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidProvider indicates the embedding provider is not supported.
	ErrInvalidProvider = errors.New("invalid embedding provider")

	// ErrInvalidVectorStore indicates the vector store backend is not supported.
	ErrInvalidVectorStore = errors.New("invalid vector store")

	// ErrInvalidChunkBounds indicates chunk size/overlap values are out of range.
	ErrInvalidChunkBounds = errors.New("invalid chunk bounds")

	// ErrInvalidTopK indicates the retrieval top-k value is out of range.
	ErrInvalidTopK = errors.New("invalid top_k")

	// ErrInvalidContextBudget indicates the context character budget is out of range.
	ErrInvalidContextBudget = errors.New("invalid max_context_chars")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is empty.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is empty.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidOllamaHost indicates the Ollama host URL is empty.
	ErrInvalidOllamaHost = errors.New("invalid Ollama host")
)

// Validate checks the configuration for invalid or inconsistent values.
// It returns a wrapped sentinel error naming the offending setting.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	switch c.EmbeddingProvider {
	case "", ProviderOpenAI, ProviderLocal:
	default:
		return fmt.Errorf("%w: %q (must be %q, %q or empty for auto-detect)",
			ErrInvalidProvider, c.EmbeddingProvider, ProviderOpenAI, ProviderLocal)
	}

	switch c.VectorStore {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("%w: %q (must be %q or %q)",
			ErrInvalidVectorStore, c.VectorStore, StorePostgres, StoreMemory)
	}

	if c.ChunkMaxChars <= 0 {
		return fmt.Errorf("%w: chunk_max_chars must be positive, got %d",
			ErrInvalidChunkBounds, c.ChunkMaxChars)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkMaxChars {
		// overlap >= max_chars would make the sliding window loop forever
		return fmt.Errorf("%w: chunk_overlap must satisfy 0 <= overlap < chunk_max_chars, got %d (max %d)",
			ErrInvalidChunkBounds, c.ChunkOverlap, c.ChunkMaxChars)
	}

	if c.TopK < 1 || c.TopK > 100 {
		return fmt.Errorf("%w: must be between 1 and 100, got %d", ErrInvalidTopK, c.TopK)
	}

	if c.MaxContextChars < 1 {
		return fmt.Errorf("%w: must be positive, got %d", ErrInvalidContextBudget, c.MaxContextChars)
	}

	if c.EmbeddingProvider == ProviderLocal && c.OllamaHost == "" {
		return fmt.Errorf("%w: ollama_host must be set when embedding_provider=local", ErrInvalidOllamaHost)
	}

	if c.VectorStore == StorePostgres {
		if c.PostgresHost == "" {
			return fmt.Errorf("%w: host must not be empty", ErrInvalidPostgresHost)
		}
		if c.PostgresPort < 1 || c.PostgresPort > 65535 {
			return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidPostgresPort, c.PostgresPort)
		}
		if c.PostgresDBName == "" {
			return fmt.Errorf("%w: database name must not be empty", ErrInvalidPostgresDBName)
		}
	}

	return nil
}
