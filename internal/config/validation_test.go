package config

import (
	"errors"
	"testing"
)

// validConfig returns a configuration that passes Validate.
func validConfig() *Config {
	return &Config{
		EmbeddingProvider: "",
		VectorStore:       StorePostgres,
		ChunkMaxChars:     1800,
		ChunkOverlap:      200,
		TopK:              6,
		MaxContextChars:   12000,
		OllamaHost:        "http://localhost:11434",
		PostgresHost:      "localhost",
		PostgresPort:      5432,
		PostgresDBName:    "rag",
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestValidate_NilConfig(t *testing.T) {
	var cfg *Config
	if err := cfg.Validate(); !errors.Is(err, ErrConfigNil) {
		t.Errorf("expected ErrConfigNil, got %v", err)
	}
}

func TestValidate_SentinelErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.EmbeddingProvider = "huggingface" },
			wantErr: ErrInvalidProvider,
		},
		{
			name:    "unknown vector store",
			mutate:  func(c *Config) { c.VectorStore = "qdrant" },
			wantErr: ErrInvalidVectorStore,
		},
		{
			name:    "zero chunk size",
			mutate:  func(c *Config) { c.ChunkMaxChars = 0 },
			wantErr: ErrInvalidChunkBounds,
		},
		{
			name:    "overlap equals max chars",
			mutate:  func(c *Config) { c.ChunkOverlap = c.ChunkMaxChars },
			wantErr: ErrInvalidChunkBounds,
		},
		{
			name:    "negative overlap",
			mutate:  func(c *Config) { c.ChunkOverlap = -1 },
			wantErr: ErrInvalidChunkBounds,
		},
		{
			name:    "top_k zero",
			mutate:  func(c *Config) { c.TopK = 0 },
			wantErr: ErrInvalidTopK,
		},
		{
			name:    "context budget zero",
			mutate:  func(c *Config) { c.MaxContextChars = 0 },
			wantErr: ErrInvalidContextBudget,
		},
		{
			name: "local provider without ollama host",
			mutate: func(c *Config) {
				c.EmbeddingProvider = ProviderLocal
				c.OllamaHost = ""
			},
			wantErr: ErrInvalidOllamaHost,
		},
		{
			name:    "empty postgres host",
			mutate:  func(c *Config) { c.PostgresHost = "" },
			wantErr: ErrInvalidPostgresHost,
		},
		{
			name:    "postgres port out of range",
			mutate:  func(c *Config) { c.PostgresPort = 70000 },
			wantErr: ErrInvalidPostgresPort,
		},
		{
			name:    "empty postgres dbname",
			mutate:  func(c *Config) { c.PostgresDBName = "" },
			wantErr: ErrInvalidPostgresDBName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_MemoryStoreSkipsPostgresChecks(t *testing.T) {
	cfg := validConfig()
	cfg.VectorStore = StoreMemory
	cfg.PostgresHost = ""
	cfg.PostgresDBName = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("memory store should not require postgres settings: %v", err)
	}
}

func TestValidateCompletionKeys(t *testing.T) {
	cfg := validConfig()
	if err := cfg.ValidateCompletionKeys(); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}

	cfg.DeepSeekAPIKey = "sk-test"
	if err := cfg.ValidateCompletionKeys(); err != nil {
		t.Errorf("unexpected error with deepseek key set: %v", err)
	}
}

func TestCredentialFallbacks(t *testing.T) {
	cfg := &Config{OpenAIAPIKey: "sk-openai"}
	if got := cfg.EmbeddingCredential(); got != "sk-openai" {
		t.Errorf("EmbeddingCredential() = %q, want openai fallback", got)
	}
	cfg.EmbeddingAPIKey = "sk-embed"
	if got := cfg.EmbeddingCredential(); got != "sk-embed" {
		t.Errorf("EmbeddingCredential() = %q, want dedicated key", got)
	}

	if got := cfg.CompletionCredential(); got != "sk-openai" {
		t.Errorf("CompletionCredential() = %q, want openai fallback", got)
	}
	cfg.DeepSeekAPIKey = "sk-deepseek"
	if got := cfg.CompletionCredential(); got != "sk-deepseek" {
		t.Errorf("CompletionCredential() = %q, want deepseek key", got)
	}
}
