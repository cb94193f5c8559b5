// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (./config.yaml or ~/.sitebrain/config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - Embedding: provider selection (openai/local/auto), models, credentials
//   - Chat: completion model, system prompt, API keys
//   - Ingestion: sitemap URL, docs directory, chunking bounds
//   - Retrieval: top-k, context character budget
//   - Storage: vector store backend, PostgreSQL connection (see storage.go)
//   - HTTP: listen address, CORS, rate limiting
//
// Validation is fail-fast with sentinel errors for errors.Is checks
// (see validation.go).
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Embedding provider identifiers used in Config.EmbeddingProvider.
// Empty means auto-detect from credential availability.
const (
	ProviderOpenAI = "openai"
	ProviderLocal  = "local"
)

// Vector store backend identifiers used in Config.VectorStore.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// DefaultSystemPrompt instructs the completion model to stay grounded in the
// retrieved context and cite its sources.
const DefaultSystemPrompt = `You are a helpful website assistant.
Answer questions ONLY using the provided context from the website and documents.
If the answer is not in the context, say you don't know and suggest where the user might look.
Always include a short Sources list at the end with URLs or file paths.`

// Config stores application configuration.
// SECURITY: credential fields must never be logged.
type Config struct {
	// Embedding provider configuration
	EmbeddingProvider   string `mapstructure:"embedding_provider"`    // "openai", "local", "" (auto-detect)
	EmbeddingModel      string `mapstructure:"embedding_model"`       // remote embedding model
	EmbeddingAPIKey     string `mapstructure:"embedding_api_key"`     // falls back to OpenAIAPIKey
	LocalEmbeddingModel string `mapstructure:"local_embedding_model"` // Ollama model name
	OllamaHost          string `mapstructure:"ollama_host"`

	// Chat completion configuration (OpenAI-compatible endpoint)
	OpenAIAPIKey   string  `mapstructure:"openai_api_key"`
	OpenAIBaseURL  string  `mapstructure:"openai_base_url"`
	DeepSeekAPIKey string  `mapstructure:"deepseek_api_key"`
	ChatModel      string  `mapstructure:"chat_model"`
	Temperature    float32 `mapstructure:"temperature"`
	SystemPrompt   string  `mapstructure:"system_prompt"`

	// Ingestion
	SitemapURL    string `mapstructure:"sitemap_url"`
	DocsDir       string `mapstructure:"docs_dir"`
	ChunkMaxChars int    `mapstructure:"chunk_max_chars"`
	ChunkOverlap  int    `mapstructure:"chunk_overlap"`

	// Retrieval
	TopK            int `mapstructure:"top_k"`
	MaxContextChars int `mapstructure:"max_context_chars"`

	// Vector store backend
	VectorStore string `mapstructure:"vector_store"` // "postgres" (default), "memory"

	// PostgreSQL connection (used when VectorStore == "postgres")
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"`
	PostgresDBName   string `mapstructure:"postgres_dbname"`
	PostgresSSLMode  string `mapstructure:"postgres_sslmode"`

	// HTTP server
	HTTPAddr    string   `mapstructure:"http_addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	TrustProxy  bool     `mapstructure:"trust_proxy"`
	RateBurst   int      `mapstructure:"rate_burst"`

	// Logging
	LogLevel string `mapstructure:"log_level"`
	LogJSON  bool   `mapstructure:"log_json"`
}

// Load reads configuration from defaults, an optional config file and
// environment variables, then validates it (fail-fast).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".sitebrain"))
	}

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is not an error; defaults + env apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults", "config_name", "config.yaml")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL overrides individual postgres_* settings.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("embedding_provider", "")
	v.SetDefault("embedding_model", "text-embedding-3-small")
	v.SetDefault("local_embedding_model", "nomic-embed-text")
	v.SetDefault("ollama_host", "http://localhost:11434")

	v.SetDefault("chat_model", "deepseek-chat")
	v.SetDefault("temperature", 0.2)
	v.SetDefault("system_prompt", DefaultSystemPrompt)

	v.SetDefault("docs_dir", "./docs")
	v.SetDefault("chunk_max_chars", 1800)
	v.SetDefault("chunk_overlap", 200)

	v.SetDefault("top_k", 6)
	v.SetDefault("max_context_chars", 12000)

	v.SetDefault("vector_store", StorePostgres)
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "rag")
	v.SetDefault("postgres_password", "rag")
	v.SetDefault("postgres_dbname", "rag")
	v.SetDefault("postgres_sslmode", "disable")

	v.SetDefault("http_addr", ":8080")
	v.SetDefault("cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("trust_proxy", false)
	v.SetDefault("rate_burst", 60)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
}

// bindEnvVariables binds environment variables to configuration keys.
// The env names intentionally match the common unprefixed forms
// (OPENAI_API_KEY, SITEMAP_URL, ...) used by deployment tooling.
func bindEnvVariables(v *viper.Viper) {
	bindings := map[string]string{
		"embedding_provider":    "EMBEDDING_PROVIDER",
		"embedding_model":       "EMBEDDING_MODEL",
		"embedding_api_key":     "EMBEDDING_API_KEY",
		"local_embedding_model": "LOCAL_EMBEDDING_MODEL",
		"ollama_host":           "OLLAMA_HOST",
		"openai_api_key":        "OPENAI_API_KEY",
		"openai_base_url":       "OPENAI_BASE_URL",
		"deepseek_api_key":      "DEEPSEEK_API_KEY",
		"chat_model":            "CHAT_MODEL",
		"system_prompt":         "SYSTEM_PROMPT",
		"sitemap_url":           "SITEMAP_URL",
		"docs_dir":              "DOCS_DIR",
		"chunk_max_chars":       "CHUNK_MAX_CHARS",
		"chunk_overlap":         "CHUNK_OVERLAP",
		"top_k":                 "TOP_K",
		"max_context_chars":     "MAX_CONTEXT_CHARS",
		"vector_store":          "VECTOR_STORE",
		"postgres_host":         "POSTGRES_HOST",
		"postgres_port":         "POSTGRES_PORT",
		"postgres_user":         "POSTGRES_USER",
		"postgres_password":     "POSTGRES_PASSWORD",
		"postgres_dbname":       "POSTGRES_DBNAME",
		"postgres_sslmode":      "POSTGRES_SSLMODE",
		"http_addr":             "HTTP_ADDR",
		"trust_proxy":           "TRUST_PROXY",
		"rate_burst":            "RATE_BURST",
		"log_level":             "LOG_LEVEL",
		"log_json":              "LOG_JSON",
	}
	for key, env := range bindings {
		// BindEnv only errors on empty input, which cannot happen here.
		_ = v.BindEnv(key, env)
	}
}

// EmbeddingCredential returns the API key to use for remote embeddings.
// EMBEDDING_API_KEY wins; otherwise the OpenAI key is reused.
func (c *Config) EmbeddingCredential() string {
	if c.EmbeddingAPIKey != "" {
		return c.EmbeddingAPIKey
	}
	return c.OpenAIAPIKey
}

// CompletionCredential returns the API key for the chat completion service.
// The DeepSeek key wins; otherwise the OpenAI key is reused.
func (c *Config) CompletionCredential() string {
	if c.DeepSeekAPIKey != "" {
		return c.DeepSeekAPIKey
	}
	return c.OpenAIAPIKey
}

// ValidateCompletionKeys verifies that at least one completion API key is
// configured. Called on the chat path, not at startup, so ingestion-only
// deployments can run without a chat credential.
func (c *Config) ValidateCompletionKeys() error {
	if c.DeepSeekAPIKey == "" && c.OpenAIAPIKey == "" {
		return fmt.Errorf("%w: set DEEPSEEK_API_KEY or OPENAI_API_KEY", ErrMissingAPIKey)
	}
	return nil
}
