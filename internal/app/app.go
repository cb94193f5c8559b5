// Package app wires the application together: configuration, storage,
// embedding provider, ingestion pipeline and the answerer. Every component
// receives its dependencies explicitly; nothing is resolved lazily at
// request time.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sitebrain/sitebrain/db"
	"github.com/sitebrain/sitebrain/internal/config"
	"github.com/sitebrain/sitebrain/internal/crawl"
	"github.com/sitebrain/sitebrain/internal/embed"
	"github.com/sitebrain/sitebrain/internal/ingest"
	"github.com/sitebrain/sitebrain/internal/rag"
	"github.com/sitebrain/sitebrain/internal/store"
)

// App is the application container. Fields are initialized once in Setup
// and shared by the HTTP server and the CLI commands.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Store    store.Store
	Embedder embed.Provider
	Crawler  *crawl.Crawler
	Pipeline *ingest.Pipeline
	Answerer *rag.Answerer

	pg *store.Postgres // nil when the memory store is selected
}

// Setup validates configuration, runs migrations and constructs every
// component. A misconfigured dependency (unreachable database, missing
// local model, absent API key) fails here, before any work is accepted.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{Config: cfg, Logger: logger}

	switch cfg.VectorStore {
	case config.StoreMemory:
		logger.Info("using in-memory vector store")
		a.Store = store.NewMemory()
	default:
		if err := db.Migrate(cfg.PostgresURL(), logger); err != nil {
			return nil, fmt.Errorf("migrating database: %w", err)
		}
		pg, err := store.NewPostgres(ctx, cfg.PostgresConnectionString(), logger)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		a.pg = pg
		a.Store = pg
	}

	embedder, err := embed.Resolve(cfg, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("resolving embedding provider: %w", err)
	}
	a.Embedder = embedder
	logger.Info("embedding provider ready", "provider", embedder.Name())

	a.Crawler = crawl.New(logger)
	a.Pipeline = ingest.NewPipeline(a.Store, a.Embedder, a.Crawler, cfg, logger)

	// Answering needs a completion credential; ingestion does not. Commands
	// that answer questions check ValidateCompletionKeys first, so a nil
	// Answerer is never reached from them.
	if cfg.CompletionCredential() != "" {
		completer, err := rag.NewCompleter(cfg, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("creating completion backend: %w", err)
		}
		a.Answerer = rag.NewAnswerer(a.Embedder, a.Store, completer, rag.AnswererOptions{
			TopK:            cfg.TopK,
			MaxContextChars: cfg.MaxContextChars,
		}, logger)
	}

	return a, nil
}

// Close releases held resources. Safe to call on a partially built App.
func (a *App) Close() {
	if a.pg != nil {
		a.pg.Close()
		a.Logger.Info("database pool closed")
	}
}
