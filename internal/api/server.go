// Package api exposes the question answering and content administration
// surface over HTTP.
//
// Endpoints:
//
//	POST   /chat                   → answer a question with cited sources
//	POST   /ingest                 → run web/file ingestion on demand
//	GET    /admin/documents        → per-URI document listing
//	DELETE /admin/documents        → wholesale content wipe
//	DELETE /admin/documents/{uri}  → drop one document's chunks
//	GET    /health                 → liveness probe
//	GET    /                       → service metadata
//
// Middleware order: Recovery → RequestID → Logging → CORS → RateLimit →
// Routes. RequestID must be before Logging so request_id is available in
// log attributes. CORS must be before RateLimit so preflight OPTIONS gets
// proper CORS headers.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultAddr is the default address for the HTTP server.
	DefaultAddr = ":8080"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout is the timeout for reading request headers.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is the maximum duration for writing the response. Chat
	// completions can take a while, so this stays above the completion
	// timeout.
	WriteTimeout = 60 * time.Second

	// IdleTimeout is the maximum time to wait for the next request on
	// keep-alive connections.
	IdleTimeout = 120 * time.Second
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger      *slog.Logger
	Answerer    AnswerService // Required
	Pipeline    IngestService // Required
	Admin       AdminStore    // Required
	CORSOrigins []string      // Allowed origins for CORS
	TrustProxy  bool          // Trust X-Real-IP/X-Forwarded-For headers
	RateBurst   int           // Rate limiter burst size per IP (0 = default 60)
}

// Server is the JSON API HTTP server.
type Server struct {
	handler http.Handler
	logger  *slog.Logger
}

// NewServer creates the API server with all routes and middleware
// configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Answerer == nil {
		return nil, errors.New("answer service is required")
	}
	if cfg.Pipeline == nil {
		return nil, errors.New("ingest service is required")
	}
	if cfg.Admin == nil {
		return nil, errors.New("admin store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ch := &chatHandler{answerer: cfg.Answerer, logger: logger}
	ih := &ingestHandler{pipeline: cfg.Pipeline, logger: logger}
	ah := &adminHandler{store: cfg.Admin, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", ch.chat)
	mux.HandleFunc("POST /ingest", ih.ingest)
	mux.HandleFunc("GET /admin/documents", ah.listDocuments)
	mux.HandleFunc("DELETE /admin/documents", ah.deleteAll)
	mux.HandleFunc("DELETE /admin/documents/{uri...}", ah.deleteDocument)
	mux.HandleFunc("GET /health", health(logger))
	mux.HandleFunc("GET /{$}", meta(logger))

	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}
	rl := newRateLimiter(1.0, burst)

	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	return &Server{handler: handler, logger: logger}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run starts the HTTP server and blocks until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func health(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, logger)
	}
}

func meta(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service": "sitebrain",
			"endpoints": []string{
				"POST /chat",
				"POST /ingest",
				"GET /admin/documents",
				"DELETE /admin/documents",
				"DELETE /admin/documents/{uri}",
				"GET /health",
			},
		}, logger)
	}
}
