package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	localInitTimeout = 10 * time.Second
	localCallTimeout = 60 * time.Second
)

// LocalConfig carries the settings for the Ollama-backed provider.
type LocalConfig struct {
	Host  string // e.g. "http://localhost:11434"
	Model string // e.g. "nomic-embed-text"
}

// Local embeds text through a locally running Ollama server.
type Local struct {
	host   string
	model  string
	client *http.Client
	logger *slog.Logger
}

// NewLocal constructs the local provider and verifies that the configured
// model is already pulled. The check runs once at construction so that a
// missing model surfaces as ErrModelInit at startup instead of failing the
// first embedding call.
func NewLocal(cfg LocalConfig, logger *slog.Logger) (*Local, error) {
	if cfg.Host == "" {
		cfg.Host = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "nomic-embed-text"
	}

	l := &Local{
		host:   strings.TrimRight(cfg.Host, "/"),
		model:  cfg.Model,
		client: &http.Client{},
		logger: logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), localInitTimeout)
	defer cancel()
	if err := l.checkModel(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelInit, err)
	}

	return l, nil
}

func (l *Local) Name() string { return "local/" + l.model }

func (l *Local) checkModel(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.host+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama unreachable at %s: %w", l.host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return fmt.Errorf("decoding model list: %w", err)
	}

	for _, m := range tags.Models {
		// Ollama reports names with a tag suffix, e.g. "nomic-embed-text:latest".
		if m.Name == l.model || strings.HasPrefix(m.Name, l.model+":") {
			return nil
		}
	}
	return fmt.Errorf("model %q not found, run: ollama pull %s", l.model, l.model)
}

// Embed requests vectors for all texts in a single /api/embed call.
func (l *Local) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, localCallTimeout)
	defer cancel()

	payload, err := json.Marshal(map[string]any{
		"model": l.model,
		"input": texts,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		l.host+"/api/embed", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := l.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("ollama embed returned status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(out.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d inputs",
			ErrMalformedResponse, len(out.Embeddings), len(texts))
	}

	l.logger.Debug("embedded batch",
		"provider", l.Name(),
		"texts", len(texts),
		"duration", time.Since(started))

	return out.Embeddings, nil
}
