package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/sitebrain/sitebrain/internal/config"
	"github.com/sitebrain/sitebrain/internal/crawl"
	"github.com/sitebrain/sitebrain/internal/extract"
	"github.com/sitebrain/sitebrain/internal/store"
)

// Embedder produces one vector per input text, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Crawler discovers and fetches site pages.
type Crawler interface {
	SitemapURLs(ctx context.Context, sitemapURL string) ([]string, error)
	Fetch(ctx context.Context, urls []string) ([]crawl.Page, error)
}

// ItemError records one document that failed during a batch ingestion run.
// Failures are collected per item so a bad file or page does not abort the
// rest of the batch.
type ItemError struct {
	URI string
	Err error
}

func (e ItemError) Error() string { return fmt.Sprintf("%s: %v", e.URI, e.Err) }

// Stats summarizes an ingestion run. Chunk counts are chunks actually
// written (new or changed); unchanged chunks are skipped and not counted.
type Stats struct {
	WebChunks  int
	FileChunks int
	Failures   []ItemError
}

// Pipeline runs the full ingestion flow: acquire documents, chunk them,
// diff against the store, embed what changed and upsert.
type Pipeline struct {
	store    store.Store
	embedder Embedder
	crawler  Crawler
	logger   *slog.Logger

	sitemapURL string
	docsDir    string
	maxChars   int
	overlap    int
}

func NewPipeline(st store.Store, emb Embedder, cr Crawler, cfg *config.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	maxChars := cfg.ChunkMaxChars
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	overlap := cfg.ChunkOverlap
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	return &Pipeline{
		store:      st,
		embedder:   emb,
		crawler:    cr,
		logger:     logger,
		sitemapURL: cfg.SitemapURL,
		docsDir:    cfg.DocsDir,
		maxChars:   maxChars,
		overlap:    overlap,
	}
}

// IngestAll runs web and file ingestion for every configured content
// source. Sources with no configuration are skipped silently. A source
// failing wholesale (for example an unreachable sitemap) is recorded as a
// failure, not returned as an error; the other source still runs.
func (p *Pipeline) IngestAll(ctx context.Context) (Stats, error) {
	var stats Stats

	if p.sitemapURL != "" {
		n, failures, err := p.IngestWeb(ctx)
		stats.WebChunks = n
		stats.Failures = append(stats.Failures, failures...)
		if err != nil {
			if ctx.Err() != nil {
				return stats, err
			}
			stats.Failures = append(stats.Failures, ItemError{URI: p.sitemapURL, Err: err})
		}
	}

	if p.docsDir != "" {
		n, failures, err := p.IngestDocs(ctx)
		stats.FileChunks = n
		stats.Failures = append(stats.Failures, failures...)
		if err != nil {
			if ctx.Err() != nil {
				return stats, err
			}
			stats.Failures = append(stats.Failures, ItemError{URI: p.docsDir, Err: err})
		}
	}

	p.logger.Info("ingestion complete",
		"web_chunks", stats.WebChunks,
		"file_chunks", stats.FileChunks,
		"failures", len(stats.Failures))
	return stats, nil
}

// IngestWeb crawls the configured sitemap and ingests every page that
// yields text. Returns the number of chunks written.
func (p *Pipeline) IngestWeb(ctx context.Context) (int, []ItemError, error) {
	if p.sitemapURL == "" {
		return 0, nil, nil
	}

	urls, err := p.crawler.SitemapURLs(ctx, p.sitemapURL)
	if err != nil {
		return 0, nil, fmt.Errorf("listing sitemap: %w", err)
	}
	p.logger.Info("crawling site", "sitemap", p.sitemapURL, "urls", len(urls))

	pages, err := p.crawler.Fetch(ctx, urls)
	if err != nil {
		return 0, nil, fmt.Errorf("fetching pages: %w", err)
	}

	var candidates []store.Chunk
	for _, page := range pages {
		doc := extract.Document{URI: page.URL, Title: page.Title, Text: page.Text}
		candidates = append(candidates, BuildCandidates(doc, store.SourceWeb, p.maxChars, p.overlap)...)
	}

	written, err := p.upsert(ctx, candidates)
	if err != nil {
		return 0, nil, err
	}
	return written, nil, nil
}

// IngestDocs walks the configured docs directory and ingests every file
// with a supported extension. Unsupported files are skipped; a file that
// fails to load or parse is recorded as a failure and the walk continues.
func (p *Pipeline) IngestDocs(ctx context.Context) (int, []ItemError, error) {
	if p.docsDir == "" {
		return 0, nil, nil
	}

	var (
		candidates []store.Chunk
		failures   []ItemError
	)
	err := filepath.WalkDir(p.docsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if d.IsDir() {
			return nil
		}
		if !extract.Supported(path) {
			p.logger.Debug("skipping unsupported file", "path", path)
			return nil
		}

		chunks, lerr := p.loadFile(path)
		if lerr != nil {
			p.logger.Warn("file ingestion failed", "path", path, "error", lerr)
			failures = append(failures, ItemError{URI: path, Err: lerr})
			return nil
		}
		candidates = append(candidates, chunks...)
		return nil
	})
	if err != nil {
		return 0, failures, fmt.Errorf("walking %s: %w", p.docsDir, err)
	}

	written, err := p.upsert(ctx, candidates)
	if err != nil {
		return 0, failures, err
	}
	return written, failures, nil
}

// IngestFile ingests a single document by path. Returns the number of
// chunks written.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (int, error) {
	chunks, err := p.loadFile(path)
	if err != nil {
		return 0, err
	}
	return p.upsert(ctx, chunks)
}

func (p *Pipeline) loadFile(path string) ([]store.Chunk, error) {
	ex, err := extract.ForPath(path)
	if err != nil {
		return nil, err
	}
	doc, err := ex.Load(path)
	if err != nil {
		return nil, err
	}
	return BuildCandidates(doc, store.SourceFile, p.maxChars, p.overlap), nil
}

// upsert diffs candidates against the store, embeds only new or changed
// chunks in one batched call and writes them in one transaction. Returns
// the number of chunks written.
func (p *Pipeline) upsert(ctx context.Context, candidates []store.Chunk) (int, error) {
	candidates = Deduplicate(candidates)
	if len(candidates) == 0 {
		return 0, nil
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	existing, err := p.store.ExistingHashes(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("loading existing hashes: %w", err)
	}

	var changed []store.Chunk
	for _, c := range candidates {
		if hash, ok := existing[c.ID]; ok && hash == c.TextHash {
			continue
		}
		changed = append(changed, c)
	}
	if len(changed) == 0 {
		p.logger.Info("no chunk changes", "candidates", len(candidates))
		return 0, nil
	}

	texts := make([]string, len(changed))
	for i, c := range changed {
		texts[i] = c.Text
	}
	vectors, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding %d chunks: %w", len(changed), err)
	}
	if len(vectors) != len(changed) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(changed))
	}
	for i := range changed {
		changed[i].Embedding = vectors[i]
	}

	if err := p.store.UpsertBatch(ctx, changed); err != nil {
		return 0, fmt.Errorf("upserting chunks: %w", err)
	}

	p.logger.Info("upserted chunks",
		"written", len(changed),
		"unchanged", len(candidates)-len(changed))
	return len(changed), nil
}
