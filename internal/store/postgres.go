package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

// Postgres is the pgvector-backed Store implementation.
// It is safe for concurrent use; transactional batching makes each
// UpsertBatch atomic.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgres connects to PostgreSQL and registers the pgvector codec on
// every pooled connection. The connection is verified with a ping so a bad
// DSN fails at startup, not on first use.
func NewPostgres(ctx context.Context, connString string, logger *slog.Logger) (*Postgres, error) {
	if logger == nil {
		logger = slog.Default()
	}

	poolCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres config: %w", err)
	}
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	return &Postgres{pool: pool, logger: logger}, nil
}

// Pool exposes the underlying connection pool for readiness probes.
func (p *Postgres) Pool() *pgxpool.Pool {
	return p.pool
}

// Close releases the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// ExistingHashes returns id -> text_hash for the stored chunks among ids.
func (p *Postgres) ExistingHashes(ctx context.Context, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	rows, err := p.pool.Query(ctx,
		`SELECT id, text_hash FROM chunks WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("querying existing hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var id, hash string
		if err := rows.Scan(&id, &hash); err != nil {
			return nil, fmt.Errorf("scanning hash row: %w", err)
		}
		hashes[id] = hash
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading hash rows: %w", err)
	}
	return hashes, nil
}

const upsertChunkSQL = `
INSERT INTO chunks (id, source, uri, title, heading_path, text, text_hash, embedding, created_at, updated_at)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, now(), now())
ON CONFLICT (id) DO UPDATE SET
    text         = EXCLUDED.text,
    text_hash    = EXCLUDED.text_hash,
    embedding    = EXCLUDED.embedding,
    title        = EXCLUDED.title,
    heading_path = EXCLUDED.heading_path,
    updated_at   = now()`

// UpsertBatch writes all chunks in a single transaction. The batch is the
// atomicity boundary: either every row lands or none does.
func (p *Postgres) UpsertBatch(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning upsert transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, c := range chunks {
		headingPath, err := marshalHeadingPath(c.HeadingPath)
		if err != nil {
			return fmt.Errorf("encoding heading path for chunk %q: %w", c.ID, err)
		}
		vec := pgvector.NewVector(c.Embedding)
		batch.Queue(upsertChunkSQL,
			c.ID, string(c.Source), c.URI, c.Title, headingPath, c.Text, c.TextHash, vec)
	}

	results := tx.SendBatch(ctx, batch)
	for range chunks {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("upserting chunk: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("closing upsert batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing upsert: %w", err)
	}

	p.logger.Debug("upserted chunk batch", "count", len(chunks))
	return nil
}

// Search returns the topK nearest chunks by cosine distance. Chunks with a
// missing embedding or a different dimensionality are excluded in SQL, so a
// store holding vectors from two providers never mixes them in one result.
func (p *Postgres) Search(ctx context.Context, queryVec []float32, topK int) ([]Chunk, error) {
	if len(queryVec) == 0 || topK < 1 {
		return nil, nil
	}

	vec := pgvector.NewVector(queryVec)
	rows, err := p.pool.Query(ctx, `
SELECT id, source, uri, COALESCE(title, ''), heading_path, text, text_hash, embedding, created_at, COALESCE(updated_at, created_at)
FROM chunks
WHERE embedding IS NOT NULL
  AND vector_dims(embedding) = $2
ORDER BY embedding <=> $1
LIMIT $3`, vec, len(queryVec), topK)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var (
			c        Chunk
			source   string
			pathJSON []byte
			emb      pgvector.Vector
		)
		if err := rows.Scan(&c.ID, &source, &c.URI, &c.Title, &pathJSON, &c.Text, &c.TextHash, &emb, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning chunk row: %w", err)
		}
		c.Source = Source(source)
		c.Embedding = emb.Slice()
		if c.HeadingPath, err = unmarshalHeadingPath(pathJSON); err != nil {
			return nil, fmt.Errorf("decoding heading path for chunk %q: %w", c.ID, err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading chunk rows: %w", err)
	}
	return chunks, nil
}

// DeleteByURI removes every chunk of one document.
func (p *Postgres) DeleteByURI(ctx context.Context, uri string) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM chunks WHERE uri = $1`, uri)
	if err != nil {
		return 0, fmt.Errorf("deleting chunks for %q: %w", uri, err)
	}
	n := tag.RowsAffected()
	if n == 0 {
		return 0, fmt.Errorf("%w: uri %q", ErrNotFound, uri)
	}
	p.logger.Debug("deleted document chunks", "uri", uri, "count", n)
	return n, nil
}

// DeleteAll wipes the chunk table.
func (p *Postgres) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM chunks`)
	if err != nil {
		return 0, fmt.Errorf("deleting all chunks: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CountBySource counts stored chunks with the given source tag.
func (p *Postgres) CountBySource(ctx context.Context, src Source) (int64, error) {
	var count int64
	err := p.pool.QueryRow(ctx,
		`SELECT count(*) FROM chunks WHERE source = $1`, string(src)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting chunks for source %q: %w", src, err)
	}
	return count, nil
}

// ListDocuments aggregates chunks per (uri, source). The total document
// count comes from a window function over the grouped rows so listing and
// counting stay one query.
func (p *Postgres) ListDocuments(ctx context.Context, opts ListOptions) ([]DocumentInfo, int64, error) {
	limit := opts.Limit
	if limit < 1 {
		limit = 100
	}
	offset := max(opts.Offset, 0)

	rows, err := p.pool.Query(ctx, `
SELECT uri,
       source,
       COALESCE(max(title), ''),
       count(*),
       min(created_at),
       max(COALESCE(updated_at, created_at)),
       count(*) OVER ()
FROM chunks
WHERE ($1 = '' OR source = $1)
GROUP BY uri, source
ORDER BY uri
LIMIT $2 OFFSET $3`, opts.Source, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var (
		docs  []DocumentInfo
		total int64
	)
	for rows.Next() {
		var (
			d      DocumentInfo
			source string
		)
		if err := rows.Scan(&d.URI, &source, &d.Title, &d.ChunkCount, &d.FirstIngestedAt, &d.LastUpdatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scanning document row: %w", err)
		}
		d.Source = Source(source)
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("reading document rows: %w", err)
	}
	return docs, total, nil
}

func marshalHeadingPath(path []string) ([]byte, error) {
	if len(path) == 0 {
		return nil, nil // stored as NULL
	}
	return json.Marshal(path)
}

func unmarshalHeadingPath(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var path []string
	if err := json.Unmarshal(raw, &path); err != nil {
		return nil, err
	}
	return path, nil
}
