// Package store persists content chunks with their vector embeddings and
// serves similarity search over them.
//
// Two backends implement the Store interface: Postgres (pgvector, the
// production path) and Memory (used for tests and credential-free local
// runs). Both enforce the same retrieval contract: only chunks whose
// embedding dimensionality matches the query vector participate in a
// search, so chunks embedded under different providers can coexist.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a delete-by-URI matched no chunks.
var ErrNotFound = errors.New("no chunks found")

// Source tags where a chunk's document came from.
type Source string

const (
	SourceWeb  Source = "web"
	SourceFile Source = "file"
)

// Chunk is the unit of storage and retrieval: a bounded segment of a
// document's text plus its embedding.
//
// ID is deterministic (derived from the content fingerprint), so re-ingesting
// identical content upserts instead of duplicating. Embedding is nil until
// embedding succeeds; rows are never written half-populated.
type Chunk struct {
	ID          string
	Source      Source
	URI         string
	Title       string
	HeadingPath []string
	Text        string
	TextHash    string
	Embedding   []float32
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DocumentInfo is a per-URI aggregate over chunks, used by the admin
// document listing.
type DocumentInfo struct {
	URI             string    `json:"uri"`
	Source          Source    `json:"source"`
	Title           string    `json:"title,omitempty"`
	ChunkCount      int64     `json:"chunk_count"`
	FirstIngestedAt time.Time `json:"first_ingested_at"`
	LastUpdatedAt   time.Time `json:"last_updated_at"`
}

// ListOptions filters and paginates the admin document listing.
type ListOptions struct {
	Source string // "web", "file" or "" for all
	Limit  int
	Offset int
}

// Store is the persistence contract for chunks.
type Store interface {
	// ExistingHashes returns id -> text_hash for the stored chunks among ids.
	// Used by the upsert diff to skip unchanged content.
	ExistingHashes(ctx context.Context, ids []string) (map[string]string, error)

	// UpsertBatch writes the given chunks (insert or update by id) as one
	// atomic unit. Every chunk must carry an embedding.
	UpsertBatch(ctx context.Context, chunks []Chunk) error

	// Search returns up to topK chunks with a non-nil embedding of the same
	// dimensionality as queryVec, ordered by ascending cosine distance.
	// An empty result is not an error.
	Search(ctx context.Context, queryVec []float32, topK int) ([]Chunk, error)

	// DeleteByURI removes all chunks of one document and reports how many
	// were deleted. Returns ErrNotFound when the URI has no chunks.
	DeleteByURI(ctx context.Context, uri string) (int64, error)

	// DeleteAll wipes the store and reports how many chunks were deleted.
	DeleteAll(ctx context.Context) (int64, error)

	// CountBySource counts stored chunks with the given source tag.
	CountBySource(ctx context.Context, src Source) (int64, error)

	// ListDocuments aggregates chunks per (uri, source) and returns one page
	// plus the total number of documents matching the filter.
	ListDocuments(ctx context.Context, opts ListOptions) ([]DocumentInfo, int64, error)
}
