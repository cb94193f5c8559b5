package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"
)

// Memory is an in-process Store implementation. It backs tests and
// credential-free local runs; semantics mirror the Postgres backend,
// including dimension isolation and the per-batch atomicity boundary
// (the write lock spans the whole batch).
type Memory struct {
	mu     sync.RWMutex
	chunks map[string]Chunk
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{chunks: make(map[string]Chunk)}
}

// ExistingHashes returns id -> text_hash for the stored chunks among ids.
func (m *Memory) ExistingHashes(_ context.Context, ids []string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hashes := make(map[string]string)
	for _, id := range ids {
		if c, ok := m.chunks[id]; ok {
			hashes[id] = c.TextHash
		}
	}
	return hashes, nil
}

// UpsertBatch inserts or updates all chunks under one lock acquisition.
func (m *Memory) UpsertBatch(_ context.Context, chunks []Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for _, c := range chunks {
		if existing, ok := m.chunks[c.ID]; ok {
			c.CreatedAt = existing.CreatedAt
			c.UpdatedAt = now
		} else {
			c.CreatedAt = now
			c.UpdatedAt = now
		}
		m.chunks[c.ID] = c
	}
	return nil
}

// Search computes cosine distance in process, skipping chunks without an
// embedding or with a different dimensionality than the query.
func (m *Memory) Search(_ context.Context, queryVec []float32, topK int) ([]Chunk, error) {
	if len(queryVec) == 0 || topK < 1 {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	type scored struct {
		chunk    Chunk
		distance float64
	}
	var candidates []scored
	for _, c := range m.chunks {
		if len(c.Embedding) == 0 || len(c.Embedding) != len(queryVec) {
			continue
		}
		candidates = append(candidates, scored{chunk: c, distance: cosineDistance(queryVec, c.Embedding)})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].chunk.ID < candidates[j].chunk.ID // stable order for ties
	})

	n := min(topK, len(candidates))
	results := make([]Chunk, 0, n)
	for _, s := range candidates[:n] {
		results = append(results, s.chunk)
	}
	return results, nil
}

// DeleteByURI removes every chunk of one document.
func (m *Memory) DeleteByURI(_ context.Context, uri string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, c := range m.chunks {
		if c.URI == uri {
			delete(m.chunks, id)
			n++
		}
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: uri %q", ErrNotFound, uri)
	}
	return n, nil
}

// DeleteAll wipes the store.
func (m *Memory) DeleteAll(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := int64(len(m.chunks))
	m.chunks = make(map[string]Chunk)
	return n, nil
}

// CountBySource counts stored chunks with the given source tag.
func (m *Memory) CountBySource(_ context.Context, src Source) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, c := range m.chunks {
		if c.Source == src {
			n++
		}
	}
	return n, nil
}

// ListDocuments aggregates chunks per (uri, source), ordered by URI.
func (m *Memory) ListDocuments(_ context.Context, opts ListOptions) ([]DocumentInfo, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type key struct {
		uri    string
		source Source
	}
	agg := make(map[key]*DocumentInfo)
	for _, c := range m.chunks {
		if opts.Source != "" && string(c.Source) != opts.Source {
			continue
		}
		k := key{uri: c.URI, source: c.Source}
		d, ok := agg[k]
		if !ok {
			d = &DocumentInfo{
				URI:             c.URI,
				Source:          c.Source,
				Title:           c.Title,
				FirstIngestedAt: c.CreatedAt,
				LastUpdatedAt:   c.UpdatedAt,
			}
			agg[k] = d
		}
		d.ChunkCount++
		if c.Title != "" {
			d.Title = c.Title
		}
		if c.CreatedAt.Before(d.FirstIngestedAt) {
			d.FirstIngestedAt = c.CreatedAt
		}
		if c.UpdatedAt.After(d.LastUpdatedAt) {
			d.LastUpdatedAt = c.UpdatedAt
		}
	}

	docs := make([]DocumentInfo, 0, len(agg))
	for _, d := range agg {
		docs = append(docs, *d)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].URI < docs[j].URI })

	total := int64(len(docs))
	limit := opts.Limit
	if limit < 1 {
		limit = 100
	}
	offset := max(opts.Offset, 0)
	if offset >= len(docs) {
		return nil, total, nil
	}
	end := min(offset+limit, len(docs))
	return docs[offset:end], total, nil
}

// Get returns a stored chunk by id. Test helper.
func (m *Memory) Get(id string) (Chunk, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.chunks[id]
	return c, ok
}

// Len returns the number of stored chunks. Test helper.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks)
}

// cosineDistance is 1 - cosine similarity. Zero vectors are treated as
// maximally distant rather than dividing by zero.
func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
