package ingest

import "github.com/sitebrain/sitebrain/internal/store"

// Deduplicate drops chunks whose text hash was already seen earlier in the
// batch, keeping the first occurrence. Chunks without a hash are dropped
// outright since they cannot be stored or diffed.
func Deduplicate(chunks []store.Chunk) []store.Chunk {
	seen := make(map[string]struct{}, len(chunks))
	out := chunks[:0:0]
	for _, c := range chunks {
		if c.TextHash == "" {
			continue
		}
		if _, dup := seen[c.TextHash]; dup {
			continue
		}
		seen[c.TextHash] = struct{}{}
		out = append(out, c)
	}
	return out
}
