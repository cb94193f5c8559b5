package ingest

import (
	"github.com/sitebrain/sitebrain/internal/extract"
	"github.com/sitebrain/sitebrain/internal/store"
)

// BuildCandidates turns one extracted document into storable chunk
// candidates: normalized text, split into sections, each fingerprinted and
// given its deterministic id. Embeddings are filled in later, after the
// diff against the store decides which candidates actually need one.
//
// Heading structure is recomputed on the normalized text because
// normalization shifts byte offsets; the offsets captured at extraction
// time describe the raw text.
func BuildCandidates(doc extract.Document, src store.Source, maxChars, overlap int) []store.Chunk {
	text := Normalize(doc.Text)
	if text == "" {
		return nil
	}

	var sections []Section
	if len(doc.Headings) > 0 {
		sections = ChunkByHeadings(text, extract.Headings(text), maxChars, overlap)
	} else {
		for _, piece := range Chunk(text, maxChars, overlap) {
			sections = append(sections, Section{Text: piece})
		}
	}

	chunks := make([]store.Chunk, 0, len(sections))
	for _, s := range sections {
		hash := ChunkFingerprint(doc.URI, s.HeadingPath, s.Text)
		chunks = append(chunks, store.Chunk{
			ID:          ChunkID(hash),
			Source:      src,
			URI:         doc.URI,
			Title:       doc.Title,
			HeadingPath: s.HeadingPath,
			Text:        s.Text,
			TextHash:    hash,
		})
	}
	return chunks
}
