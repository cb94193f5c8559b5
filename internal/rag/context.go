package rag

import (
	"fmt"
	"unicode/utf8"

	"github.com/sitebrain/sitebrain/internal/store"
)

// DefaultMaxContextChars bounds how much retrieved text is packed into one
// prompt.
const DefaultMaxContextChars = 12000

// buildContext renders retrieved chunks into prompt blocks, best match
// first, stopping before the character budget is exceeded. Blocks are
// included whole or not at all; the first block that would overflow the
// budget ends the packing. Returns the rendered blocks and the distinct
// source URIs of the included chunks in first-occurrence order.
func buildContext(chunks []store.Chunk, maxChars int) (blocks, sources []string) {
	if maxChars <= 0 {
		maxChars = DefaultMaxContextChars
	}

	seen := make(map[string]struct{})
	used := 0
	for _, c := range chunks {
		block := renderBlock(c)
		n := utf8.RuneCountInString(block)
		if used+n > maxChars {
			break
		}
		used += n
		blocks = append(blocks, block)
		if _, ok := seen[c.URI]; !ok {
			seen[c.URI] = struct{}{}
			sources = append(sources, c.URI)
		}
	}
	return blocks, sources
}

func renderBlock(c store.Chunk) string {
	title := c.Title
	if title == "" {
		title = "N/A"
	}
	return fmt.Sprintf("Source: %s\nTitle: %s\nContent:\n%s\n", c.URI, title, c.Text)
}
