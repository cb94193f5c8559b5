package ingest

import (
	"strings"
	"unicode/utf8"

	"github.com/sitebrain/sitebrain/internal/extract"
)

// Chunking defaults. Overlap must stay below MaxChars so the sliding window
// always advances.
const (
	DefaultMaxChars = 1800
	DefaultOverlap  = 200

	// MinChunkChars is the floor below which a segment is discarded:
	// fragments that short carry no retrievable meaning.
	MinChunkChars = 50
)

// Section is a chunk of text together with the heading path of the document
// section it belongs to (outermost heading first). HeadingPath is nil for
// plain-mode chunks and for text preceding the first heading.
type Section struct {
	Text        string
	HeadingPath []string
}

// Chunk splits text into overlapping segments of at most maxChars
// characters. Consecutive kept segments overlap by overlap characters so no
// semantic unit is cut without redundancy. Segments are trimmed and those
// not longer than MinChunkChars are dropped. Character arithmetic is
// rune-based.
func Chunk(text string, maxChars, overlap int) []string {
	text = strings.TrimSpace(manyNewlines.ReplaceAllString(text, "\n\n"))
	if text == "" {
		return nil
	}

	runes := []rune(text)
	var chunks []string
	i := 0
	for i < len(runes) {
		j := min(len(runes), i+maxChars)
		c := strings.TrimSpace(string(runes[i:j]))
		if utf8.RuneCountInString(c) > MinChunkChars {
			chunks = append(chunks, c)
		}
		if j == len(runes) {
			break
		}
		i = max(0, j-overlap)
	}

	return chunks
}

// ChunkByHeadings splits text into sections delimited by the given headings
// (in document order, offsets into text) and chunks each section, attaching
// the heading path of the enclosing sections. A heading at level N closes
// every open heading at level >= N. Sections whose body fits within maxChars
// become a single chunk; larger sections fall back to plain sliding-window
// chunking with the same heading path on every piece. Text before the first
// heading becomes its own section with an empty path. With no headings, or
// when the heading pass yields nothing, the whole text is chunked in plain
// mode.
func ChunkByHeadings(text string, headings []extract.Heading, maxChars, overlap int) []Section {
	if len(headings) == 0 {
		return plainSections(text, maxChars, overlap)
	}

	var sections []Section

	// Stack of (level, title) pairs tracking the open heading scope.
	type frame struct {
		level int
		title string
	}
	var stack []frame

	for i, h := range headings {
		for len(stack) > 0 && stack[len(stack)-1].level >= h.Level {
			stack = stack[:len(stack)-1]
		}
		stack = append(stack, frame{level: h.Level, title: h.Title})

		path := make([]string, len(stack))
		for j, f := range stack {
			path[j] = f.title
		}

		start := h.Offset
		end := len(text)
		if i+1 < len(headings) {
			end = headings[i+1].Offset
		}
		if start < 0 || start > end || end > len(text) {
			continue
		}

		body := stripHeadingLine(text[start:end])
		if utf8.RuneCountInString(body) < MinChunkChars {
			continue
		}

		if utf8.RuneCountInString(body) <= maxChars {
			sections = append(sections, Section{Text: body, HeadingPath: path})
			continue
		}
		for _, c := range Chunk(body, maxChars, overlap) {
			sections = append(sections, Section{Text: c, HeadingPath: path})
		}
	}

	// Text before the first heading is its own section with an empty path.
	if headings[0].Offset > 0 {
		intro := strings.TrimSpace(text[:headings[0].Offset])
		if utf8.RuneCountInString(intro) >= MinChunkChars {
			var introSections []Section
			if utf8.RuneCountInString(intro) <= maxChars {
				introSections = []Section{{Text: intro}}
			} else {
				for _, c := range Chunk(intro, maxChars, overlap) {
					introSections = append(introSections, Section{Text: c})
				}
			}
			sections = append(introSections, sections...)
		}
	}

	if len(sections) == 0 {
		return plainSections(text, maxChars, overlap)
	}
	return sections
}

// plainSections wraps plain-mode chunking into Sections with empty paths.
func plainSections(text string, maxChars, overlap int) []Section {
	chunks := Chunk(text, maxChars, overlap)
	if len(chunks) == 0 {
		return nil
	}
	sections := make([]Section, len(chunks))
	for i, c := range chunks {
		sections[i] = Section{Text: c}
	}
	return sections
}

// stripHeadingLine removes the heading's own line from a section body.
// Setext titles (underlined) are left in place, matching the markdown
// scanner which records the title line offset.
func stripHeadingLine(section string) string {
	lines := strings.Split(section, "\n")
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[0]), "#") {
		return strings.TrimSpace(strings.Join(lines[1:], "\n"))
	}
	return strings.TrimSpace(section)
}
