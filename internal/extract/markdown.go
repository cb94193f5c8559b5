package extract

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	atxHeading      = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	setextUnderline = regexp.MustCompile(`^=+$`)
	setextDashes    = regexp.MustCompile(`^-+$`)
)

// Markdown extracts text and heading structure from .md/.mdx files.
type Markdown struct{}

// Load reads a markdown file. The file name (without extension) becomes the
// title and ATX/Setext headings are recorded with their byte offsets.
func (Markdown) Load(path string) (Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("reading markdown file: %w", err)
	}

	text := string(raw)
	return Document{
		URI:      path,
		Title:    stem(path),
		Text:     text,
		Headings: Headings(text),
	}, nil
}

// Headings scans markdown text for headings and returns them in document
// order with byte offsets into text. Both ATX (#, ##, ...) and Setext
// (=== / --- underlines) styles are recognized.
func Headings(text string) []Heading {
	var headings []Heading
	lines := strings.Split(text, "\n")
	pos := 0

	for i, line := range lines {
		stripped := strings.TrimSpace(line)

		if m := atxHeading.FindStringSubmatch(stripped); m != nil {
			headings = append(headings, Heading{
				Level:  len(m[1]),
				Title:  strings.TrimSpace(m[2]),
				Offset: pos,
			})
		} else if i > 0 && stripped != "" {
			// A Setext underline promotes the previous non-empty line.
			prev := strings.TrimSpace(lines[i-1])
			if prev != "" {
				prevOffset := pos - len(lines[i-1]) - 1
				if setextUnderline.MatchString(stripped) {
					headings = append(headings, Heading{Level: 1, Title: prev, Offset: prevOffset})
				} else if setextDashes.MatchString(stripped) {
					headings = append(headings, Heading{Level: 2, Title: prev, Offset: prevOffset})
				}
			}
		}

		pos += len(line) + 1 // +1 for the newline
	}

	return headings
}
