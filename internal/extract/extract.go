// Package extract turns files on disk into plain-text documents ready for
// chunking. Each supported format has one Extractor implementation; ForPath
// selects the implementation from the file extension. Unsupported formats
// surface ErrUnsupportedFormat instead of failing deep inside a parser.
package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat indicates no extractor exists for a file extension.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Heading is a document section heading with its nesting level (1 =
// outermost) and byte offset into the text it was extracted from.
type Heading struct {
	Level  int
	Title  string
	Offset int
}

// Document is the extractor output: a locator, an optional human-readable
// title and the raw text. Headings is populated only for structured formats
// (currently markdown); offsets refer to the raw Text.
type Document struct {
	URI      string
	Title    string
	Text     string
	Headings []Heading
}

// Extractor loads one file format into a Document.
type Extractor interface {
	Load(path string) (Document, error)
}

// extractors is the extension dispatch table. Extensions are lower-case and
// include the leading dot.
var extractors = map[string]Extractor{
	".md":   Markdown{},
	".mdx":  Markdown{},
	".txt":  Plain{},
	".html": HTML{},
	".htm":  HTML{},
}

// ForPath returns the extractor responsible for the given file path, or
// ErrUnsupportedFormat when the extension has no registered extractor.
func ForPath(path string) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(path))
	e, ok := extractors[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return e, nil
}

// Supported reports whether a file extension has a registered extractor.
func Supported(path string) bool {
	_, ok := extractors[strings.ToLower(filepath.Ext(path))]
	return ok
}

// stem returns the file name without its extension, used as a fallback title.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
