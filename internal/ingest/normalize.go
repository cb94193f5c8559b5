package ingest

import (
	"regexp"
	"strings"
)

var (
	horizontalWS  = regexp.MustCompile(`[^\S\n]+`)
	spacedNewline = regexp.MustCompile(` *\n *`)
	manyNewlines  = regexp.MustCompile(`\n{3,}`)
)

// Normalize cleans up raw extracted text: runs of spaces and tabs collapse
// to a single space, three or more consecutive newlines collapse to exactly
// two, and leading/trailing whitespace is trimmed. Newlines are preserved so
// heading positions computed on the normalized text stay meaningful.
//
// Empty or whitespace-only input yields the empty string, which callers must
// treat as "nothing to ingest".
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = horizontalWS.ReplaceAllString(text, " ")
	text = spacedNewline.ReplaceAllString(text, "\n")
	text = manyNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
