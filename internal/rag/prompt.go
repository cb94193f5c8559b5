package rag

import (
	"fmt"
	"strings"
)

const blockSeparator = "\n---\n"

// buildPrompt assembles the user-role message: the question followed by the
// packed context blocks.
func buildPrompt(question string, blocks []string) string {
	return fmt.Sprintf("Question: %s\n\nContext:\n%s",
		question, strings.Join(blocks, blockSeparator))
}
