package extract

import (
	"fmt"
	"os"
)

// Plain extracts text from .txt files verbatim.
type Plain struct{}

// Load reads a plain-text file. The file name (without extension) becomes
// the title; no heading structure is produced.
func (Plain) Load(path string) (Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("reading text file: %w", err)
	}

	return Document{
		URI:   path,
		Title: stem(path),
		Text:  string(raw),
	}, nil
}
