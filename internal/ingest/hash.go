package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// headingPathSep joins heading path segments when deriving content
// fingerprints. The separator never occurs in extracted heading titles in a
// way that matters: the joined string is only hashed, never parsed back.
const headingPathSep = " / "

// HashText returns the SHA-256 fingerprint of s as a 64-character hex
// digest. It is deterministic over the UTF-8 bytes of s.
func HashText(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// ChunkFingerprint derives the content hash for a chunk from its source
// identity and text. The heading path participates so the same text under
// different sections hashes differently; an empty path reduces to uri+text.
func ChunkFingerprint(uri string, headingPath []string, text string) string {
	if len(headingPath) == 0 {
		return HashText(uri + "\n" + text)
	}
	return HashText(uri + "\n" + strings.Join(headingPath, headingPathSep) + "\n" + text)
}

// ChunkID derives the deterministic chunk identifier from a content hash.
// It is a name-based UUID (v5, SHA-1 over the URL namespace), so
// re-ingesting identical content always maps to the same id and upserts
// stay idempotent.
func ChunkID(textHash string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(textHash)).String()
}
