package ingest

import (
	"testing"

	"github.com/sitebrain/sitebrain/internal/store"
)

func TestHashTextDeterministic(t *testing.T) {
	a := HashText("hello world")
	b := HashText("hello world")
	if a != b {
		t.Errorf("same input hashed differently: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
	if a == HashText("hello world!") {
		t.Error("different inputs produced the same hash")
	}
}

func TestChunkFingerprintPathParticipates(t *testing.T) {
	uri, text := "https://example.com/docs", "some chunk text"

	noPath := ChunkFingerprint(uri, nil, text)
	withPath := ChunkFingerprint(uri, []string{"Guide", "Install"}, text)
	if noPath == withPath {
		t.Error("heading path did not affect the fingerprint")
	}

	otherPath := ChunkFingerprint(uri, []string{"Guide", "Upgrade"}, text)
	if withPath == otherPath {
		t.Error("different heading paths produced the same fingerprint")
	}

	if ChunkFingerprint("https://other.example.com", nil, text) == noPath {
		t.Error("uri did not affect the fingerprint")
	}
}

func TestChunkFingerprintEmptyPathEqualsNil(t *testing.T) {
	uri, text := "file:///doc.md", "body"
	if ChunkFingerprint(uri, nil, text) != ChunkFingerprint(uri, []string{}, text) {
		t.Error("nil and empty heading paths fingerprinted differently")
	}
}

func TestChunkIDStable(t *testing.T) {
	hash := HashText("content")
	a, b := ChunkID(hash), ChunkID(hash)
	if a != b {
		t.Errorf("same hash yielded different ids: %s vs %s", a, b)
	}
	if len(a) != 36 {
		t.Errorf("expected canonical uuid form, got %q", a)
	}
	if a == ChunkID(HashText("other content")) {
		t.Error("different hashes yielded the same id")
	}
}

func TestDeduplicate(t *testing.T) {
	chunks := []store.Chunk{
		{ID: "1", TextHash: "h1", Text: "first"},
		{ID: "2", TextHash: "h2", Text: "second"},
		{ID: "3", TextHash: "h1", Text: "first again"},
		{ID: "4", TextHash: "", Text: "hashless"},
	}

	got := Deduplicate(chunks)
	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(got))
	}
	if got[0].ID != "1" || got[1].ID != "2" {
		t.Errorf("wrong chunks kept: %v", got)
	}
}

func TestDeduplicateEmpty(t *testing.T) {
	if got := Deduplicate(nil); len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
}
