package extract

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestForPath_Dispatch(t *testing.T) {
	tests := []struct {
		path string
		want Extractor
	}{
		{"notes.md", Markdown{}},
		{"notes.MDX", Markdown{}},
		{"readme.txt", Plain{}},
		{"index.html", HTML{}},
		{"page.HTM", HTML{}},
	}
	for _, tt := range tests {
		e, err := ForPath(tt.path)
		if err != nil {
			t.Errorf("ForPath(%q): %v", tt.path, err)
			continue
		}
		if e != tt.want {
			t.Errorf("ForPath(%q) = %T, want %T", tt.path, e, tt.want)
		}
	}
}

func TestForPath_Unsupported(t *testing.T) {
	for _, path := range []string{"report.pdf", "slides.pptx", "binary"} {
		if _, err := ForPath(path); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("ForPath(%q) = %v, want ErrUnsupportedFormat", path, err)
		}
	}
}

func TestMarkdown_Load(t *testing.T) {
	path := writeFile(t, "guide.md", "# Intro\nSome body text.\n## Details\nMore text.\n")

	doc, err := Markdown{}.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Title != "guide" {
		t.Errorf("title = %q, want %q", doc.Title, "guide")
	}
	if doc.URI != path {
		t.Errorf("uri = %q, want %q", doc.URI, path)
	}
	if len(doc.Headings) != 2 {
		t.Fatalf("headings = %d, want 2", len(doc.Headings))
	}
	if doc.Headings[0].Title != "Intro" || doc.Headings[0].Level != 1 {
		t.Errorf("first heading = %+v", doc.Headings[0])
	}
	if doc.Headings[1].Title != "Details" || doc.Headings[1].Level != 2 {
		t.Errorf("second heading = %+v", doc.Headings[1])
	}
}

func TestHeadings_ATXOffsets(t *testing.T) {
	text := "intro line\n# First\nbody\n### Deep\nmore"
	hs := Headings(text)
	if len(hs) != 2 {
		t.Fatalf("got %d headings, want 2", len(hs))
	}
	if text[hs[0].Offset:hs[0].Offset+7] != "# First" {
		t.Errorf("offset of first heading wrong: %d", hs[0].Offset)
	}
	if hs[1].Level != 3 {
		t.Errorf("level = %d, want 3", hs[1].Level)
	}
}

func TestHeadings_Setext(t *testing.T) {
	text := "Title\n=====\nbody\nSection\n-------\nmore"
	hs := Headings(text)
	if len(hs) != 2 {
		t.Fatalf("got %d headings, want 2", len(hs))
	}
	if hs[0].Level != 1 || hs[0].Title != "Title" {
		t.Errorf("setext h1 = %+v", hs[0])
	}
	if hs[1].Level != 2 || hs[1].Title != "Section" {
		t.Errorf("setext h2 = %+v", hs[1])
	}
	if hs[0].Offset != 0 {
		t.Errorf("setext h1 offset = %d, want 0", hs[0].Offset)
	}
}

func TestHeadings_None(t *testing.T) {
	if hs := Headings("just a paragraph\nwith two lines"); len(hs) != 0 {
		t.Errorf("expected no headings, got %+v", hs)
	}
}

func TestPlain_Load(t *testing.T) {
	path := writeFile(t, "notes.txt", "plain content")
	doc, err := Plain{}.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Text != "plain content" || doc.Title != "notes" {
		t.Errorf("doc = %+v", doc)
	}
	if doc.Headings != nil {
		t.Errorf("plain text should not have headings")
	}
}

func TestHTML_Load(t *testing.T) {
	page := `<html><head><title>My Page</title><style>body{}</style></head>
<body><nav>menu</nav><main><h1>Welcome</h1><p>Hello there.</p>
<script>alert(1)</script></main></body></html>`
	path := writeFile(t, "page.html", page)

	doc, err := HTML{}.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Title != "My Page" {
		t.Errorf("title = %q", doc.Title)
	}
	if !strings.Contains(doc.Text, "Welcome") || !strings.Contains(doc.Text, "Hello there.") {
		t.Errorf("text missing main content: %q", doc.Text)
	}
	// <main> preferred: nav content excluded, scripts stripped.
	if strings.Contains(doc.Text, "menu") || strings.Contains(doc.Text, "alert") {
		t.Errorf("boilerplate leaked into text: %q", doc.Text)
	}
}

func TestHTMLToText_NoMainFallsBackToBody(t *testing.T) {
	title, text, err := HTMLToText(strings.NewReader("<html><body><p>body only</p></body></html>"))
	if err != nil {
		t.Fatalf("HTMLToText: %v", err)
	}
	if title != "" {
		t.Errorf("title = %q, want empty", title)
	}
	if !strings.Contains(text, "body only") {
		t.Errorf("text = %q", text)
	}
}
