package extract

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// HTML extracts readable text from .html/.htm files.
type HTML struct{}

// Load reads an HTML file, strips boilerplate tags and returns the text of
// the <main> element when present, otherwise the <body>.
func (HTML) Load(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("opening HTML file: %w", err)
	}
	defer func() { _ = f.Close() }()

	title, text, err := HTMLToText(f)
	if err != nil {
		return Document{}, fmt.Errorf("parsing HTML file %s: %w", path, err)
	}
	if title == "" {
		title = stem(path)
	}

	return Document{
		URI:   path,
		Title: title,
		Text:  text,
	}, nil
}

// HTMLToText parses an HTML document and returns its title and a
// newline-separated plain-text rendering. Script, style, noscript and svg
// subtrees are removed; when a <main> element exists its content is
// preferred over the full body. Shared with the sitemap crawler as a
// fallback when readability extraction yields nothing.
func HTMLToText(r io.Reader) (title, text string, err error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", "", fmt.Errorf("parsing HTML: %w", err)
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find("script, style, noscript, svg").Remove()

	node := doc.Find("main").First()
	if node.Length() == 0 {
		node = doc.Find("body").First()
	}
	if node.Length() == 0 {
		return title, "", nil
	}

	var parts []string
	for _, n := range node.Nodes {
		collectText(n, &parts)
	}
	return title, strings.Join(parts, "\n"), nil
}

// collectText appends the trimmed content of every text node under n.
func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			*parts = append(*parts, t)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}
