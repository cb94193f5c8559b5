package crawl

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/gocolly/colly/v2"

	"github.com/sitebrain/sitebrain/internal/extract"
)

const (
	pageFetchTimeout = 30 * time.Second
	parallelism      = 4
	userAgent        = "sitebrain/1.0 (+https://github.com/sitebrain/sitebrain)"
)

// Page is one fetched site page reduced to its readable text.
type Page struct {
	URL   string
	Title string
	Text  string
}

// Crawler fetches pages concurrently and extracts their main content.
type Crawler struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Crawler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Crawler{logger: logger}
}

// Fetch downloads the given URLs and returns a Page per URL that yielded
// non-empty text. Failed or empty pages are logged and skipped, never
// aborting the batch. Result order follows completion, not input order.
func (c *Crawler) Fetch(ctx context.Context, urls []string) ([]Page, error) {
	if len(urls) == 0 {
		return nil, nil
	}

	collector := colly.NewCollector(
		colly.Async(true),
		colly.UserAgent(userAgent),
		colly.StdlibContext(ctx),
	)
	collector.SetRequestTimeout(pageFetchTimeout)
	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: parallelism,
	}); err != nil {
		return nil, err
	}

	var (
		mu    sync.Mutex
		pages []Page
	)

	collector.OnResponse(func(r *colly.Response) {
		pageURL := r.Request.URL.String()
		title, text := c.extractPage(r.Request.URL, r.Body)
		if strings.TrimSpace(text) == "" {
			c.logger.Warn("page yielded no text, skipping", "url", pageURL)
			return
		}
		mu.Lock()
		pages = append(pages, Page{URL: pageURL, Title: title, Text: text})
		mu.Unlock()
	})

	collector.OnError(func(r *colly.Response, err error) {
		c.logger.Warn("page fetch failed",
			"url", r.Request.URL.String(),
			"status", r.StatusCode,
			"error", err)
	})

	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			return pages, err
		}
		if err := collector.Visit(u); err != nil {
			c.logger.Warn("skipping url", "url", u, "error", err)
		}
	}
	collector.Wait()

	return pages, ctx.Err()
}

// extractPage prefers readability's article extraction and falls back to a
// plain HTML-to-text conversion when readability finds no article body.
func (c *Crawler) extractPage(u *url.URL, body []byte) (title, text string) {
	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return article.Title, article.TextContent
	}
	if err != nil {
		c.logger.Debug("readability extraction failed, falling back", "url", u.String(), "error", err)
	}

	title, text, err = extract.HTMLToText(bytes.NewReader(body))
	if err != nil {
		c.logger.Warn("html fallback extraction failed", "url", u.String(), "error", err)
		return "", ""
	}
	return title, text
}
