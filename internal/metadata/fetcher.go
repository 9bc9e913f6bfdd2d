// Package metadata fetches page metadata (title, favicon, preview image,
// description) for bookmarked URLs.
package metadata

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/linkhoard/linkhoard/internal/metrics"
	"github.com/linkhoard/linkhoard/internal/models"
)

const (
	// maxBodyBytes caps how much of a page is read for scraping.
	maxBodyBytes = 1 << 20

	userAgent = "linkhoard/1.0 (+https://github.com/linkhoard/linkhoard)"
)

// Fetcher scrapes page metadata over HTTP.
type Fetcher struct {
	client    *http.Client
	collector *metrics.Collector
}

// NewFetcher creates a fetcher with the given per-request timeout.
// The collector is optional.
func NewFetcher(timeout time.Duration, collector *metrics.Collector) *Fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		collector: collector,
	}
}

// Fetch scrapes metadata for a URL. It never returns an error: non-OK
// responses, timeouts and unparseable pages all degrade to hostname-only
// data so callers can always make forward progress.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) models.PageMetadata {
	start := time.Now()
	defer func() {
		if f.collector != nil {
			f.collector.RecordTiming(metrics.OpMetadataFetch, time.Since(start))
		}
	}()

	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Hostname() == "" {
		slog.Debug("unparseable bookmark url", "url", pageURL, "error", err)
		return models.PageMetadata{}
	}
	fallback := hostnameFallback(parsed)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return fallback
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		slog.Debug("metadata fetch failed", "url", pageURL, "error", err)
		return fallback
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Debug("metadata fetch non-OK", "url", pageURL, "status", resp.StatusCode)
		return fallback
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		slog.Debug("metadata parse failed", "url", pageURL, "error", err)
		return fallback
	}

	md := scrape(doc, parsed)
	if md.Empty() {
		return fallback
	}
	if md.Title == "" {
		md.Title = fallback.Title
	}
	if md.Favicon == "" {
		md.Favicon = fallback.Favicon
	}
	return md
}

// hostnameFallback is the degraded result for unreachable pages: the
// hostname as title and the Google favicon service for the icon.
func hostnameFallback(u *url.URL) models.PageMetadata {
	host := u.Hostname()
	return models.PageMetadata{
		Title:   host,
		Favicon: fmt.Sprintf("https://www.google.com/s2/favicons?domain=%s&sz=64", url.QueryEscape(host)),
	}
}

func scrape(doc *goquery.Document, base *url.URL) models.PageMetadata {
	var md models.PageMetadata

	if v, ok := metaContent(doc, `meta[property="og:title"]`); ok {
		md.Title = v
	} else {
		md.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	if v, ok := metaContent(doc, `meta[property="og:image"]`); ok {
		md.OGImage = resolveRef(base, v)
	} else if v, ok := metaContent(doc, `meta[name="twitter:image"]`); ok {
		md.OGImage = resolveRef(base, v)
	}

	md.Favicon = findIcon(doc, base)

	if v, ok := metaContent(doc, `meta[name="description"]`); ok {
		md.Description = v
	} else if v, ok := metaContent(doc, `meta[property="og:description"]`); ok {
		md.Description = v
	}

	return md
}

func metaContent(doc *goquery.Document, selector string) (string, bool) {
	content, ok := doc.Find(selector).First().Attr("content")
	content = strings.TrimSpace(content)
	return content, ok && content != ""
}

// findIcon looks for a <link rel=icon> (any rel containing "icon"), falling
// back to /favicon.ico on the page's origin.
func findIcon(doc *goquery.Document, base *url.URL) string {
	var icon string
	doc.Find("link").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		rel, _ := s.Attr("rel")
		if !strings.Contains(strings.ToLower(rel), "icon") {
			return true
		}
		href, ok := s.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return true
		}
		icon = resolveRef(base, href)
		return false
	})
	if icon != "" {
		return icon
	}
	return base.Scheme + "://" + base.Host + "/favicon.ico"
}

func resolveRef(base *url.URL, ref string) string {
	parsed, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ""
	}
	return base.ResolveReference(parsed).String()
}
