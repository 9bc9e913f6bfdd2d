package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveHTML(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_ScrapesOpenGraphFields(t *testing.T) {
	srv := serveHTML(t, `<html><head>
		<title>Plain Title</title>
		<meta property="og:title" content="OG Title">
		<meta property="og:image" content="/img/preview.png">
		<meta name="description" content="A test page">
		<link rel="icon" href="/static/fav.png">
	</head><body></body></html>`)

	f := NewFetcher(2*time.Second, nil)
	md := f.Fetch(context.Background(), srv.URL)

	assert.Equal(t, "OG Title", md.Title)
	assert.Equal(t, srv.URL+"/img/preview.png", md.OGImage)
	assert.Equal(t, srv.URL+"/static/fav.png", md.Favicon)
	assert.Equal(t, "A test page", md.Description)
}

func TestFetch_TitleTagFallback(t *testing.T) {
	srv := serveHTML(t, `<html><head><title>  Plain Title  </title></head><body></body></html>`)

	f := NewFetcher(2*time.Second, nil)
	md := f.Fetch(context.Background(), srv.URL)

	assert.Equal(t, "Plain Title", md.Title)
	// No <link rel=icon>: fall back to /favicon.ico on the origin.
	assert.Equal(t, srv.URL+"/favicon.ico", md.Favicon)
}

func TestFetch_TwitterImageFallback(t *testing.T) {
	srv := serveHTML(t, `<html><head>
		<title>T</title>
		<meta name="twitter:image" content="https://cdn.example.com/card.png">
	</head></html>`)

	f := NewFetcher(2*time.Second, nil)
	md := f.Fetch(context.Background(), srv.URL)
	assert.Equal(t, "https://cdn.example.com/card.png", md.OGImage)
}

func TestFetch_NonOKDegradesToHostname(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	f := NewFetcher(2*time.Second, nil)
	md := f.Fetch(context.Background(), srv.URL+"/dead")

	require.NotEmpty(t, md.Title)
	assert.Equal(t, "127.0.0.1", md.Title)
	assert.Contains(t, md.Favicon, "google.com/s2/favicons")
	assert.Empty(t, md.Description)
}

func TestFetch_UnreachableHostDegradesToHostname(t *testing.T) {
	f := NewFetcher(500*time.Millisecond, nil)
	md := f.Fetch(context.Background(), "https://host.invalid/page")

	assert.Equal(t, "host.invalid", md.Title)
	assert.Contains(t, md.Favicon, "host.invalid")
}

func TestFetch_GarbageURLReturnsEmpty(t *testing.T) {
	f := NewFetcher(time.Second, nil)
	md := f.Fetch(context.Background(), "::not a url::")
	assert.True(t, md.Empty())
}

func TestFetch_CancelledContextDegrades(t *testing.T) {
	srv := serveHTML(t, `<html><head><title>T</title></head></html>`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFetcher(time.Second, nil)
	md := f.Fetch(ctx, srv.URL)
	assert.Equal(t, "127.0.0.1", md.Title)
}
