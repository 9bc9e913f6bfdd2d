package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkhoard/linkhoard/internal/config"
	"github.com/linkhoard/linkhoard/internal/metrics"
	"github.com/linkhoard/linkhoard/internal/models"
	"github.com/linkhoard/linkhoard/internal/service"
	"github.com/linkhoard/linkhoard/internal/service/servicetest"
)

type fetchNothing struct{}

func (fetchNothing) Fetch(_ context.Context, _ string) models.PageMetadata {
	return models.PageMetadata{}
}

func newTestServer(t *testing.T) (*Server, *servicetest.Store) {
	t.Helper()
	store := servicetest.NewStore()
	collector := metrics.NewCollector()
	deps := Deps{
		Bookmarks: service.NewBookmarks(store, nil, nil, nil),
		Importer:  service.NewImportService(store, 50, collector, nil),
		Enricher:  service.NewEnricher(store, fetchNothing{}, 1, nil),
		Search:    service.NewSearchService(store, nil),
		Collector: collector,
	}
	cfg := config.Config{ServerPort: "0"}
	return New(cfg, deps), store
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateAndGetBookmark(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/bookmarks", `{"url":"https://example.com","title":"Example"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created["id"])

	rec = doRequest(t, srv, http.MethodGet, "/bookmarks/"+created["id"], "")
	require.Equal(t, http.StatusOK, rec.Code)

	var b struct {
		Title string `json:"title"`
		URL   string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	assert.Equal(t, "Example", b.Title)
	assert.Equal(t, "https://example.com", b.URL)
}

func TestCreateBookmarkRequiresURL(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodPost, "/bookmarks", `{"title":"no url"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMissingBookmarkIs404(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/bookmarks/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteBookmark(t *testing.T) {
	srv, store := newTestServer(t)
	id, err := store.CreateBookmark(context.Background(), models.BookmarkInput{Title: "t", URL: "https://example.com"})
	require.NoError(t, err)

	rec := doRequest(t, srv, http.MethodDelete, "/bookmarks/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, srv, http.MethodDelete, "/bookmarks/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateFolderValidatesName(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodPost, "/folders", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/folders", `{"name":"Reading"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestSearchRequiresQuery(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/search", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchSubstringFallback(t *testing.T) {
	srv, store := newTestServer(t)
	_, err := store.CreateBookmark(context.Background(), models.BookmarkInput{Title: "Go Blog", URL: "https://go.dev/blog"})
	require.NoError(t, err)

	rec := doRequest(t, srv, http.MethodGet, "/search?q=blog", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var results []struct {
		Title string `json:"title"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "Go Blog", results[0].Title)
}

func TestExportIsNetscapeHTML(t *testing.T) {
	srv, store := newTestServer(t)
	_, err := store.CreateBookmark(context.Background(), models.BookmarkInput{Title: "t", URL: "https://example.com"})
	require.NoError(t, err)

	rec := doRequest(t, srv, http.MethodGet, "/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<!DOCTYPE NETSCAPE-Bookmark-file-1>")
}

func TestIndexEndpointsConflictWhenDisabled(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodPost, "/index/backfill", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStats(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Contains(t, stats, "metrics")
	assert.Contains(t, stats, "enrichment")
}
