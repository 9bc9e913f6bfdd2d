package client

import (
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkhoard/linkhoard/internal/config"
	"github.com/linkhoard/linkhoard/internal/metrics"
	"github.com/linkhoard/linkhoard/internal/models"
	"github.com/linkhoard/linkhoard/internal/server"
	"github.com/linkhoard/linkhoard/internal/service"
	"github.com/linkhoard/linkhoard/internal/service/servicetest"
)

type fetchNothing struct{}

func (fetchNothing) Fetch(_ context.Context, _ string) models.PageMetadata {
	return models.PageMetadata{}
}

func newTestClient(t *testing.T) (*Client, *servicetest.Store) {
	t.Helper()
	store := servicetest.NewStore()
	collector := metrics.NewCollector()
	srv := server.New(config.Config{ServerPort: "0"}, server.Deps{
		Bookmarks: service.NewBookmarks(store, nil, nil, nil),
		Importer:  service.NewImportService(store, 50, collector, nil),
		Enricher:  service.NewEnricher(store, fetchNothing{}, 1, nil),
		Search:    service.NewSearchService(store, nil),
		Collector: collector,
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return New(ts.URL), store
}

func TestClient_BookmarkLifecycle(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	id, err := c.CreateBookmark(ctx, CreateBookmarkInput{URL: "https://example.com", Title: "Example"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	bookmarks, err := c.ListBookmarks(ctx)
	require.NoError(t, err)
	require.Len(t, bookmarks, 1)
	assert.Equal(t, "Example", bookmarks[0].Title)

	require.NoError(t, c.DeleteBookmark(ctx, id))

	bookmarks, err = c.ListBookmarks(ctx)
	require.NoError(t, err)
	assert.Empty(t, bookmarks)
}

func TestClient_ServerErrorsSurface(t *testing.T) {
	c, _ := newTestClient(t)

	err := c.DeleteBookmark(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestClient_Search(t *testing.T) {
	c, store := newTestClient(t)
	ctx := context.Background()

	_, err := store.CreateBookmark(ctx, models.BookmarkInput{Title: "Go Blog", URL: "https://go.dev/blog"})
	require.NoError(t, err)

	results, err := c.Search(ctx, "blog", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Go Blog", results[0].Title)
}

func TestClient_ImportAndExport(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE NETSCAPE-Bookmark-file-1>\n<DL><p>\n")
	for i := 0; i < 3; i++ {
		fmt.Fprintf(&sb, "<DT><A HREF=\"https://example.com/%d\">Page %d</A>\n", i, i)
	}
	sb.WriteString("</DL><p>\n")
	path := filepath.Join(t.TempDir(), "bookmarks.html")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0644))

	result, err := c.ImportFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Imported)
	assert.NotEmpty(t, result.JobID)

	html, err := c.Export(ctx)
	require.NoError(t, err)
	assert.Contains(t, html, "<!DOCTYPE NETSCAPE-Bookmark-file-1>")
	assert.Contains(t, html, "https://example.com/1")
}

func TestClient_SubscribeProgress(t *testing.T) {
	c, _ := newTestClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events := make(chan ProgressEvent, 32)
	subDone := make(chan error, 1)
	go func() {
		subDone <- c.SubscribeProgress(ctx, func(e ProgressEvent) { events <- e })
	}()

	// Give the subscriber a moment to connect before importing.
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(t.TempDir(), "bookmarks.html")
	content := "<!DOCTYPE NETSCAPE-Bookmark-file-1>\n<DL><p>\n<DT><A HREF=\"https://example.com/a\">A</A>\n</DL><p>\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	_, err := c.ImportFile(ctx, path)
	require.NoError(t, err)

	// At least one import progress event must arrive.
	select {
	case e := <-events:
		assert.Equal(t, "import", e.Kind)
		require.NotNil(t, e.Import)
	case <-ctx.Done():
		t.Fatal("no progress event received")
	}

	cancel()
	<-subDone
}

func TestClient_IndexEndpointsWhenDisabled(t *testing.T) {
	c, _ := newTestClient(t)
	err := c.StartBackfill(context.Background(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disabled")
}
