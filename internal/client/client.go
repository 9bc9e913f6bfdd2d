// Package client provides a Go client for the linkhoard server API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/linkhoard/linkhoard/internal/service"
)

// Client talks to a running linkhoard server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client. If baseURL is empty, uses LINKHOARD_SERVER_URL or
// defaults to localhost:8487.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("LINKHOARD_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8487"
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	timeout := 5 * time.Minute // imports can take a while
	if t := os.Getenv("LINKHOARD_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// apiError is the server's JSON error body.
type apiError struct {
	Error string `json:"error"`
}

// do executes a request and decodes a JSON response into result (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, result any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server error (%d): %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server error: %s", resp.Status)
	}

	if result != nil && len(data) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload, result any) error {
	var body io.Reader
	contentType := ""
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, body, contentType, result)
}

// Bookmark is the wire shape of a bookmark. The id is rendered as a plain
// string rather than a SurrealDB record id.
type Bookmark struct {
	Title          string  `json:"title"`
	URL            string  `json:"url"`
	Favicon        *string `json:"favicon,omitempty"`
	OGImage        *string `json:"og_image,omitempty"`
	Description    *string `json:"description,omitempty"`
	MetadataStatus string  `json:"metadata_status"`
}

// CreateBookmarkInput is the payload for creating a bookmark.
type CreateBookmarkInput struct {
	Title    string  `json:"title,omitempty"`
	URL      string  `json:"url"`
	FolderID *string `json:"folder_id,omitempty"`
}

// CreateBookmark creates a bookmark and returns its id.
func (c *Client) CreateBookmark(ctx context.Context, input CreateBookmarkInput) (string, error) {
	var result struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/bookmarks", input, &result); err != nil {
		return "", err
	}
	return result.ID, nil
}

// DeleteBookmark deletes a bookmark by id.
func (c *Client) DeleteBookmark(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/bookmarks/"+url.PathEscape(id), nil, "", nil)
}

// ListBookmarks returns all bookmarks.
func (c *Client) ListBookmarks(ctx context.Context) ([]Bookmark, error) {
	var result []Bookmark
	if err := c.do(ctx, http.MethodGet, "/bookmarks", nil, "", &result); err != nil {
		return nil, err
	}
	return result, nil
}

// SearchResult pairs a bookmark with its relevance score.
type SearchResult struct {
	Bookmark
	Score float64 `json:"score"`
}

// Search queries bookmarks by meaning.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	path := "/search?q=" + url.QueryEscape(query)
	if limit > 0 {
		path += "&limit=" + strconv.Itoa(limit)
	}
	var result []SearchResult
	if err := c.do(ctx, http.MethodGet, path, nil, "", &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Export downloads the collection as Netscape bookmark HTML.
func (c *Client) Export(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/export", nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("server error: %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return string(data), nil
}

// ImportResult summarizes a completed import.
type ImportResult struct {
	Imported int    `json:"imported"`
	JobID    string `json:"job_id"`
}

// ImportFile uploads a bookmark file and waits for the import to finish.
// Progress can be observed concurrently via SubscribeProgress.
func (c *Client) ImportFile(ctx context.Context, path string) (*ImportResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	var result ImportResult
	if err := c.do(ctx, http.MethodPost, "/import", &buf, writer.FormDataContentType(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// StartBackfill asks the server to (re)index all bookmarks.
func (c *Client) StartBackfill(ctx context.Context, force bool) error {
	path := "/index/backfill"
	if force {
		path += "?force=true"
	}
	return c.do(ctx, http.MethodPost, path, nil, "", nil)
}

// PauseIndexing pauses the server's indexing queue.
func (c *Client) PauseIndexing(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/index/pause", nil, "", nil)
}

// ResumeIndexing resumes a paused indexing queue.
func (c *Client) ResumeIndexing(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/index/resume", nil, "", nil)
}

// ProgressEvent is a progress update pushed by the server.
type ProgressEvent struct {
	Kind   string                  `json:"kind"`
	Import *service.ImportState    `json:"import,omitempty"`
	Enrich *service.EnrichProgress `json:"enrich,omitempty"`
}

// SubscribeProgress connects to the progress WebSocket and invokes onEvent
// for every update until ctx is cancelled or the connection drops.
func (c *Client) SubscribeProgress(ctx context.Context, onEvent func(ProgressEvent)) error {
	wsURL := c.baseURL + "/ws/progress"
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)
	wsURL = strings.Replace(wsURL, "https://", "wss://", 1)

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("websocket connect: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		var event ProgressEvent
		if err := conn.ReadJSON(&event); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read event: %w", err)
		}
		onEvent(event)
	}
}
