// Package db provides SurrealDB query functions for bookmarks, folders and
// embeddings. All operations are scoped to the configured owner.
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/linkhoard/linkhoard/internal/models"
)

// requireOwner rejects mutations before any state change when no principal
// is configured.
func (c *Client) requireOwner() error {
	if c.cfg.Owner == "" {
		return ErrNoOwner
	}
	return nil
}

func folderRecord(id *string) any {
	if id == nil || *id == "" {
		return nil
	}
	return surrealmodels.NewRecordID("folder", *id)
}

// CreateFolder creates a folder owned by the current principal. Folder names
// are not deduplicated.
func (c *Client) CreateFolder(ctx context.Context, name string, parentID *string) (string, error) {
	if err := c.requireOwner(); err != nil {
		return "", err
	}
	defer c.record(time.Now())

	results, err := surrealdb.Query[[]models.Folder](ctx, c.db, `
		CREATE folder SET owner = $owner, name = $name, parent = $parent RETURN AFTER
	`, map[string]any{
		"owner":  c.cfg.Owner,
		"name":   name,
		"parent": folderRecord(parentID),
	})
	if err != nil {
		return "", fmt.Errorf("create folder: %w", wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return "", fmt.Errorf("create folder: no result returned")
	}
	return models.RecordIDString((*results)[0].Result[0].ID)
}

// CreateBookmark creates a bookmark, idempotent on the (owner, url) natural
// key: if a bookmark with the same URL already exists for this owner, its id
// is returned and nothing is written.
func (c *Client) CreateBookmark(ctx context.Context, input models.BookmarkInput) (string, error) {
	if err := c.requireOwner(); err != nil {
		return "", err
	}
	defer c.record(time.Now())

	existing, err := c.findBookmarkByURL(ctx, input.URL)
	if err != nil {
		return "", err
	}
	if existing != "" {
		return existing, nil
	}

	results, err := surrealdb.Query[[]models.Bookmark](ctx, c.db, `
		CREATE bookmark SET
			owner = $owner,
			title = $title,
			url = $url,
			folder = $folder,
			favicon = $favicon,
			og_image = $og_image
		RETURN AFTER
	`, map[string]any{
		"owner":    c.cfg.Owner,
		"title":    input.Title,
		"url":      input.URL,
		"folder":   folderRecord(input.FolderID),
		"favicon":  input.Favicon,
		"og_image": input.OGImage,
	})
	if err != nil {
		// A concurrent writer may have claimed the natural key between the
		// lookup and the create; resolve to the winner's id.
		if errors.Is(wrapQueryError(err), ErrDuplicate) {
			return c.findBookmarkByURL(ctx, input.URL)
		}
		return "", fmt.Errorf("create bookmark: %w", wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return "", fmt.Errorf("create bookmark: no result returned")
	}
	return models.RecordIDString((*results)[0].Result[0].ID)
}

func (c *Client) findBookmarkByURL(ctx context.Context, url string) (string, error) {
	results, err := surrealdb.Query[[]models.Bookmark](ctx, c.db, `
		SELECT id FROM bookmark WHERE owner = $owner AND url = $url LIMIT 1
	`, map[string]any{"owner": c.cfg.Owner, "url": url})
	if err != nil {
		return "", fmt.Errorf("lookup bookmark by url: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return "", nil
	}
	return models.RecordIDString((*results)[0].Result[0].ID)
}

// BatchCreateBookmarks creates many bookmarks in a single call. Items whose
// (owner, url) key already exists are silently skipped; only ids of newly
// created bookmarks are returned.
func (c *Client) BatchCreateBookmarks(ctx context.Context, inputs []models.BookmarkInput) ([]string, error) {
	if err := c.requireOwner(); err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return []string{}, nil
	}
	defer c.record(time.Now())

	items := make([]map[string]any, 0, len(inputs))
	for _, in := range inputs {
		items = append(items, map[string]any{
			"owner":    c.cfg.Owner,
			"title":    in.Title,
			"url":      in.URL,
			"folder":   folderRecord(in.FolderID),
			"favicon":  in.Favicon,
			"og_image": in.OGImage,
		})
	}

	// INSERT IGNORE drops rows that violate the (owner, url) unique index
	// and returns only the records it actually created.
	results, err := surrealdb.Query[[]models.Bookmark](ctx, c.db, `
		INSERT IGNORE INTO bookmark $items
	`, map[string]any{"items": items})
	if err != nil {
		return nil, fmt.Errorf("batch create bookmarks: %w", wrapQueryError(err))
	}

	var ids []string
	if results != nil && len(*results) > 0 {
		for _, bm := range (*results)[0].Result {
			id, err := models.RecordIDString(bm.ID)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// GetBookmark retrieves a bookmark by id. Returns ErrNotFound if it does not
// exist or belongs to someone else.
func (c *Client) GetBookmark(ctx context.Context, id string) (*models.Bookmark, error) {
	defer c.record(time.Now())

	results, err := surrealdb.Query[[]models.Bookmark](ctx, c.db, `
		SELECT * FROM type::record("bookmark", $id) WHERE owner = $owner
	`, map[string]any{"id": id, "owner": c.cfg.Owner})
	if err != nil {
		return nil, fmt.Errorf("get bookmark: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, ErrNotFound
	}
	return &(*results)[0].Result[0], nil
}

// UpdateBookmark patches only the provided fields; nil fields are untouched,
// so title and url are never nulled out by omission.
func (c *Client) UpdateBookmark(ctx context.Context, id string, patch models.BookmarkPatch) error {
	if err := c.requireOwner(); err != nil {
		return err
	}
	defer c.record(time.Now())

	sets := make([]string, 0, 6)
	vars := map[string]any{"id": id, "owner": c.cfg.Owner}
	if patch.Title != nil {
		sets = append(sets, "title = $title")
		vars["title"] = *patch.Title
	}
	if patch.URL != nil {
		sets = append(sets, "url = $url")
		vars["url"] = *patch.URL
	}
	if patch.FolderID != nil {
		sets = append(sets, "folder = $folder")
		vars["folder"] = folderRecord(patch.FolderID)
	}
	if patch.Favicon != nil {
		sets = append(sets, "favicon = $favicon")
		vars["favicon"] = *patch.Favicon
	}
	if patch.OGImage != nil {
		sets = append(sets, "og_image = $og_image")
		vars["og_image"] = *patch.OGImage
	}
	if patch.Description != nil {
		sets = append(sets, "description = $description")
		vars["description"] = *patch.Description
	}
	if len(sets) == 0 {
		return nil
	}

	sql := fmt.Sprintf(`UPDATE type::record("bookmark", $id) SET %s WHERE owner = $owner RETURN AFTER`, strings.Join(sets, ", "))
	results, err := surrealdb.Query[[]models.Bookmark](ctx, c.db, sql, vars)
	if err != nil {
		return fmt.Errorf("update bookmark: %w", wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateBookmarkMetadata stores fetched page metadata and marks the bookmark's
// metadata as completed regardless of which fields were actually provided.
// This guarantees forward progress of the enricher even for failed fetches.
func (c *Client) UpdateBookmarkMetadata(ctx context.Context, id string, md models.PageMetadata) error {
	if err := c.requireOwner(); err != nil {
		return err
	}
	defer c.record(time.Now())

	sets := []string{`metadata_status = "completed"`}
	vars := map[string]any{"id": id, "owner": c.cfg.Owner}
	if md.Title != "" {
		sets = append(sets, "title = $title")
		vars["title"] = md.Title
	}
	if md.Favicon != "" {
		sets = append(sets, "favicon = $favicon")
		vars["favicon"] = md.Favicon
	}
	if md.OGImage != "" {
		sets = append(sets, "og_image = $og_image")
		vars["og_image"] = md.OGImage
	}
	if md.Description != "" {
		sets = append(sets, "description = $description")
		vars["description"] = md.Description
	}

	sql := fmt.Sprintf(`UPDATE type::record("bookmark", $id) SET %s WHERE owner = $owner RETURN AFTER`, strings.Join(sets, ", "))
	results, err := surrealdb.Query[[]models.Bookmark](ctx, c.db, sql, vars)
	if err != nil {
		return fmt.Errorf("update bookmark metadata: %w", wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteBookmark removes a bookmark. Ownership-checked; deleting someone
// else's bookmark (or a missing one) returns ErrNotFound.
func (c *Client) DeleteBookmark(ctx context.Context, id string) error {
	if err := c.requireOwner(); err != nil {
		return err
	}
	defer c.record(time.Now())

	results, err := surrealdb.Query[[]models.Bookmark](ctx, c.db, `
		DELETE type::record("bookmark", $id) WHERE owner = $owner RETURN BEFORE
	`, map[string]any{"id": id, "owner": c.cfg.Owner})
	if err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteFolder removes a folder. Bookmarks referencing it are NOT deleted or
// reassigned; they keep a dangling folder reference and fall back to an
// unsorted display. Kept as-is from the original design; a cascade here is a
// product decision, not a bug fix.
func (c *Client) DeleteFolder(ctx context.Context, id string) error {
	if err := c.requireOwner(); err != nil {
		return err
	}
	defer c.record(time.Now())

	results, err := surrealdb.Query[[]models.Folder](ctx, c.db, `
		DELETE type::record("folder", $id) WHERE owner = $owner RETURN BEFORE
	`, map[string]any{"id": id, "owner": c.cfg.Owner})
	if err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return ErrNotFound
	}
	return nil
}

// ListBookmarks returns the full bookmark collection for the current
// principal. An unauthenticated caller gets an empty list, not an error.
func (c *Client) ListBookmarks(ctx context.Context) ([]models.Bookmark, error) {
	if c.cfg.Owner == "" {
		return []models.Bookmark{}, nil
	}
	defer c.record(time.Now())

	results, err := surrealdb.Query[[]models.Bookmark](ctx, c.db, `
		SELECT * FROM bookmark WHERE owner = $owner ORDER BY created ASC
	`, map[string]any{"owner": c.cfg.Owner})
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	if results == nil || len(*results) == 0 {
		return []models.Bookmark{}, nil
	}
	return (*results)[0].Result, nil
}

// ListFolders returns the full folder collection for the current principal.
func (c *Client) ListFolders(ctx context.Context) ([]models.Folder, error) {
	if c.cfg.Owner == "" {
		return []models.Folder{}, nil
	}
	defer c.record(time.Now())

	results, err := surrealdb.Query[[]models.Folder](ctx, c.db, `
		SELECT * FROM folder WHERE owner = $owner ORDER BY created ASC
	`, map[string]any{"owner": c.cfg.Owner})
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	if results == nil || len(*results) == 0 {
		return []models.Folder{}, nil
	}
	return (*results)[0].Result, nil
}

// ListPendingMetadata returns bookmarks whose page metadata has not been
// fetched yet, oldest first.
func (c *Client) ListPendingMetadata(ctx context.Context) ([]models.Bookmark, error) {
	if c.cfg.Owner == "" {
		return []models.Bookmark{}, nil
	}
	defer c.record(time.Now())

	results, err := surrealdb.Query[[]models.Bookmark](ctx, c.db, `
		SELECT * FROM bookmark WHERE owner = $owner AND metadata_status = "pending" ORDER BY created ASC
	`, map[string]any{"owner": c.cfg.Owner})
	if err != nil {
		return nil, fmt.Errorf("list pending metadata: %w", err)
	}
	if results == nil || len(*results) == 0 {
		return []models.Bookmark{}, nil
	}
	return (*results)[0].Result, nil
}

// UpsertBookmarkEmbedding stores the embedding vector for a bookmark,
// replacing any previous record wholesale. The embedding record shares the
// bookmark's string id.
func (c *Client) UpsertBookmarkEmbedding(ctx context.Context, bookmarkID string, vector []float32, dim int, model, dtype, contentHash string) error {
	if err := c.requireOwner(); err != nil {
		return err
	}
	defer c.record(time.Now())

	_, err := surrealdb.Query[any](ctx, c.db, `
		UPSERT type::record("bookmark_embedding", $id) SET
			owner = $owner,
			embedding = $embedding,
			dim = $dim,
			model = $model,
			dtype = $dtype,
			content_hash = $content_hash,
			updated = time::now()
	`, map[string]any{
		"id":           bookmarkID,
		"owner":        c.cfg.Owner,
		"embedding":    vector,
		"dim":          dim,
		"model":        model,
		"dtype":        dtype,
		"content_hash": contentHash,
	})
	if err != nil {
		return fmt.Errorf("upsert embedding: %w", wrapQueryError(err))
	}
	return nil
}

// DeleteBookmarkEmbedding removes the stored vector for a bookmark.
// Deleting a missing embedding is a no-op.
func (c *Client) DeleteBookmarkEmbedding(ctx context.Context, bookmarkID string) error {
	if err := c.requireOwner(); err != nil {
		return err
	}
	defer c.record(time.Now())

	_, err := surrealdb.Query[any](ctx, c.db, `
		DELETE type::record("bookmark_embedding", $id) WHERE owner = $owner
	`, map[string]any{"id": bookmarkID, "owner": c.cfg.Owner})
	if err != nil {
		return fmt.Errorf("delete embedding: %w", err)
	}
	return nil
}

// knnHit is one row of the vector search result.
type knnHit struct {
	BookmarkID string  `json:"bookmark_id"`
	Score      float64 `json:"score"`
}

// SearchBookmarks runs a KNN vector search over the embedding table and
// resolves the hits back to bookmark records, best match first.
func (c *Client) SearchBookmarks(ctx context.Context, embedding []float32, limit int) ([]models.ScoredBookmark, error) {
	if c.cfg.Owner == "" {
		return []models.ScoredBookmark{}, nil
	}
	if limit <= 0 {
		limit = 10
	}
	start := time.Now()
	defer func() {
		if c.collector != nil {
			c.collector.RecordTiming("db_search", time.Since(start))
		}
	}()

	// HNSW search with ef=40 for better recall
	sql := fmt.Sprintf(`
		SELECT meta::id(id) AS bookmark_id, vector::distance::knn() AS score
		FROM bookmark_embedding
		WHERE owner = $owner AND embedding <|%d,40|> $emb
	`, limit)

	results, err := surrealdb.Query[[]knnHit](ctx, c.db, sql, map[string]any{
		"owner": c.cfg.Owner,
		"emb":   embedding,
	})
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return []models.ScoredBookmark{}, nil
	}

	hits := (*results)[0].Result
	scored := make([]models.ScoredBookmark, 0, len(hits))
	for _, hit := range hits {
		bm, err := c.GetBookmark(ctx, hit.BookmarkID)
		if errors.Is(err, ErrNotFound) {
			// Embedding outlived its bookmark; skip the orphan.
			continue
		}
		if err != nil {
			return nil, err
		}
		scored = append(scored, models.ScoredBookmark{Bookmark: *bm, Score: hit.Score})
	}
	return scored, nil
}
