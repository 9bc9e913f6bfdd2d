// Package service provides the bookmark pipeline: import orchestration,
// metadata enrichment, semantic indexing and search.
package service

import (
	"context"

	"github.com/linkhoard/linkhoard/internal/db"
	"github.com/linkhoard/linkhoard/internal/models"
)

// Store is the persistent collaborator every service talks to. The services
// never know its implementation; the production store is SurrealDB-backed.
type Store interface {
	CreateFolder(ctx context.Context, name string, parentID *string) (string, error)
	CreateBookmark(ctx context.Context, input models.BookmarkInput) (string, error)
	BatchCreateBookmarks(ctx context.Context, inputs []models.BookmarkInput) ([]string, error)
	GetBookmark(ctx context.Context, id string) (*models.Bookmark, error)
	UpdateBookmark(ctx context.Context, id string, patch models.BookmarkPatch) error
	UpdateBookmarkMetadata(ctx context.Context, id string, md models.PageMetadata) error
	DeleteBookmark(ctx context.Context, id string) error
	DeleteFolder(ctx context.Context, id string) error
	ListBookmarks(ctx context.Context) ([]models.Bookmark, error)
	ListFolders(ctx context.Context) ([]models.Folder, error)
	ListPendingMetadata(ctx context.Context) ([]models.Bookmark, error)
	UpsertBookmarkEmbedding(ctx context.Context, bookmarkID string, vector []float32, dim int, model, dtype, contentHash string) error
	DeleteBookmarkEmbedding(ctx context.Context, bookmarkID string) error
	SearchBookmarks(ctx context.Context, embedding []float32, limit int) ([]models.ScoredBookmark, error)
}

// Compile-time check that the SurrealDB client implements Store.
var _ Store = (*db.Client)(nil)

// Embedder is the external embedding collaborator, consumed as a black box
// text -> vector function.
type Embedder interface {
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Model() string
	Dimension() int
	Dtype() string
}

// MetadataFetcher is the external page-metadata collaborator. It degrades to
// partial or empty data instead of failing.
type MetadataFetcher interface {
	Fetch(ctx context.Context, pageURL string) models.PageMetadata
}
