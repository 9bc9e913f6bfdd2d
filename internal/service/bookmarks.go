package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linkhoard/linkhoard/internal/models"
	"github.com/linkhoard/linkhoard/internal/netscape"
)

// Bookmarks is the front door for bookmark CRUD. It keeps the background
// services honest: every write kicks the enricher or the indexing queue so
// the derived state (metadata, embeddings) follows the primary records.
type Bookmarks struct {
	store    Store
	enricher *Enricher
	queue    *IndexQueue
	log      *slog.Logger
}

// NewBookmarks wires the bookmark service. enricher and queue may be nil in
// contexts that do not run background work (tests, one-shot commands).
func NewBookmarks(store Store, enricher *Enricher, queue *IndexQueue, log *slog.Logger) *Bookmarks {
	if log == nil {
		log = slog.Default()
	}
	return &Bookmarks{store: store, enricher: enricher, queue: queue, log: log}
}

// Add creates a bookmark and schedules metadata enrichment for it. Adding a
// URL that already exists returns the existing bookmark's id.
func (s *Bookmarks) Add(ctx context.Context, input models.BookmarkInput) (string, error) {
	id, err := s.store.CreateBookmark(ctx, input)
	if err != nil {
		return "", fmt.Errorf("create bookmark: %w", err)
	}
	if s.enricher != nil {
		// The pass outlives the caller (an HTTP request context cancels as
		// soon as the response is written).
		s.enricher.Kick(context.WithoutCancel(ctx))
	}
	return id, nil
}

// Update applies a partial update and re-queues the bookmark for indexing,
// since its indexable content may have changed. The hash gate decides whether
// a new embedding is actually computed.
func (s *Bookmarks) Update(ctx context.Context, id string, patch models.BookmarkPatch) error {
	if err := s.store.UpdateBookmark(ctx, id, patch); err != nil {
		return fmt.Errorf("update bookmark: %w", err)
	}
	if s.queue != nil {
		// Detached context: the drain goroutine must not die with the caller.
		s.queue.Enqueue(context.WithoutCancel(ctx), id, false)
	}
	return nil
}

// Delete removes a bookmark together with its embedding and queue entry.
func (s *Bookmarks) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteBookmark(ctx, id); err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	if s.queue != nil {
		if err := s.queue.HandleDelete(ctx, id); err != nil {
			// The bookmark is gone; a stale embedding is logged, not fatal.
			s.log.Warn("embedding cleanup failed", "bookmark", id, "error", err)
		}
	}
	return nil
}

// CreateFolder creates a folder, optionally nested under parentID.
func (s *Bookmarks) CreateFolder(ctx context.Context, name string, parentID *string) (string, error) {
	return s.store.CreateFolder(ctx, name, parentID)
}

// DeleteFolder removes a folder. Bookmarks inside keep their folder
// reference cleared by the store.
func (s *Bookmarks) DeleteFolder(ctx context.Context, id string) error {
	return s.store.DeleteFolder(ctx, id)
}

// List returns all bookmarks for the current owner.
func (s *Bookmarks) List(ctx context.Context) ([]models.Bookmark, error) {
	return s.store.ListBookmarks(ctx)
}

// ListFolders returns all folders for the current owner.
func (s *Bookmarks) ListFolders(ctx context.Context) ([]models.Folder, error) {
	return s.store.ListFolders(ctx)
}

// Get returns one bookmark by id.
func (s *Bookmarks) Get(ctx context.Context, id string) (*models.Bookmark, error) {
	return s.store.GetBookmark(ctx, id)
}

// Export renders the owner's bookmarks as Netscape bookmark HTML, suitable
// for re-import into any browser.
func (s *Bookmarks) Export(ctx context.Context) (string, error) {
	bookmarks, err := s.store.ListBookmarks(ctx)
	if err != nil {
		return "", fmt.Errorf("list bookmarks: %w", err)
	}
	folders, err := s.store.ListFolders(ctx)
	if err != nil {
		return "", fmt.Errorf("list folders: %w", err)
	}

	exportBookmarks := make([]netscape.ExportBookmark, 0, len(bookmarks))
	for _, b := range bookmarks {
		eb := netscape.ExportBookmark{
			Title:     b.Title,
			URL:       b.URL,
			CreatedAt: b.Created.UnixMilli(),
		}
		if b.Favicon != nil {
			eb.Favicon = *b.Favicon
		}
		if b.Folder != nil {
			eb.FolderID = models.MustRecordIDString(*b.Folder)
		}
		exportBookmarks = append(exportBookmarks, eb)
	}

	exportFolders := make([]netscape.ExportFolder, 0, len(folders))
	for _, f := range folders {
		ef := netscape.ExportFolder{
			ID:        models.MustRecordIDString(f.ID),
			Name:      f.Name,
			CreatedAt: f.Created.UnixMilli(),
		}
		if f.ParentID != nil {
			ef.ParentID = models.MustRecordIDString(*f.ParentID)
		}
		exportFolders = append(exportFolders, ef)
	}

	return netscape.Generate(exportBookmarks, exportFolders), nil
}
