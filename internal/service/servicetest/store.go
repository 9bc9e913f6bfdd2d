// Package servicetest provides an in-memory Store implementation for tests
// of components that sit above the persistence layer.
package servicetest

import (
	"context"
	"fmt"
	"sync"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/linkhoard/linkhoard/internal/db"
	"github.com/linkhoard/linkhoard/internal/models"
	"github.com/linkhoard/linkhoard/internal/service"
)

// Store is an in-memory service.Store. URLs are unique per store, matching
// the production unique index.
type Store struct {
	mu         sync.Mutex
	nextID     int
	bookmarks  map[string]*models.Bookmark
	folders    map[string]*models.Folder
	embeddings map[string]string // bookmark id -> content hash
}

var _ service.Store = (*Store)(nil)

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		bookmarks:  make(map[string]*models.Bookmark),
		folders:    make(map[string]*models.Folder),
		embeddings: make(map[string]string),
	}
}

func (s *Store) newID() string {
	s.nextID++
	return fmt.Sprintf("id%d", s.nextID)
}

// EmbeddingCount returns how many embeddings are stored.
func (s *Store) EmbeddingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.embeddings)
}

func (s *Store) CreateFolder(_ context.Context, name string, parentID *string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID()
	f := &models.Folder{ID: surrealmodels.NewRecordID("folder", id), Name: name}
	if parentID != nil {
		pid := surrealmodels.NewRecordID("folder", *parentID)
		f.ParentID = &pid
	}
	s.folders[id] = f
	return id, nil
}

func (s *Store) CreateBookmark(_ context.Context, input models.BookmarkInput) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, _ := s.createLocked(input)
	return id, nil
}

func (s *Store) createLocked(input models.BookmarkInput) (string, bool) {
	for id, b := range s.bookmarks {
		if b.URL == input.URL {
			return id, false
		}
	}
	id := s.newID()
	b := &models.Bookmark{
		ID:             surrealmodels.NewRecordID("bookmark", id),
		Title:          input.Title,
		URL:            input.URL,
		Favicon:        input.Favicon,
		OGImage:        input.OGImage,
		MetadataStatus: models.MetadataPending,
	}
	if input.FolderID != nil {
		fid := surrealmodels.NewRecordID("folder", *input.FolderID)
		b.Folder = &fid
	}
	s.bookmarks[id] = b
	return id, true
}

func (s *Store) BatchCreateBookmarks(_ context.Context, inputs []models.BookmarkInput) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var created []string
	for _, input := range inputs {
		if id, fresh := s.createLocked(input); fresh {
			created = append(created, id)
		}
	}
	return created, nil
}

func (s *Store) GetBookmark(_ context.Context, id string) (*models.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookmarks[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	clone := *b
	return &clone, nil
}

func (s *Store) UpdateBookmark(_ context.Context, id string, patch models.BookmarkPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookmarks[id]
	if !ok {
		return db.ErrNotFound
	}
	if patch.Title != nil {
		b.Title = *patch.Title
	}
	if patch.URL != nil {
		b.URL = *patch.URL
	}
	if patch.Description != nil {
		b.Description = patch.Description
	}
	if patch.Favicon != nil {
		b.Favicon = patch.Favicon
	}
	return nil
}

func (s *Store) UpdateBookmarkMetadata(_ context.Context, id string, md models.PageMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookmarks[id]
	if !ok {
		return db.ErrNotFound
	}
	if md.Title != "" {
		b.Title = md.Title
	}
	if md.Favicon != "" {
		v := md.Favicon
		b.Favicon = &v
	}
	if md.OGImage != "" {
		v := md.OGImage
		b.OGImage = &v
	}
	if md.Description != "" {
		v := md.Description
		b.Description = &v
	}
	b.MetadataStatus = models.MetadataCompleted
	return nil
}

func (s *Store) DeleteBookmark(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookmarks[id]; !ok {
		return db.ErrNotFound
	}
	delete(s.bookmarks, id)
	return nil
}

func (s *Store) DeleteFolder(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.folders[id]; !ok {
		return db.ErrNotFound
	}
	delete(s.folders, id)
	return nil
}

func (s *Store) ListBookmarks(_ context.Context) ([]models.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Bookmark, 0, len(s.bookmarks))
	for i := 1; i <= s.nextID; i++ {
		if b, ok := s.bookmarks[fmt.Sprintf("id%d", i)]; ok {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *Store) ListFolders(_ context.Context) ([]models.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Folder, 0, len(s.folders))
	for i := 1; i <= s.nextID; i++ {
		if f, ok := s.folders[fmt.Sprintf("id%d", i)]; ok {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (s *Store) ListPendingMetadata(_ context.Context) ([]models.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Bookmark
	for i := 1; i <= s.nextID; i++ {
		if b, ok := s.bookmarks[fmt.Sprintf("id%d", i)]; ok && b.MetadataStatus == models.MetadataPending {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *Store) UpsertBookmarkEmbedding(_ context.Context, bookmarkID string, _ []float32, _ int, _, _, contentHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.embeddings[bookmarkID] = contentHash
	return nil
}

func (s *Store) DeleteBookmarkEmbedding(_ context.Context, bookmarkID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.embeddings, bookmarkID)
	return nil
}

func (s *Store) SearchBookmarks(_ context.Context, _ []float32, limit int) ([]models.ScoredBookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ScoredBookmark
	for i := 1; i <= s.nextID && len(out) < limit; i++ {
		id := fmt.Sprintf("id%d", i)
		if _, ok := s.embeddings[id]; ok {
			if b := s.bookmarks[id]; b != nil {
				out = append(out, models.ScoredBookmark{Bookmark: *b, Score: 0.9})
			}
		}
	}
	return out, nil
}
