package service

import (
	"context"
	"fmt"
	"sync"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/linkhoard/linkhoard/internal/db"
	"github.com/linkhoard/linkhoard/internal/models"
)

// fakeStore is an in-memory Store for service tests.
type fakeStore struct {
	mu         sync.Mutex
	nextID     int
	bookmarks  map[string]*models.Bookmark
	folders    map[string]*models.Folder
	embeddings map[string]string // bookmark id -> content hash
	byURL      map[string]string

	batchCalls  [][]models.BookmarkInput
	batchErr    error
	updateErr   error
	updateErrID string // when set, updateErr applies only to this bookmark
}

var _ Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		bookmarks:  make(map[string]*models.Bookmark),
		folders:    make(map[string]*models.Folder),
		embeddings: make(map[string]string),
		byURL:      make(map[string]string),
	}
}

func (s *fakeStore) newID() string {
	s.nextID++
	return fmt.Sprintf("id%d", s.nextID)
}

func (s *fakeStore) CreateFolder(_ context.Context, name string, parentID *string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID()
	f := &models.Folder{ID: surrealmodels.NewRecordID("folder", id), Owner: "test", Name: name}
	if parentID != nil {
		pid := surrealmodels.NewRecordID("folder", *parentID)
		f.ParentID = &pid
	}
	s.folders[id] = f
	return id, nil
}

func (s *fakeStore) createLocked(input models.BookmarkInput) (string, bool) {
	if existing, ok := s.byURL[input.URL]; ok {
		return existing, false
	}
	id := s.newID()
	b := &models.Bookmark{
		ID:             surrealmodels.NewRecordID("bookmark", id),
		Owner:          "test",
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
	s.byURL[input.URL] = id
	return id, true
}

func (s *fakeStore) CreateBookmark(_ context.Context, input models.BookmarkInput) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, _ := s.createLocked(input)
	return id, nil
}

func (s *fakeStore) BatchCreateBookmarks(_ context.Context, inputs []models.BookmarkInput) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batchCalls = append(s.batchCalls, inputs)
	if s.batchErr != nil {
		return nil, s.batchErr
	}
	var created []string
	for _, input := range inputs {
		if id, fresh := s.createLocked(input); fresh {
			created = append(created, id)
		}
	}
	return created, nil
}

func (s *fakeStore) GetBookmark(_ context.Context, id string) (*models.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookmarks[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	clone := *b
	return &clone, nil
}

func (s *fakeStore) UpdateBookmark(_ context.Context, id string, patch models.BookmarkPatch) error {
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
	return nil
}

func (s *fakeStore) UpdateBookmarkMetadata(_ context.Context, id string, md models.PageMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil && (s.updateErrID == "" || s.updateErrID == id) {
		return s.updateErr
	}
	b, ok := s.bookmarks[id]
	if !ok {
		return db.ErrNotFound
	}
	if md.Title != "" {
		b.Title = md.Title
	}
	if md.Description != "" {
		d := md.Description
		b.Description = &d
	}
	if md.Favicon != "" {
		f := md.Favicon
		b.Favicon = &f
	}
	b.MetadataStatus = models.MetadataCompleted
	return nil
}

func (s *fakeStore) DeleteBookmark(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookmarks[id]
	if !ok {
		return db.ErrNotFound
	}
	delete(s.byURL, b.URL)
	delete(s.bookmarks, id)
	return nil
}

func (s *fakeStore) DeleteFolder(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.folders[id]; !ok {
		return db.ErrNotFound
	}
	delete(s.folders, id)
	return nil
}

func (s *fakeStore) ListBookmarks(_ context.Context) ([]models.Bookmark, error) {
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

func (s *fakeStore) ListFolders(_ context.Context) ([]models.Folder, error) {
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

func (s *fakeStore) ListPendingMetadata(_ context.Context) ([]models.Bookmark, error) {
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

func (s *fakeStore) UpsertBookmarkEmbedding(_ context.Context, bookmarkID string, _ []float32, _ int, _, _, contentHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.embeddings[bookmarkID] = contentHash
	return nil
}

func (s *fakeStore) DeleteBookmarkEmbedding(_ context.Context, bookmarkID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.embeddings, bookmarkID)
	return nil
}

func (s *fakeStore) SearchBookmarks(_ context.Context, _ []float32, limit int) ([]models.ScoredBookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ScoredBookmark
	for i := 1; i <= s.nextID && len(out) < limit; i++ {
		if _, ok := s.embeddings[fmt.Sprintf("id%d", i)]; ok {
			b := s.bookmarks[fmt.Sprintf("id%d", i)]
			if b != nil {
				out = append(out, models.ScoredBookmark{Bookmark: *b, Score: 0.9})
			}
		}
	}
	return out, nil
}

func (s *fakeStore) embeddingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.embeddings)
}

// fakeEmbedder returns constant vectors and records how often it ran.
type fakeEmbedder struct {
	mu    sync.Mutex
	calls []string
	err   error
}

var _ Embedder = (*fakeEmbedder)(nil)

func (e *fakeEmbedder) embed(text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	e.calls = append(e.calls, text)
	return []float32{0.1, 0.2, 0.3}, nil
}

func (e *fakeEmbedder) EmbedDocument(_ context.Context, text string) ([]float32, error) {
	return e.embed(text)
}

func (e *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return e.embed(text)
}

func (e *fakeEmbedder) Model() string  { return "fake-model" }
func (e *fakeEmbedder) Dimension() int { return 3 }
func (e *fakeEmbedder) Dtype() string  { return "f32" }

func (e *fakeEmbedder) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

// fakeFetcher returns canned metadata and tracks fetch concurrency.
type fakeFetcher struct {
	mu      sync.Mutex
	active  int
	maxSeen int
	calls   int
	block   chan struct{} // when non-nil, fetches wait here
	result  models.PageMetadata
}

var _ MetadataFetcher = (*fakeFetcher)(nil)

func (f *fakeFetcher) Fetch(_ context.Context, _ string) models.PageMetadata {
	f.mu.Lock()
	f.active++
	f.calls++
	if f.active > f.maxSeen {
		f.maxSeen = f.active
	}
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}

	f.mu.Lock()
	f.active--
	f.mu.Unlock()
	return f.result
}

func (f *fakeFetcher) stats() (calls, maxSeen int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls, f.maxSeen
}
