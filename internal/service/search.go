package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/linkhoard/linkhoard/internal/models"
)

// SearchService answers bookmark queries. With an embedder it does semantic
// KNN search over the embedding table; without one it falls back to substring
// matching on title and URL so search keeps working when indexing is off.
type SearchService struct {
	store    Store
	embedder Embedder
}

// NewSearchService creates a search service. embedder may be nil.
func NewSearchService(store Store, embedder Embedder) *SearchService {
	return &SearchService{store: store, embedder: embedder}
}

// Semantic reports whether queries are answered by vector search.
func (s *SearchService) Semantic() bool {
	return s.embedder != nil
}

// Search returns up to limit bookmarks ranked by relevance to query.
func (s *SearchService) Search(ctx context.Context, query string, limit int) ([]models.ScoredBookmark, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query")
	}
	if limit <= 0 {
		limit = 10
	}

	if s.embedder == nil {
		return s.substringSearch(ctx, query, limit)
	}

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	results, err := s.store.SearchBookmarks(ctx, vector, limit)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return results, nil
}

// substringSearch is the non-semantic fallback: case-insensitive match on
// title and URL, in stored order.
func (s *SearchService) substringSearch(ctx context.Context, query string, limit int) ([]models.ScoredBookmark, error) {
	bookmarks, err := s.store.ListBookmarks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}

	needle := strings.ToLower(query)
	var results []models.ScoredBookmark
	for _, b := range bookmarks {
		if strings.Contains(strings.ToLower(b.Title), needle) ||
			strings.Contains(strings.ToLower(b.URL), needle) {
			results = append(results, models.ScoredBookmark{Bookmark: b, Score: 0})
			if len(results) == limit {
				break
			}
		}
	}
	return results, nil
}
