package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkhoard/linkhoard/internal/models"
)

func TestSearchService_EmptyQueryRejected(t *testing.T) {
	svc := NewSearchService(newFakeStore(), &fakeEmbedder{})
	_, err := svc.Search(context.Background(), "   ", 10)
	require.Error(t, err)
}

func TestSearchService_SemanticPath(t *testing.T) {
	store := newFakeStore()
	ids := seedPending(t, store, 3)
	embedder := &fakeEmbedder{}

	cache, err := NewHashCache("")
	require.NoError(t, err)
	q := NewIndexQueue(store, embedder, cache, true, nil)
	require.NoError(t, q.StartBackfill(context.Background(), false))
	require.Eventually(t, func() bool {
		return q.Status().Processed == 3
	}, 2*time.Second, 10*time.Millisecond)

	svc := NewSearchService(store, embedder)
	assert.True(t, svc.Semantic())

	results, err := svc.Search(context.Background(), "pages", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Contains(t, []string{ids[0], ids[1], ids[2]}, models.MustRecordIDString(results[0].ID))
}

func TestSearchService_SubstringFallback(t *testing.T) {
	store := newFakeStore()
	seedPending(t, store, 5)

	svc := NewSearchService(store, nil)
	assert.False(t, svc.Semantic())

	results, err := svc.Search(context.Background(), "page 3", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Page 3", results[0].Title)

	results, err = svc.Search(context.Background(), "EXAMPLE.COM", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}
