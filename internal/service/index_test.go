package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkhoard/linkhoard/internal/models"
)

func newTestQueue(t *testing.T, store *fakeStore, enabled bool) (*IndexQueue, *fakeEmbedder, *HashCache) {
	t.Helper()
	cache, err := NewHashCache("")
	require.NoError(t, err)
	embedder := &fakeEmbedder{}
	return NewIndexQueue(store, embedder, cache, enabled, nil), embedder, cache
}

func waitForStatus(t *testing.T, q *IndexQueue, want func(QueueStatus) bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		return want(q.Status())
	}, 2*time.Second, 10*time.Millisecond)
}

func TestIndexQueue_EnqueueEmbedsAndCaches(t *testing.T) {
	store := newFakeStore()
	ids := seedPending(t, store, 1)
	q, embedder, cache := newTestQueue(t, store, true)

	q.Enqueue(context.Background(), ids[0], false)
	waitForStatus(t, q, func(s QueueStatus) bool { return s.Processed == 1 })

	assert.Equal(t, 1, embedder.callCount())
	assert.Equal(t, 1, store.embeddingCount())
	_, ok := cache.Get(ids[0])
	assert.True(t, ok)
	assert.Equal(t, QueueIdle, q.Status().State)
}

func TestIndexQueue_HashGateSkipsUnchangedContent(t *testing.T) {
	store := newFakeStore()
	ids := seedPending(t, store, 1)
	q, embedder, _ := newTestQueue(t, store, true)

	q.Enqueue(context.Background(), ids[0], false)
	waitForStatus(t, q, func(s QueueStatus) bool { return s.Processed == 1 })

	// Unchanged content: the gate holds and nothing is re-embedded.
	q.Enqueue(context.Background(), ids[0], false)
	waitForStatus(t, q, func(s QueueStatus) bool { return s.Skipped == 1 })
	assert.Equal(t, 1, embedder.callCount())

	// Changed content re-opens the gate.
	desc := "now with a description"
	require.NoError(t, store.UpdateBookmark(context.Background(), ids[0], models.BookmarkPatch{Description: &desc}))
	q.Enqueue(context.Background(), ids[0], false)
	waitForStatus(t, q, func(s QueueStatus) bool { return s.Processed == 2 })
	assert.Equal(t, 2, embedder.callCount())
}

func TestIndexQueue_ForceBypassesHashGate(t *testing.T) {
	store := newFakeStore()
	ids := seedPending(t, store, 1)
	q, embedder, _ := newTestQueue(t, store, true)

	q.Enqueue(context.Background(), ids[0], false)
	waitForStatus(t, q, func(s QueueStatus) bool { return s.Processed == 1 })

	q.Enqueue(context.Background(), ids[0], true)
	waitForStatus(t, q, func(s QueueStatus) bool { return s.Processed == 2 })
	assert.Equal(t, 2, embedder.callCount())
	assert.Equal(t, 0, q.Status().Skipped)
}

func TestIndexQueue_PauseHoldsWork(t *testing.T) {
	store := newFakeStore()
	ids := seedPending(t, store, 2)
	q, embedder, _ := newTestQueue(t, store, true)

	q.Pause()
	q.Enqueue(context.Background(), ids[0], false)
	q.Enqueue(context.Background(), ids[1], false)

	status := q.Status()
	assert.Equal(t, QueuePaused, status.State)
	assert.Equal(t, 2, status.Depth)
	assert.Equal(t, 0, embedder.callCount())

	q.Resume(context.Background())
	waitForStatus(t, q, func(s QueueStatus) bool { return s.Processed == 2 })
	assert.Equal(t, QueueIdle, q.Status().State)
}

func TestIndexQueue_DisabledIgnoresEnqueue(t *testing.T) {
	store := newFakeStore()
	ids := seedPending(t, store, 1)
	q, embedder, _ := newTestQueue(t, store, false)

	q.Enqueue(context.Background(), ids[0], false)
	assert.Equal(t, 0, q.Status().Depth)
	assert.Equal(t, 0, embedder.callCount())

	err := q.StartBackfill(context.Background(), false)
	require.Error(t, err)
}

func TestIndexQueue_DisablingClearsQueue(t *testing.T) {
	store := newFakeStore()
	ids := seedPending(t, store, 2)
	q, _, _ := newTestQueue(t, store, true)

	q.Pause()
	q.Enqueue(context.Background(), ids[0], false)
	q.Enqueue(context.Background(), ids[1], false)
	require.Equal(t, 2, q.Status().Depth)

	q.SetEnabled(false)
	assert.Equal(t, 0, q.Status().Depth)
	assert.Equal(t, QueueIdle, q.Status().State)
}

func TestIndexQueue_BackfillIndexesEverything(t *testing.T) {
	store := newFakeStore()
	seedPending(t, store, 5)
	q, embedder, _ := newTestQueue(t, store, true)

	require.NoError(t, q.StartBackfill(context.Background(), false))
	waitForStatus(t, q, func(s QueueStatus) bool { return s.Processed == 5 })

	assert.Equal(t, 5, embedder.callCount())
	assert.Equal(t, 5, store.embeddingCount())
}

func TestIndexQueue_BackfillResetsCounters(t *testing.T) {
	store := newFakeStore()
	seedPending(t, store, 2)
	q, embedder, _ := newTestQueue(t, store, true)

	require.NoError(t, q.StartBackfill(context.Background(), false))
	waitForStatus(t, q, func(s QueueStatus) bool { return s.Processed == 2 })

	// The second run starts from zero; unchanged content is all skips.
	require.NoError(t, q.StartBackfill(context.Background(), false))
	waitForStatus(t, q, func(s QueueStatus) bool { return s.Skipped == 2 })
	status := q.Status()
	assert.Equal(t, 0, status.Processed)
	assert.Equal(t, 0, status.Failed)
	assert.Equal(t, 2, embedder.callCount())

	// Disabling resets the counters along with the queue.
	q.SetEnabled(false)
	assert.Equal(t, 0, q.Status().Skipped)
}

func TestIndexQueue_HandleDeleteCleansUp(t *testing.T) {
	store := newFakeStore()
	ids := seedPending(t, store, 2)
	q, _, cache := newTestQueue(t, store, true)

	q.Enqueue(context.Background(), ids[0], false)
	waitForStatus(t, q, func(s QueueStatus) bool { return s.Processed == 1 })

	// Delete drops the embedding, the cache entry and any queued task.
	q.Pause()
	q.Enqueue(context.Background(), ids[1], false)
	require.NoError(t, store.DeleteBookmark(context.Background(), ids[0]))
	require.NoError(t, q.HandleDelete(context.Background(), ids[0]))

	assert.Equal(t, 0, store.embeddingCount())
	_, ok := cache.Get(ids[0])
	assert.False(t, ok)
	assert.Equal(t, 1, q.Status().Depth)
}

func TestIndexQueue_DeletedWhileQueuedIsSkipped(t *testing.T) {
	store := newFakeStore()
	ids := seedPending(t, store, 1)
	q, embedder, _ := newTestQueue(t, store, true)

	q.Pause()
	q.Enqueue(context.Background(), ids[0], false)
	require.NoError(t, store.DeleteBookmark(context.Background(), ids[0]))

	q.Resume(context.Background())
	waitForStatus(t, q, func(s QueueStatus) bool { return s.Depth == 0 && s.State == QueueIdle })
	assert.Equal(t, 0, embedder.callCount())
	assert.Equal(t, 0, q.Status().Processed)
}
