package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/linkhoard/linkhoard/internal/db"
	"github.com/linkhoard/linkhoard/internal/models"
)

// QueueState is the run state of the indexing queue.
type QueueState string

const (
	QueueIdle    QueueState = "idle"
	QueueRunning QueueState = "running"
	QueuePaused  QueueState = "paused"
)

// QueueStatus is a point-in-time view of the indexing queue.
type QueueStatus struct {
	State     QueueState `json:"state"`
	Depth     int        `json:"depth"`
	Processed int        `json:"processed"`
	Skipped   int        `json:"skipped"`
	Failed    int        `json:"failed"`
}

type indexTask struct {
	bookmarkID string
	force      bool
}

// IndexQueue embeds bookmarks for semantic search. It is a FIFO with a
// content-hash gate: a bookmark whose indexable content has not changed since
// it was last embedded is skipped, unless the task was forced. The queue can
// be paused and resumed; pausing stops between tasks, never mid-embedding.
type IndexQueue struct {
	store    Store
	embedder Embedder
	cache    *HashCache
	log      *slog.Logger

	mu        sync.Mutex
	enabled   bool
	state     QueueState
	tasks     []indexTask
	queued    map[string]int // bookmark id -> position in tasks
	draining  bool
	processed int
	skipped   int
	failed    int
}

// NewIndexQueue creates an indexing queue. When enabled is false the queue
// accepts no work and Enqueue is a no-op.
func NewIndexQueue(store Store, embedder Embedder, cache *HashCache, enabled bool, log *slog.Logger) *IndexQueue {
	if log == nil {
		log = slog.Default()
	}
	return &IndexQueue{
		store:    store,
		embedder: embedder,
		cache:    cache,
		log:      log,
		enabled:  enabled,
		state:    QueueIdle,
		queued:   make(map[string]int),
	}
}

// Status returns the current queue state and counters.
func (q *IndexQueue) Status() QueueStatus {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueueStatus{
		State:     q.state,
		Depth:     len(q.tasks),
		Processed: q.processed,
		Skipped:   q.skipped,
		Failed:    q.failed,
	}
}

// Enqueue adds a bookmark to the back of the queue. A bookmark already
// waiting is not enqueued twice, but a forced enqueue upgrades the waiting
// task to forced. Work starts immediately unless the queue is paused.
func (q *IndexQueue) Enqueue(ctx context.Context, bookmarkID string, force bool) {
	q.mu.Lock()
	if !q.enabled {
		q.mu.Unlock()
		return
	}
	if pos, ok := q.queued[bookmarkID]; ok {
		if force {
			q.tasks[pos].force = true
		}
		q.mu.Unlock()
		return
	}
	q.tasks = append(q.tasks, indexTask{bookmarkID: bookmarkID, force: force})
	q.queued[bookmarkID] = len(q.tasks) - 1
	if q.state == QueueIdle {
		q.state = QueueRunning
	}
	q.mu.Unlock()

	q.kick(ctx)
}

// StartBackfill replaces the queue with every bookmark in the store, resets
// the counters and starts draining. With force set, the hash gate is bypassed
// and everything is re-embedded.
func (q *IndexQueue) StartBackfill(ctx context.Context, force bool) error {
	q.mu.Lock()
	enabled := q.enabled
	q.mu.Unlock()
	if !enabled {
		return fmt.Errorf("semantic indexing is disabled")
	}

	bookmarks, err := q.store.ListBookmarks(ctx)
	if err != nil {
		return fmt.Errorf("list bookmarks for backfill: %w", err)
	}

	q.mu.Lock()
	q.tasks = q.tasks[:0]
	q.queued = make(map[string]int, len(bookmarks))
	q.processed, q.skipped, q.failed = 0, 0, 0
	for _, b := range bookmarks {
		id := models.MustRecordIDString(b.ID)
		q.tasks = append(q.tasks, indexTask{bookmarkID: id, force: force})
		q.queued[id] = len(q.tasks) - 1
	}
	depth := len(q.tasks)
	if q.state != QueuePaused {
		q.state = QueueRunning
	}
	q.mu.Unlock()

	q.log.Info("semantic index backfill queued", "bookmarks", depth, "force", force)
	q.kick(ctx)
	return nil
}

// Pause stops the queue between tasks. Queued work is kept, and work
// enqueued while paused waits for Resume.
func (q *IndexQueue) Pause() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.state = QueuePaused
}

// Resume restarts a paused queue.
func (q *IndexQueue) Resume(ctx context.Context) {
	q.mu.Lock()
	if q.state != QueuePaused {
		q.mu.Unlock()
		return
	}
	if len(q.tasks) == 0 {
		q.state = QueueIdle
		q.mu.Unlock()
		return
	}
	q.state = QueueRunning
	q.mu.Unlock()

	q.kick(ctx)
}

// SetEnabled toggles indexing. Disabling clears the queue; embeddings that
// already exist are kept.
func (q *IndexQueue) SetEnabled(enabled bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.enabled = enabled
	if !enabled {
		q.tasks = q.tasks[:0]
		q.queued = make(map[string]int)
		q.processed, q.skipped, q.failed = 0, 0, 0
		q.state = QueueIdle
	}
}

// HandleDelete keeps the index consistent with a bookmark deletion: the
// bookmark is dropped from the queue, its embedding is removed from the
// store, and its hash cache entry is forgotten.
func (q *IndexQueue) HandleDelete(ctx context.Context, bookmarkID string) error {
	q.mu.Lock()
	if pos, ok := q.queued[bookmarkID]; ok {
		q.tasks = append(q.tasks[:pos], q.tasks[pos+1:]...)
		delete(q.queued, bookmarkID)
		for i := pos; i < len(q.tasks); i++ {
			q.queued[q.tasks[i].bookmarkID] = i
		}
	}
	q.mu.Unlock()

	if err := q.store.DeleteBookmarkEmbedding(ctx, bookmarkID); err != nil {
		return fmt.Errorf("delete embedding: %w", err)
	}
	if err := q.cache.Delete(bookmarkID); err != nil {
		q.log.Warn("hash cache delete failed", "bookmark", bookmarkID, "error", err)
	}
	return nil
}

// Wait blocks until the queue stops working (drained, paused or cancelled).
func (q *IndexQueue) Wait(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			q.mu.Lock()
			working := q.draining
			q.mu.Unlock()
			if !working {
				return nil
			}
		}
	}
}

// kick starts the drain goroutine if one is not already running.
func (q *IndexQueue) kick(ctx context.Context) {
	q.mu.Lock()
	if q.draining || q.state != QueueRunning {
		q.mu.Unlock()
		return
	}
	q.draining = true
	q.mu.Unlock()

	go q.drain(ctx)
}

func (q *IndexQueue) drain(ctx context.Context) {
	for {
		q.mu.Lock()
		if q.state != QueueRunning || len(q.tasks) == 0 || ctx.Err() != nil {
			if len(q.tasks) == 0 && q.state == QueueRunning {
				q.state = QueueIdle
			}
			q.draining = false
			q.mu.Unlock()
			return
		}
		task := q.tasks[0]
		q.tasks = q.tasks[1:]
		delete(q.queued, task.bookmarkID)
		for i := range q.tasks {
			q.queued[q.tasks[i].bookmarkID] = i
		}
		q.mu.Unlock()

		q.process(ctx, task)
	}
}

func (q *IndexQueue) process(ctx context.Context, task indexTask) {
	bookmark, err := q.store.GetBookmark(ctx, task.bookmarkID)
	if errors.Is(err, db.ErrNotFound) {
		// Deleted while queued; nothing to index.
		return
	}
	if err != nil {
		q.log.Warn("indexing skipped, bookmark load failed", "bookmark", task.bookmarkID, "error", err)
		q.count(func() { q.failed++ })
		return
	}

	text := indexableText(bookmark)
	hash := contentHash(text)

	if !task.force {
		if prev, ok := q.cache.Get(task.bookmarkID); ok && prev == hash {
			q.count(func() { q.skipped++ })
			return
		}
	}

	vector, err := q.embedder.EmbedDocument(ctx, text)
	if err != nil {
		q.log.Warn("embedding bookmark failed", "bookmark", task.bookmarkID, "error", err)
		q.count(func() { q.failed++ })
		return
	}

	err = q.store.UpsertBookmarkEmbedding(ctx, task.bookmarkID, vector,
		q.embedder.Dimension(), q.embedder.Model(), q.embedder.Dtype(), hash)
	if err != nil {
		q.log.Warn("saving embedding failed", "bookmark", task.bookmarkID, "error", err)
		q.count(func() { q.failed++ })
		return
	}

	if err := q.cache.Put(task.bookmarkID, hash); err != nil {
		q.log.Warn("hash cache write failed", "bookmark", task.bookmarkID, "error", err)
	}
	q.count(func() { q.processed++ })
	q.log.Debug("bookmark indexed", "bookmark", task.bookmarkID, "hash", hash)
}

func (q *IndexQueue) count(fn func()) {
	q.mu.Lock()
	fn()
	q.mu.Unlock()
}

// indexableText is the canonical text a bookmark is embedded from: title,
// URL and description, newline-joined. Changing any of them changes the
// content hash and re-opens the gate.
func indexableText(b *models.Bookmark) string {
	parts := []string{b.Title, b.URL}
	if b.Description != nil && *b.Description != "" {
		parts = append(parts, *b.Description)
	}
	return strings.Join(parts, "\n")
}

// contentHash is an FNV-1a digest of the indexable text.
func contentHash(text string) string {
	h := fnv.New64a()
	h.Write([]byte(text))
	return fmt.Sprintf("%016x", h.Sum64())
}
