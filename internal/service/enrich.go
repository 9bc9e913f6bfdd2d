package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/linkhoard/linkhoard/internal/models"
)

// EnrichProgress reports on a running enrichment pass. Total is the pending
// count seen when the pass started; bookmarks added mid-pass are picked up by
// the follow-up pass, not counted here.
type EnrichProgress struct {
	Active    bool `json:"active"`
	Processed int  `json:"processed"`
	Total     int  `json:"total"`
}

// Enricher fills in page metadata for bookmarks that still have
// metadata_status = "pending". It is level-triggered: Kick starts a pass if
// none is running, and a kick during a pass schedules exactly one more pass
// when the current one finishes. Each pass re-reads the pending set from the
// store, so the enricher converges on whatever is pending regardless of how
// the work arrived.
type Enricher struct {
	store       Store
	fetcher     MetadataFetcher
	concurrency int
	log         *slog.Logger

	// onEnriched is called after a bookmark's metadata is persisted, with
	// the bookmark id. Used to chain into semantic indexing.
	onEnriched func(id string)

	mu       sync.Mutex
	running  bool
	rerun    bool
	progress EnrichProgress
}

// NewEnricher creates a metadata enricher processing up to concurrency
// bookmarks at a time.
func NewEnricher(store Store, fetcher MetadataFetcher, concurrency int, log *slog.Logger) *Enricher {
	if concurrency <= 0 {
		concurrency = 5
	}
	if log == nil {
		log = slog.Default()
	}
	return &Enricher{
		store:       store,
		fetcher:     fetcher,
		concurrency: concurrency,
		log:         log,
	}
}

// OnEnriched registers a callback invoked after each bookmark's metadata is
// saved. Must be set before Kick.
func (e *Enricher) OnEnriched(fn func(id string)) {
	e.onEnriched = fn
}

// Progress returns the current pass progress.
func (e *Enricher) Progress() EnrichProgress {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progress
}

// Kick asks the enricher to process everything pending. Safe to call from any
// goroutine and at any rate; concurrent kicks coalesce into a single
// follow-up pass.
func (e *Enricher) Kick(ctx context.Context) {
	e.mu.Lock()
	if e.running {
		e.rerun = true
		e.mu.Unlock()
		return
	}
	e.running = true
	e.mu.Unlock()

	go e.run(ctx)
}

// RunOnce processes everything pending on the calling goroutine, for one-shot
// commands that must not exit before enrichment finishes. If a background
// pass is already running it only schedules a follow-up, like Kick.
func (e *Enricher) RunOnce(ctx context.Context) {
	e.mu.Lock()
	if e.running {
		e.rerun = true
		e.mu.Unlock()
		return
	}
	e.running = true
	e.mu.Unlock()

	e.run(ctx)
}

func (e *Enricher) run(ctx context.Context) {
	for {
		e.pass(ctx)

		e.mu.Lock()
		if !e.rerun || ctx.Err() != nil {
			e.running = false
			e.rerun = false
			e.progress = EnrichProgress{}
			e.mu.Unlock()
			return
		}
		e.rerun = false
		e.mu.Unlock()
	}
}

// pass processes the pending set in windows of e.concurrency. A window
// finishes completely before the next one starts.
func (e *Enricher) pass(ctx context.Context) {
	pending, err := e.store.ListPendingMetadata(ctx)
	if err != nil {
		e.log.Error("listing pending bookmarks failed", "error", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	e.mu.Lock()
	e.progress = EnrichProgress{Active: true, Total: len(pending)}
	e.mu.Unlock()

	e.log.Info("metadata enrichment pass started", "pending", len(pending), "concurrency", e.concurrency)

	processed := 0
	for start := 0; start < len(pending); start += e.concurrency {
		if ctx.Err() != nil {
			return
		}
		end := min(start+e.concurrency, len(pending))
		window := pending[start:end]

		var wg sync.WaitGroup
		for _, b := range window {
			wg.Add(1)
			go func(b models.Bookmark) {
				defer wg.Done()
				e.enrichOne(ctx, b)
			}(b)
		}
		wg.Wait()

		processed += len(window)
		e.mu.Lock()
		e.progress.Processed = processed
		e.mu.Unlock()
	}

	e.log.Info("metadata enrichment pass finished", "processed", processed)
}

// enrichOne fetches metadata for a single bookmark and persists it. The
// bookmark is marked completed even when the fetch degraded to fallback data;
// a dead link should not be retried on every pass.
func (e *Enricher) enrichOne(ctx context.Context, b models.Bookmark) {
	id := models.MustRecordIDString(b.ID)
	md := e.fetcher.Fetch(ctx, b.URL)

	if err := e.store.UpdateBookmarkMetadata(ctx, id, md); err != nil {
		e.log.Warn("saving bookmark metadata failed", "bookmark", id, "error", err)
		return
	}
	if e.onEnriched != nil {
		e.onEnriched(id)
	}
}
