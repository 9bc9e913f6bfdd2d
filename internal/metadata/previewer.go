package metadata

import (
	"context"
	"sync"
	"time"

	"github.com/linkhoard/linkhoard/internal/models"
)

// PageResult pairs a preview result with the URL it was fetched for, so late
// deliveries can be matched against the current input.
type PageResult struct {
	URL      string
	Metadata models.PageMetadata
}

// Previewer debounces metadata lookups for a URL being typed. Each call
// supersedes the previous one: the in-flight fetch is cancelled through its
// context, which aborts the underlying HTTP request. This is the one place
// in the system with true request cancellation.
type Previewer struct {
	fetcher *Fetcher
	delay   time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewPreviewer wraps a fetcher with debounce delay.
func NewPreviewer(fetcher *Fetcher, delay time.Duration) *Previewer {
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	return &Previewer{fetcher: fetcher, delay: delay}
}

// Preview schedules a debounced fetch for pageURL and delivers the result to
// fn. A later Preview call cancels this one; a cancelled call never invokes fn.
func (p *Previewer) Preview(pageURL string, fn func(PageResult)) {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.mu.Unlock()

	go func() {
		defer cancel()

		timer := time.NewTimer(p.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		md := p.fetcher.Fetch(ctx, pageURL)
		if ctx.Err() != nil {
			return
		}
		fn(PageResult{URL: pageURL, Metadata: md})
	}()
}

// Stop cancels any in-flight preview.
func (p *Previewer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}
