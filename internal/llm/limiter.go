package llm

import (
	"context"
	"sync"
	"time"
)

// requestPacer enforces a minimum delay between outbound LLM requests so a
// burst of analyses cannot trip upstream rate limits.
type requestPacer struct {
	mu       sync.Mutex
	minDelay time.Duration
	lastCall time.Time
}

func newRequestPacer(minDelay time.Duration) *requestPacer {
	return &requestPacer{minDelay: minDelay}
}

// Wait blocks until the minimum delay since the previous request has passed
// or the context is canceled.
func (p *requestPacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := time.Since(p.lastCall)
	if elapsed < p.minDelay {
		p.mu.Unlock()
		select {
		case <-ctx.Done():
			p.mu.Lock()
			return ctx.Err()
		case <-time.After(p.minDelay - elapsed):
			p.mu.Lock()
		}
	}

	p.lastCall = time.Now()
	return nil
}
