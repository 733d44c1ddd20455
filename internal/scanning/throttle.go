package scanning

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultDelay keeps extraction calls under the free-tier request quota
const DefaultDelay = 5 * time.Second

// Throttled wraps an Extractor so that each call is followed by a delay window
// in which no other call may start. Calls are serialized.
type Throttled struct {
	next  Extractor
	limit rate.Limit

	mu      sync.Mutex
	limiter *rate.Limiter
}

// NewThrottled creates a Throttled extractor. A zero delay disables throttling.
func NewThrottled(next Extractor, delay time.Duration) *Throttled {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Throttled{
		next:    next,
		limit:   limit,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Extract waits out the previous call's delay window and then delegates to the wrapped extractor
func (t *Throttled) Extract(ctx context.Context, data []byte, mimeType string, categories []string) (*ExpenseData, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limit: %w", err)
	}
	defer t.restart()

	return t.next.Extract(ctx, data, mimeType, categories)
}

// restart opens a new delay window starting when the call returned
func (t *Throttled) restart() {
	t.limiter = rate.NewLimiter(t.limit, 1)
	t.limiter.AllowN(time.Now(), 1)
}

// Close closes the wrapped extractor
func (t *Throttled) Close() error {
	return t.next.Close()
}
