package guard

import (
	"context"
	"sync"
	"time"
)

// IdempotencyGuard remembers request keys for a retention window so a retried
// XP grant is applied once.
type IdempotencyGuard struct {
	mu        sync.Mutex
	seen      map[string]time.Time
	retention time.Duration
	now       func() time.Time
}

// NewIdempotencyGuard creates an in-memory guard. Zero retention keeps keys forever.
func NewIdempotencyGuard(retention time.Duration) *IdempotencyGuard {
	return &IdempotencyGuard{
		seen:      make(map[string]time.Time),
		retention: retention,
		now:       time.Now,
	}
}

// Check claims key. An empty key is always allowed.
func (ig *IdempotencyGuard) Check(_ context.Context, key string) Result {
	if key == "" {
		return allow()
	}

	ig.mu.Lock()
	defer ig.mu.Unlock()

	now := ig.now()
	if at, ok := ig.seen[key]; ok {
		if ig.retention == 0 || now.Sub(at) < ig.retention {
			return Result{
				Reason: "duplicate request: idempotency key already processed",
				Guard:  "idempotency",
			}
		}
	}

	ig.seen[key] = now
	return allow()
}

// Remove releases key so a failed request can be retried.
func (ig *IdempotencyGuard) Remove(key string) {
	ig.mu.Lock()
	defer ig.mu.Unlock()
	delete(ig.seen, key)
}
