package guard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
}

// --- Rate Limiter Tests ---

func TestRateLimiter_AllowsUnderLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result := rl.Check(ctx, "10.0.0.1")
		assert.True(t, result.Allowed, "request %d should be allowed", i+1)
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	ctx := context.Background()

	rl.Check(ctx, "10.0.0.1")
	rl.Check(ctx, "10.0.0.1")
	result := rl.Check(ctx, "10.0.0.1")

	assert.False(t, result.Allowed)
	assert.Equal(t, "rate_limiter", result.Guard)
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	clock := newClock()
	rl := NewRateLimiter(1, time.Minute)
	rl.now = clock.now
	ctx := context.Background()

	require.True(t, rl.Check(ctx, "k").Allowed)
	require.False(t, rl.Check(ctx, "k").Allowed)

	clock.advance(61 * time.Second)
	assert.True(t, rl.Check(ctx, "k").Allowed)
}

func TestRateLimiter_SeparateKeys(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	ctx := context.Background()

	assert.True(t, rl.Check(ctx, "key-a").Allowed)
	assert.True(t, rl.Check(ctx, "key-b").Allowed)
}

func TestRateLimiter_DisabledWhenLimitZero(t *testing.T) {
	rl := NewRateLimiter(0, time.Minute)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		require.True(t, rl.Check(ctx, "k").Allowed)
	}
}

func TestRateLimiter_RetryAfter(t *testing.T) {
	clock := newClock()
	rl := NewRateLimiter(2, time.Minute)
	rl.now = clock.now
	ctx := context.Background()

	rl.Check(ctx, "k")
	clock.advance(20 * time.Second)
	rl.Check(ctx, "k")
	clock.advance(10 * time.Second)

	res := rl.Check(ctx, "k")
	require.False(t, res.Allowed)
	assert.Equal(t, 30*time.Second, res.RetryAfter, "oldest hit leaves the window after 30s")
}

func TestRateLimiter_RejectedHitsNotCounted(t *testing.T) {
	clock := newClock()
	rl := NewRateLimiter(1, time.Minute)
	rl.now = clock.now
	ctx := context.Background()

	require.True(t, rl.Check(ctx, "k").Allowed)
	for i := 0; i < 5; i++ {
		clock.advance(10 * time.Second)
		require.False(t, rl.Check(ctx, "k").Allowed)
	}

	clock.advance(11 * time.Second)
	assert.True(t, rl.Check(ctx, "k").Allowed)
}

func TestRateLimiter_SweepsIdleClients(t *testing.T) {
	clock := newClock()
	rl := NewRateLimiter(5, time.Minute)
	rl.now = clock.now
	ctx := context.Background()

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		rl.Check(ctx, ip)
	}
	assert.Equal(t, 3, rl.Clients())

	clock.advance(2 * time.Minute)
	rl.Check(ctx, "10.0.0.9")
	assert.Equal(t, 1, rl.Clients())
}

// --- Circuit Breaker Tests ---

func TestCircuitBreaker_ClosedByDefault(t *testing.T) {
	cb := NewCircuitBreaker(3, 5*time.Second)
	ctx := context.Background()

	assert.True(t, cb.Check(ctx, "store").Allowed)
	assert.Equal(t, CircuitClosed, cb.State("store"))
}

func TestCircuitBreaker_OpensOnThreshold(t *testing.T) {
	cb := NewCircuitBreaker(2, 5*time.Second)
	ctx := context.Background()

	cb.RecordFailure("store")
	cb.RecordFailure("store")

	result := cb.Check(ctx, "store")
	assert.False(t, result.Allowed)
	assert.Equal(t, "circuit_breaker", result.Guard)
	assert.Equal(t, "open", cb.State("store").String())
}

func TestCircuitBreaker_SuccessResets(t *testing.T) {
	cb := NewCircuitBreaker(2, 5*time.Second)
	ctx := context.Background()

	cb.RecordFailure("store")
	cb.RecordSuccess("store")
	cb.RecordFailure("store")

	assert.True(t, cb.Check(ctx, "store").Allowed)
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	clock := newClock()
	cb := NewCircuitBreaker(1, 5*time.Second)
	cb.now = clock.now
	ctx := context.Background()

	cb.RecordFailure("store")
	require.False(t, cb.Check(ctx, "store").Allowed)

	clock.advance(6 * time.Second)
	require.True(t, cb.Check(ctx, "store").Allowed, "first probe after timeout")
	assert.Equal(t, CircuitHalfOpen, cb.State("store"))
	assert.False(t, cb.Check(ctx, "store").Allowed, "second probe while first is in flight")

	t.Run("failed probe reopens", func(t *testing.T) {
		cb.RecordFailure("store")
		assert.Equal(t, CircuitOpen, cb.State("store"))
	})

	t.Run("successful probe closes", func(t *testing.T) {
		clock.advance(6 * time.Second)
		require.True(t, cb.Check(ctx, "store").Allowed)
		cb.RecordSuccess("store")
		assert.Equal(t, CircuitClosed, cb.State("store"))
	})
}

func TestCircuitBreaker_Do(t *testing.T) {
	notFound := errors.New("not found")
	boom := errors.New("boom")
	cb := NewCircuitBreaker(2, time.Minute)
	ctx := context.Background()

	err := cb.Do(ctx, "store", func() error { return notFound }, notFound)
	assert.ErrorIs(t, err, notFound)
	assert.Equal(t, CircuitClosed, cb.State("store"), "ignored errors are not failures")

	_ = cb.Do(ctx, "store", func() error { return boom })
	_ = cb.Do(ctx, "store", func() error { return boom })

	called := false
	err = cb.Do(ctx, "store", func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

// --- Idempotency Guard Tests ---

func TestIdempotencyGuard_AllowsFirst(t *testing.T) {
	ig := NewIdempotencyGuard(0)
	assert.True(t, ig.Check(context.Background(), "req-123").Allowed)
}

func TestIdempotencyGuard_BlocksDuplicate(t *testing.T) {
	ig := NewIdempotencyGuard(0)
	ctx := context.Background()

	ig.Check(ctx, "req-123")
	result := ig.Check(ctx, "req-123")

	assert.False(t, result.Allowed)
	assert.Equal(t, "idempotency", result.Guard)
}

func TestIdempotencyGuard_EmptyKeyAllowed(t *testing.T) {
	ig := NewIdempotencyGuard(0)
	ctx := context.Background()

	assert.True(t, ig.Check(ctx, "").Allowed)
	assert.True(t, ig.Check(ctx, "").Allowed)
}

func TestIdempotencyGuard_RemoveAllowsRetry(t *testing.T) {
	ig := NewIdempotencyGuard(0)
	ctx := context.Background()

	ig.Check(ctx, "req-456")
	ig.Remove("req-456")

	require.True(t, ig.Check(ctx, "req-456").Allowed)
}

func TestIdempotencyGuard_RetentionExpires(t *testing.T) {
	clock := newClock()
	ig := NewIdempotencyGuard(time.Hour)
	ig.now = clock.now
	ctx := context.Background()

	require.True(t, ig.Check(ctx, "req").Allowed)
	require.False(t, ig.Check(ctx, "req").Allowed)

	clock.advance(2 * time.Hour)
	assert.True(t, ig.Check(ctx, "req").Allowed)
}
