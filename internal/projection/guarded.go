package projection

import (
	"context"
	"time"

	"github.com/attaboy/academy/internal/guard"
)

// GuardedStore fails fast through a circuit breaker while the backing store is down.
// A missing key is a normal answer and never trips the circuit.
type GuardedStore struct {
	inner   Store
	breaker *guard.CircuitBreaker
	name    string
}

// NewGuardedStore wraps inner. name keys the circuit, e.g. "redis".
func NewGuardedStore(inner Store, breaker *guard.CircuitBreaker, name string) *GuardedStore {
	return &GuardedStore{inner: inner, breaker: breaker, name: name}
}

func (s *GuardedStore) Get(ctx context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.breaker.Do(ctx, s.name, func() error {
		var err error
		out, err = s.inner.Get(ctx, key)
		return err
	}, ErrNotFound)
	return out, err
}

func (s *GuardedStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.breaker.Do(ctx, s.name, func() error {
		return s.inner.Set(ctx, key, value, ttl)
	})
}

func (s *GuardedStore) Delete(ctx context.Context, key string) error {
	return s.breaker.Do(ctx, s.name, func() error {
		return s.inner.Delete(ctx, key)
	})
}
