// Package cache implements a time-boxed value cache with stale fallback.
//
// Values are served from memory while younger than the TTL. Expired
// entries are re-fetched, and when a re-fetch fails the last known value
// is returned instead, however old it is. Stale data beats no data.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// FetchFunc produces a fresh value for a cache key.
type FetchFunc[T any] func(ctx context.Context) (T, error)

type entry[T any] struct {
	value     T
	timestamp time.Time
}

// Cache holds one value per key with the timestamp it was fetched at.
//
// Entries are replaced whole on every successful fetch, so overlapping
// fetches for the same key settle last-write-wins with no partial state.
type Cache[T any] struct {
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time
	log     zerolog.Logger

	mu      sync.Mutex
	entries map[string]entry[T]
}

// New creates a cache serving values no older than ttl, giving each
// fetch the given timeout.
func New[T any](ttl, timeout time.Duration, log zerolog.Logger) *Cache[T] {
	return &Cache[T]{
		ttl:     ttl,
		timeout: timeout,
		now:     time.Now,
		log:     log.With().Str("component", "cache").Logger(),
		entries: map[string]entry[T]{},
	}
}

// WithClock replaces the cache's time source, for tests.
func (c *Cache[T]) WithClock(now func() time.Time) *Cache[T] {
	c.now = now

	return c
}

// Get returns the value for a key, fetching it if the cached entry is
// missing or has outlived the TTL.
//
// `stale` is true when the returned value is older than the TTL because
// the fetch failed. `ok` is false only when the fetch failed and no
// prior value exists; absence of data is a valid outcome, and no fetch
// error ever escapes this method.
func (c *Cache[T]) Get(ctx context.Context, key string, fetch FetchFunc[T]) (value T, stale bool, ok bool) {
	now := c.now()

	c.mu.Lock()
	cached, exists := c.entries[key]
	c.mu.Unlock()

	if exists && now.Sub(cached.timestamp) < c.ttl {
		return cached.value, false, true
	}

	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	fetched, err := fetch(fetchCtx)

	if err != nil {
		if exists {
			c.log.Warn().
				Err(err).
				Str("key", key).
				Time("fetched_at", cached.timestamp).
				Msg("Fetch failed, serving stale value")

			return cached.value, true, true
		}

		c.log.Warn().Err(err).Str("key", key).Msg("Fetch failed with no cached value")

		return value, true, false
	}

	c.mu.Lock()
	c.entries[key] = entry[T]{value: fetched, timestamp: c.now()}
	c.mu.Unlock()

	return fetched, false, true
}
