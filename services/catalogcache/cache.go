package catalogcache

import (
	"context"
	"sync"
	"time"

	"github.com/centralshop/storebackend/lib/mytime"
)

type entry[T any] struct {
	value     T
	writtenAt time.Time
}

// Cache is a bounded TTL cache with lazy refresh on read. A stale entry is
// refreshed before being served; when the refresh fails the stale value is
// served instead. Past capacity the oldest inserted key is evicted.
type Cache[T any] struct {
	mutex      sync.Mutex
	entries    map[string]entry[T]
	insertions []string
	ttl        time.Duration
	maxEntries int
	nower      mytime.Nower
}

func New[T any](ttl time.Duration, maxEntries int, nower mytime.Nower) *Cache[T] {
	return &Cache[T]{
		entries:    map[string]entry[T]{},
		ttl:        ttl,
		maxEntries: maxEntries,
		nower:      nower,
	}
}

// Read returns the cached value for key, calling refresh when the entry is
// missing or older than the ttl. The error is non-nil only when no usable
// entry exists at all.
func (ch *Cache[T]) Read(c context.Context, key string, refresh func(c context.Context) (T, error)) (T, error) {
	now := ch.nower.Now()

	ch.mutex.Lock()
	cached, exists := ch.entries[key]
	ch.mutex.Unlock()

	if exists && now.Sub(cached.writtenAt) < ch.ttl {
		return cached.value, nil
	}

	value, err := refresh(c)
	if err != nil {
		if exists {
			// serve stale rather than fail
			return cached.value, nil
		}
		var zero T
		return zero, err
	}

	ch.store(key, value, now)

	return value, nil
}

func (ch *Cache[T]) store(key string, value T, now time.Time) {
	ch.mutex.Lock()
	defer ch.mutex.Unlock()

	_, exists := ch.entries[key]
	if !exists {
		if ch.maxEntries > 0 && len(ch.entries) >= ch.maxEntries {
			oldest := ch.insertions[0]
			ch.insertions = ch.insertions[1:]
			delete(ch.entries, oldest)
		}
		ch.insertions = append(ch.insertions, key)
	}

	ch.entries[key] = entry[T]{
		value:     value,
		writtenAt: now,
	}
}

func (ch *Cache[T]) Len() int {
	ch.mutex.Lock()
	defer ch.mutex.Unlock()

	return len(ch.entries)
}
