package cache

import (
	"context"
	"sync"
	"time"
)

type item[V any] struct {
	value      V
	expiration int64 // Unix nanoseconds; zero = no expire
}

// MemoryCache is a process-local Cache. Expired entries are dropped on read and by a janitor.
type MemoryCache[V any] struct {
	mu    sync.Mutex
	items map[string]item[V]
	now   func() time.Time
	quit  chan struct{}
}

// NewMemoryCache creates a cache with a one minute janitor.
func NewMemoryCache[V any]() *MemoryCache[V] {
	return NewMemoryCacheWithOptions[V](time.Minute, time.Now)
}

// NewMemoryCacheWithOptions allows customizing the janitor interval and the clock.
func NewMemoryCacheWithOptions[V any](janitorInterval time.Duration, now func() time.Time) *MemoryCache[V] {
	mc := &MemoryCache[V]{
		items: make(map[string]item[V]),
		now:   now,
		quit:  make(chan struct{}),
	}
	if janitorInterval > 0 {
		go mc.startJanitor(janitorInterval)
	}
	return mc
}

// Stop terminates the janitor goroutine.
func (mc *MemoryCache[V]) Stop() {
	select {
	case <-mc.quit:
	default:
		close(mc.quit)
	}
}

func (mc *MemoryCache[V]) Get(_ context.Context, key string) (V, error) {
	var zero V
	now := mc.now().UnixNano()

	mc.mu.Lock()
	defer mc.mu.Unlock()

	itm, ok := mc.items[key]
	if !ok {
		return zero, ErrCacheMiss
	}
	if itm.expiration > 0 && now > itm.expiration {
		delete(mc.items, key)
		return zero, ErrCacheMiss
	}
	return itm.value, nil
}

func (mc *MemoryCache[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	var exp int64
	if ttl > 0 {
		exp = mc.now().Add(ttl).UnixNano()
	}
	mc.mu.Lock()
	mc.items[key] = item[V]{value: value, expiration: exp}
	mc.mu.Unlock()
	return nil
}

func (mc *MemoryCache[V]) Delete(_ context.Context, key string) error {
	mc.mu.Lock()
	delete(mc.items, key)
	mc.mu.Unlock()
	return nil
}

func (mc *MemoryCache[V]) Clear(_ context.Context) error {
	mc.mu.Lock()
	mc.items = make(map[string]item[V])
	mc.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired or not.
func (mc *MemoryCache[V]) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return len(mc.items)
}

func (mc *MemoryCache[V]) startJanitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := mc.now().UnixNano()
			mc.mu.Lock()
			for k, itm := range mc.items {
				if itm.expiration > 0 && now > itm.expiration {
					delete(mc.items, k)
				}
			}
			mc.mu.Unlock()
		case <-mc.quit:
			return
		}
	}
}
