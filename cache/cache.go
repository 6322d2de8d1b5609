// Package cache holds the time-boxed fetch cache used in front of the NHL API.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	RedisBackend  = "redis"
	MemoryBackend = "memory"
)

var ErrCacheMiss = errors.New("cache: key not found")

// Cache is a typed key/value store with per-entry TTL.
type Cache[V any] interface {
	// Get returns the value or ErrCacheMiss.
	Get(ctx context.Context, key string) (V, error)
	// Set stores value under key. Zero ttl means no expiration.
	Set(ctx context.Context, key string, value V, ttl time.Duration) error
	// Delete removes the key.
	Delete(ctx context.Context, key string) error
	// Clear drops every entry this cache owns.
	Clear(ctx context.Context) error
}

// GetOrFetch returns the cached value for key, or calls fetch and caches its result for ttl.
// Backend failures are logged and treated as a miss so that the cache never blocks a fetch.
func GetOrFetch[V any](ctx context.Context, c Cache[V], key string, ttl time.Duration, fetch func(context.Context) (V, error)) (V, error) {
	value, err := c.Get(ctx, key)
	if err == nil {
		return value, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		log.WithFields(log.Fields{
			"key":   key,
			"error": err,
		}).Warn("Cache read failed, fetching from source")
	}

	value, err = fetch(ctx)
	if err != nil {
		var zero V
		return zero, err
	}

	if err := c.Set(ctx, key, value, ttl); err != nil {
		log.WithFields(log.Fields{
			"key":   key,
			"error": err,
		}).Warn("Cache write failed")
	}
	return value, nil
}

// Key joins parts into a namespaced cache key
func Key(parts ...any) string {
	key := ""
	for i, part := range parts {
		if i > 0 {
			key += ":"
		}
		key += fmt.Sprint(part)
	}
	return key
}
