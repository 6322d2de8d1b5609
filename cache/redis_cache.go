package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions holds client settings shared by every namespaced cache.
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	OpTimeout time.Duration // per-call timeout; defaulted if zero
}

// NewRedisClient connects and pings Redis.
func NewRedisClient(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", opts.Addr, err)
	}
	return client, nil
}

// RedisCache stores JSON-encoded values under "<namespace>:<key>".
type RedisCache[V any] struct {
	client    *redis.Client
	namespace string
	opTimeout time.Duration
}

// NewRedisCache wraps a shared client. Clear only touches keys under namespace.
func NewRedisCache[V any](client *redis.Client, namespace string, opTimeout time.Duration) *RedisCache[V] {
	if opTimeout == 0 {
		opTimeout = 200 * time.Millisecond
	}
	return &RedisCache[V]{
		client:    client,
		namespace: namespace,
		opTimeout: opTimeout,
	}
}

func (r *RedisCache[V]) key(key string) string {
	return r.namespace + ":" + key
}

func (r *RedisCache[V]) Get(ctx context.Context, key string) (V, error) {
	var zero V
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, ErrCacheMiss
	} else if err != nil {
		return zero, err
	}

	var val V
	if err := json.Unmarshal(data, &val); err != nil {
		return zero, fmt.Errorf("failed to decode cached %s: %w", key, err)
	}
	return val, nil
}

func (r *RedisCache[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s for cache: %w", key, err)
	}
	return r.client.Set(ctx, r.key(key), data, ttl).Err()
}

func (r *RedisCache[V]) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()
	return r.client.Del(ctx, r.key(key)).Err()
}

// Clear scans the namespace and deletes what it finds. Not bounded by opTimeout.
func (r *RedisCache[V]) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.namespace+":*", 100).Iterator()
	batch := make([]string, 0, 100)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("failed to clear %s: %w", r.namespace, err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan %s: %w", r.namespace, err)
	}
	if len(batch) > 0 {
		if err := r.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("failed to clear %s: %w", r.namespace, err)
		}
	}
	return nil
}

// New builds a cache for the configured backend. client is only used by the redis backend.
func New[V any](backend string, client *redis.Client, namespace string) (Cache[V], error) {
	switch backend {
	case RedisBackend:
		if client == nil {
			return nil, fmt.Errorf("redis backend requires a client")
		}
		return NewRedisCache[V](client, namespace, 0), nil
	case MemoryBackend, "":
		return NewMemoryCache[V](), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}
