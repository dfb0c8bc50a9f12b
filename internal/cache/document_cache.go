package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront/internal/storage"
)

const (
	cachePrefix    = "storefront:cache:"
	notFoundMarker = "notfound"
	notFoundTTL    = time.Minute
)

// CachedBackend is a read-through redis cache in front of a slower
// durable backend. Redis failures are logged and never surface to the
// caller; the durable backend stays the source of truth.
//
// The repositories read their documents once at startup and keep them in
// memory, so Get is hit on process start and by the smoke driver, not per
// request. Several processes sharing one postgres still start warm.
type CachedBackend struct {
	realBackend storage.Backend
	redis       *redis.Client
	ttl         time.Duration
}

func NewCachedBackend(realBackend storage.Backend, rdb *redis.Client, ttl time.Duration) *CachedBackend {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedBackend{
		realBackend: realBackend,
		redis:       rdb,
		ttl:         ttl,
	}
}

func (c *CachedBackend) Get(ctx context.Context, key string) ([]byte, error) {
	cacheKey := cachePrefix + key

	data, err := c.redis.Get(ctx, cacheKey).Bytes()
	switch {
	case err == nil:
		if string(data) == notFoundMarker {
			return nil, storage.ErrNotFound
		}
		return data, nil

	case errors.Is(err, redis.Nil):

	default:
		slog.WarnContext(ctx, "redis error, continuing with backend", "key", key, "error", err)
	}

	data, err = c.realBackend.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			if setErr := c.redis.Set(ctx, cacheKey, notFoundMarker, notFoundTTL).Err(); setErr != nil {
				slog.WarnContext(ctx, "failed to cache notfound", "key", key, "error", setErr)
			}
		}
		return nil, err
	}

	if err := c.redis.Set(ctx, cacheKey, data, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "failed to cache document", "key", key, "error", err)
	}

	return data, nil
}

// Set writes through to the backend. The cached copy is dropped after
// every write attempt.
func (c *CachedBackend) Set(ctx context.Context, key string, value []byte) error {
	err := c.realBackend.Set(ctx, key, value)
	c.invalidate(ctx, key)
	return err
}

func (c *CachedBackend) invalidate(ctx context.Context, key string) {
	if err := c.redis.Del(ctx, cachePrefix+key).Err(); err != nil {
		slog.WarnContext(ctx, "failed to delete cached document", "key", key, "error", err)
	}
}

func (c *CachedBackend) Close() error {
	err := c.realBackend.Close()
	if closeErr := c.redis.Close(); err == nil {
		err = closeErr
	}
	return err
}
