package cache

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"messenger/internal/storage"
)

const objectURLPrefix = "object_url:"

// ObjectURLCache wraps an ObjectStorage and memoizes ResolveURL in Redis.
// Cache failures are logged and fall through to the wrapped store.
type ObjectURLCache struct {
	storage.ObjectStorage
	cache  *RedisCache
	ttl    time.Duration
	logger zerolog.Logger
}

func NewObjectURLCache(next storage.ObjectStorage, cache *RedisCache, ttl time.Duration, logger zerolog.Logger) *ObjectURLCache {
	return &ObjectURLCache{
		ObjectStorage: next,
		cache:         cache,
		ttl:           ttl,
		logger:        logger.With().Str("component", "object_url_cache").Logger(),
	}
}

func (c *ObjectURLCache) ResolveURL(ctx context.Context, ref string) (string, error) {
	key := objectURLPrefix + ref
	if v, err := c.cache.Get(ctx, key); err == nil {
		return v, nil
	} else if !errors.Is(err, ErrMiss) {
		c.logger.Warn().Err(err).Str("ref", ref).Msg("cache read failed")
	}

	u, err := c.ObjectStorage.ResolveURL(ctx, ref)
	if err != nil {
		return "", err
	}
	if err := c.cache.Set(ctx, key, u, c.ttl); err != nil {
		c.logger.Warn().Err(err).Str("ref", ref).Msg("cache write failed")
	}
	return u, nil
}

func (c *ObjectURLCache) Delete(ctx context.Context, ref string) error {
	if err := c.cache.Delete(ctx, objectURLPrefix+ref); err != nil {
		c.logger.Warn().Err(err).Str("ref", ref).Msg("cache invalidation failed")
	}
	return c.ObjectStorage.Delete(ctx, ref)
}
