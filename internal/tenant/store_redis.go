// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/storehub/internal/platform/constants"
	"github.com/taibuivan/storehub/internal/platform/metrics"
)

// RedisCache is a read-through [Repository] decorator keeping tenant
// snapshots in Redis for a short TTL.
//
// The cache is never authoritative. Redis failures are logged and the lookup
// falls through to the wrapped repository; unknown identifiers are not cached.
type RedisCache struct {
	client  redis.UniversalClient
	next    Repository
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Registry
}

// NewRedisCache wraps next with a Redis read-through cache.
func NewRedisCache(client redis.UniversalClient, next Repository, ttl time.Duration, logger *slog.Logger, registry *metrics.Registry) *RedisCache {
	return &RedisCache{client: client, next: next, ttl: ttl, logger: logger, metrics: registry}
}

/*
FindByIdentifier serves the snapshot from Redis when present.

Parameters:
  - context: context.Context
  - identifier: string

Returns:
  - *Tenant: Cached or freshly loaded tenant
  - error: ErrNotFound or repository failures
*/
func (cache *RedisCache) FindByIdentifier(context context.Context, identifier string) (*Tenant, error) {
	key := cacheKey(identifier)

	// 1. Cache lookup
	raw, err := cache.client.Get(context, key).Bytes()
	switch {
	case err == nil:
		var cached Tenant
		if decodeErr := json.Unmarshal(raw, &cached); decodeErr == nil {
			cache.observe("hit")
			return &cached, nil
		}
		cache.logger.WarnContext(context, "tenant_cache_decode_failed", slog.String("key", key))
		cache.observe("error")
	case errors.Is(err, redis.Nil):
		cache.observe("miss")
	default:
		cache.logger.WarnContext(context, "tenant_cache_get_failed", slog.String("key", key), slog.Any("error", err))
		cache.observe("error")
	}

	// 2. Authoritative lookup
	tenant, err := cache.next.FindByIdentifier(context, identifier)
	if err != nil {
		return nil, err
	}

	// 3. Populate (best-effort)
	if encoded, encodeErr := json.Marshal(tenant); encodeErr == nil {
		if setErr := cache.client.Set(context, key, encoded, cache.ttl).Err(); setErr != nil {
			cache.logger.WarnContext(context, "tenant_cache_set_failed", slog.String("key", key), slog.Any("error", setErr))
		}
	}

	return tenant, nil
}

// Invalidate evicts cached snapshots for the given identifiers.
func (cache *RedisCache) Invalidate(context context.Context, identifiers ...string) error {
	if len(identifiers) == 0 {
		return nil
	}

	keys := make([]string, 0, len(identifiers))
	for _, identifier := range identifiers {
		keys = append(keys, cacheKey(identifier))
	}

	if err := cache.client.Del(context, keys...).Err(); err != nil {
		return err
	}
	return nil
}

func (cache *RedisCache) observe(result string) {
	if cache.metrics != nil {
		cache.metrics.TenantCacheTotal.WithLabelValues(result).Inc()
	}
}

func cacheKey(identifier string) string {
	return constants.RedisPrefixTenant + NormalizeIdentifier(identifier)
}
