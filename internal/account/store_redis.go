// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/storehub/internal/platform/constants"
)

// RedisSessionCache is a [Repository] decorator caching session lookups.
//
// Cached records may lag the database by at most the TTL, which only affects
// the precision of the idle-timeout check. Revocation evicts immediately.
// Password hashes are never written to Redis.
type RedisSessionCache struct {
	Repository

	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisSessionCache wraps next with a Redis read-through session cache.
func NewRedisSessionCache(client redis.UniversalClient, next Repository, ttl time.Duration, logger *slog.Logger) *RedisSessionCache {
	return &RedisSessionCache{Repository: next, client: client, ttl: ttl, logger: logger}
}

/*
FindSession serves the record from Redis when present.

Description: Redis failures are logged and the lookup falls through to the
wrapped repository. Unknown sessions are not cached.

Parameters:
  - context: context.Context
  - sessionID: string

Returns:
  - *SessionRecord: Cached or freshly loaded record
  - error: ErrSessionNotFound or repository failures
*/
func (cache *RedisSessionCache) FindSession(context context.Context, sessionID string) (*SessionRecord, error) {
	key := sessionKey(sessionID)

	raw, err := cache.client.Get(context, key).Bytes()
	switch {
	case err == nil:
		var record SessionRecord
		if decodeErr := json.Unmarshal(raw, &record); decodeErr == nil {
			return &record, nil
		}
		cache.logger.WarnContext(context, "session_cache_decode_failed", slog.String("key", key))
	case !errors.Is(err, redis.Nil):
		cache.logger.WarnContext(context, "session_cache_get_failed", slog.String("key", key), slog.Any("error", err))
	}

	record, err := cache.Repository.FindSession(context, sessionID)
	if err != nil {
		return nil, err
	}

	if encoded, encodeErr := json.Marshal(record); encodeErr == nil {
		if setErr := cache.client.Set(context, key, encoded, cache.ttl).Err(); setErr != nil {
			cache.logger.WarnContext(context, "session_cache_set_failed", slog.String("key", key), slog.Any("error", setErr))
		}
	}

	return record, nil
}

// RevokeSession revokes in the wrapped repository, then evicts the cache entry.
func (cache *RedisSessionCache) RevokeSession(context context.Context, sessionID string, at time.Time) error {
	if err := cache.Repository.RevokeSession(context, sessionID, at); err != nil {
		return err
	}
	return cache.Evict(context, sessionID)
}

// Evict drops a cached session record.
func (cache *RedisSessionCache) Evict(context context.Context, sessionID string) error {
	if err := cache.client.Del(context, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis_session_evict_failed: %w", err)
	}
	return nil
}

func sessionKey(sessionID string) string {
	return constants.RedisPrefixSession + sessionID
}
