// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/storehub/internal/platform/constants"
)

// RedisFixedWindow implements fixed-window counting shared by every replica.
//
// The window starts at the first request for a key (INCR creating the key sets
// its PEXPIRE), so windows are per-key rather than aligned to the wall clock.
type RedisFixedWindow struct {
	client redis.UniversalClient
	limit  int
	period time.Duration
}

// NewRedisFixedWindow creates a Redis-backed fixed-window limiter.
func NewRedisFixedWindow(client redis.UniversalClient, limit int, period time.Duration) *RedisFixedWindow {
	return &RedisFixedWindow{client: client, limit: limit, period: period}
}

/*
Allow records one request for key.

Parameters:
  - context: context.Context
  - key: string

Returns:
  - Decision: Admission outcome; allowing when Redis is unavailable
  - error: Redis failures
*/
func (limiter *RedisFixedWindow) Allow(context context.Context, key string) (Decision, error) {
	redisKey := constants.RedisPrefixRateLimit + key

	// 1. Count and read the remaining lifetime in one round-trip
	pipe := limiter.client.TxPipeline()
	incr := pipe.Incr(context, redisKey)
	ttl := pipe.PTTL(context, redisKey)
	if _, err := pipe.Exec(context); err != nil {
		return limiter.failOpen(), fmt.Errorf("redis_ratelimit_incr_failed: %w", err)
	}

	count := int(incr.Val())
	lifetime := ttl.Val()

	// 2. Start the window on first hit, or repair a key that lost its expiry
	if count == 1 || lifetime < 0 {
		if err := limiter.client.PExpire(context, redisKey, limiter.period).Err(); err != nil {
			return limiter.failOpen(), fmt.Errorf("redis_ratelimit_expire_failed: %w", err)
		}
		lifetime = limiter.period
	}

	decision := Decision{
		Allowed:   count <= limiter.limit,
		Limit:     limiter.limit,
		Remaining: remaining(limiter.limit, count),
	}
	if !decision.Allowed {
		decision.RetryAfter = lifetime
	}
	return decision, nil
}

func (limiter *RedisFixedWindow) failOpen() Decision {
	return Decision{Allowed: true, Limit: limiter.limit, Remaining: limiter.limit}
}
