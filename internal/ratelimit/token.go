// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// TokenBucket admits bursts of up to limit requests, refilling at limit per period.
type TokenBucket struct {
	limit   int
	period  time.Duration
	every   rate.Limit
	now     func() time.Time
	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewTokenBucket creates a token-bucket limiter with limit tokens per period.
func NewTokenBucket(limit int, period time.Duration) *TokenBucket {
	return &TokenBucket{
		limit:   limit,
		period:  period,
		every:   rate.Limit(float64(limit) / period.Seconds()),
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// WithClock returns a limiter sharing no state, using clock as its time source.
func (limiter *TokenBucket) WithClock(clock func() time.Time) *TokenBucket {
	clone := NewTokenBucket(limiter.limit, limiter.period)
	clone.now = clock
	return clone
}

// Allow takes one token for key. It never fails.
func (limiter *TokenBucket) Allow(_ context.Context, key string) (Decision, error) {
	now := limiter.now()

	limiter.mu.Lock()
	entry, found := limiter.buckets[key]
	if !found {
		entry = &bucket{limiter: rate.NewLimiter(limiter.every, limiter.limit)}
		limiter.buckets[key] = entry
	}
	entry.lastSeen = now
	limiter.mu.Unlock()

	allowed := entry.limiter.AllowN(now, 1)
	tokens := entry.limiter.TokensAt(now)

	decision := Decision{
		Allowed:   allowed,
		Limit:     limiter.limit,
		Remaining: max(int(tokens), 0),
	}
	if !allowed && limiter.every > 0 {
		missing := 1 - tokens
		decision.RetryAfter = time.Duration(missing / float64(limiter.every) * float64(time.Second))
	}
	return decision, nil
}

// Sweep drops buckets idle for a full period before now, which are refilled
// anyway, and returns how many were removed.
func (limiter *TokenBucket) Sweep(now time.Time) int {
	cutoff := now.Add(-limiter.period)

	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	removed := 0
	for key, entry := range limiter.buckets {
		if entry.lastSeen.Before(cutoff) {
			delete(limiter.buckets, key)
			removed++
		}
	}
	return removed
}
