// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ratelimit_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/storehub/internal/ratelimit"
)

// fakeClock is a settable time source shared with the limiter under test.
type fakeClock struct {
	mu      sync.Mutex
	current time.Time
}

func (clock *fakeClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.current
}

func (clock *fakeClock) Advance(delta time.Duration) {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	clock.current = clock.current.Add(delta)
}

func newClock() *fakeClock {
	return &fakeClock{current: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
}

/*
TestFixedWindow_HundredAndFirstRejected admits exactly the limit, then recovers
after the window.
*/
func TestFixedWindow_HundredAndFirstRejected(t *testing.T) {
	clock := newClock()
	limiter := ratelimit.NewFixedWindow(100, 15*time.Minute).WithClock(clock.Now)
	ctx := context.Background()

	for i := 1; i <= 100; i++ {
		decision, err := limiter.Allow(ctx, "203.0.113.7")
		require.NoError(t, err)
		require.True(t, decision.Allowed, "request %d", i)
		assert.Equal(t, 100-i, decision.Remaining)
	}

	clock.Advance(5 * time.Minute)
	decision, _ := limiter.Allow(ctx, "203.0.113.7")
	assert.False(t, decision.Allowed)
	assert.Equal(t, 0, decision.Remaining)
	assert.Equal(t, 10*time.Minute, decision.RetryAfter)

	// 1. Other keys are unaffected
	other, _ := limiter.Allow(ctx, "198.51.100.1")
	assert.True(t, other.Allowed)

	// 2. Lazy reset once the window elapsed
	clock.Advance(10 * time.Minute)
	decision, _ = limiter.Allow(ctx, "203.0.113.7")
	assert.True(t, decision.Allowed)
	assert.Equal(t, 99, decision.Remaining)
}

/*
TestFixedWindow_Concurrent never admits more than the limit under contention.
*/
func TestFixedWindow_Concurrent(t *testing.T) {
	limiter := ratelimit.NewFixedWindow(50, time.Hour)

	var admitted atomic.Int64
	var group sync.WaitGroup
	for range 200 {
		group.Add(1)
		go func() {
			defer group.Done()
			if decision, _ := limiter.Allow(context.Background(), "shared"); decision.Allowed {
				admitted.Add(1)
			}
		}()
	}
	group.Wait()

	assert.Equal(t, int64(50), admitted.Load())
}

/*
TestFixedWindow_Sweep removes only elapsed windows.
*/
func TestFixedWindow_Sweep(t *testing.T) {
	clock := newClock()
	limiter := ratelimit.NewFixedWindow(10, time.Minute).WithClock(clock.Now)

	_, _ = limiter.Allow(context.Background(), "old")
	clock.Advance(45 * time.Second)
	_, _ = limiter.Allow(context.Background(), "fresh")

	clock.Advance(30 * time.Second)
	assert.Equal(t, 1, limiter.Sweep(clock.Now()))
}

/*
TestRedisFixedWindow shares the counter through Redis and expires the window.
*/
func TestRedisFixedWindow(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	first := ratelimit.NewRedisFixedWindow(client, 3, time.Minute)
	second := ratelimit.NewRedisFixedWindow(client, 3, time.Minute)
	ctx := context.Background()

	for _, limiter := range []*ratelimit.RedisFixedWindow{first, second, first} {
		decision, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
	}

	decision, err := second.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, 0, decision.Remaining)
	assert.Greater(t, decision.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, decision.RetryAfter, time.Minute)

	server.FastForward(time.Minute + time.Second)
	decision, err = first.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 2, decision.Remaining)
}

/*
TestRedisFixedWindow_FailsOpen allows traffic when Redis is unreachable.
*/
func TestRedisFixedWindow_FailsOpen(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	server.Close()

	decision, err := ratelimit.NewRedisFixedWindow(client, 3, time.Minute).Allow(context.Background(), "10.0.0.1")
	assert.Error(t, err)
	assert.True(t, decision.Allowed)
}

/*
TestTokenBucket admits a burst, then refills over time.
*/
func TestTokenBucket(t *testing.T) {
	clock := newClock()
	limiter := ratelimit.NewTokenBucket(4, time.Minute).WithClock(clock.Now)
	ctx := context.Background()

	for range 4 {
		decision, err := limiter.Allow(ctx, "k")
		require.NoError(t, err)
		require.True(t, decision.Allowed)
	}

	decision, _ := limiter.Allow(ctx, "k")
	assert.False(t, decision.Allowed)
	assert.InDelta(t, float64(15*time.Second), float64(decision.RetryAfter), float64(time.Second))

	clock.Advance(15 * time.Second)
	decision, _ = limiter.Allow(ctx, "k")
	assert.True(t, decision.Allowed)

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 1, limiter.Sweep(clock.Now()))
}

/*
TestRetryAfterSeconds rounds up and never reports zero.
*/
func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 1, ratelimit.RetryAfterSeconds(0))
	assert.Equal(t, 1, ratelimit.RetryAfterSeconds(300*time.Millisecond))
	assert.Equal(t, 2, ratelimit.RetryAfterSeconds(1001*time.Millisecond))
	assert.Equal(t, 900, ratelimit.RetryAfterSeconds(15*time.Minute))
}
