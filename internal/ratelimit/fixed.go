// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ratelimit

import (
	"context"
	"sync"
	"time"
)

// window is one key's counter. Its mutex is the only lock taken per request.
//
// A retired window has been removed from the map by Sweep and must not count
// further requests.
type window struct {
	mu      sync.Mutex
	count   int
	resetAt time.Time
	retired bool
}

// FixedWindow counts requests per key in fixed windows held in process memory.
//
// The request that makes the count exceed the limit is the first one rejected,
// so with a limit of 100 the 101st request in a window fails.
type FixedWindow struct {
	limit   int
	period  time.Duration
	now     func() time.Time
	windows sync.Map // string -> *window
}

// NewFixedWindow creates a limiter admitting limit requests per period and key.
func NewFixedWindow(limit int, period time.Duration) *FixedWindow {
	return &FixedWindow{limit: limit, period: period, now: time.Now}
}

// WithClock returns a limiter sharing no state, using clock as its time source.
func (limiter *FixedWindow) WithClock(clock func() time.Time) *FixedWindow {
	return &FixedWindow{limit: limiter.limit, period: limiter.period, now: clock}
}

// Allow records one request for key. It never fails.
func (limiter *FixedWindow) Allow(_ context.Context, key string) (Decision, error) {
	now := limiter.now()

	for {
		value, _ := limiter.windows.LoadOrStore(key, &window{resetAt: now.Add(limiter.period)})
		if decision, counted := limiter.hit(value.(*window), now); counted {
			return decision, nil
		}
	}
}

// hit counts one request against counter. It reports false when Sweep retired
// the window after it was loaded, so the caller retries with the live one.
func (limiter *FixedWindow) hit(counter *window, now time.Time) (Decision, bool) {
	counter.mu.Lock()
	defer counter.mu.Unlock()

	if counter.retired {
		return Decision{}, false
	}

	// Lazy reset
	if !now.Before(counter.resetAt) {
		counter.count = 0
		counter.resetAt = now.Add(limiter.period)
	}
	counter.count++

	decision := Decision{
		Allowed:   counter.count <= limiter.limit,
		Limit:     limiter.limit,
		Remaining: remaining(limiter.limit, counter.count),
	}
	if !decision.Allowed {
		decision.RetryAfter = counter.resetAt.Sub(now)
	}
	return decision, true
}

// Sweep drops windows that elapsed before now and returns how many were removed.
func (limiter *FixedWindow) Sweep(now time.Time) int {
	removed := 0
	limiter.windows.Range(func(key, value any) bool {
		counter := value.(*window)

		counter.mu.Lock()
		if !now.Before(counter.resetAt) && limiter.windows.CompareAndDelete(key, value) {
			counter.retired = true
			removed++
		}
		counter.mu.Unlock()
		return true
	})
	return removed
}
