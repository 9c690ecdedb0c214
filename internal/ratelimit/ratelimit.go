// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package ratelimit provides per-key request limiters for the edge of the pipeline.

Strategies:

  - FixedWindow: In-process counters, reset lazily when a window elapses.
  - RedisFixedWindow: The same semantics shared across replicas through Redis.
  - TokenBucket: Smooth refill using golang.org/x/time/rate.

Limiters are plain values injected into the pipeline; nothing here is global.
*/
package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/taibuivan/storehub/internal/platform/safego"
)

// Decision is the outcome of one admission check.
type Decision struct {
	// Allowed reports whether the request may proceed.
	Allowed bool

	// Limit is the configured maximum per window.
	Limit int

	// Remaining is the number of requests still admitted in the current window.
	Remaining int

	// RetryAfter is the time until the key is admitted again. Zero when allowed.
	RetryAfter time.Duration
}

// Limiter admits or rejects a request attributed to key.
//
// Implementations backed by remote state return an allowing [Decision] together
// with a non-nil error when they cannot decide.
type Limiter interface {
	Allow(context context.Context, key string) (Decision, error)
}

// RetryAfterSeconds rounds a retry delay up to whole seconds, never below one.
func RetryAfterSeconds(delay time.Duration) int {
	seconds := int((delay + time.Second - 1) / time.Second)
	if seconds < 1 {
		return 1
	}
	return seconds
}

func remaining(limit, count int) int {
	if count >= limit {
		return 0
	}
	return limit - count
}

// Sweeper is implemented by in-process limiters that accumulate per-key state.
type Sweeper interface {
	Sweep(now time.Time) int
}

// StartJanitor sweeps limiter every interval until context is cancelled.
func StartJanitor(context context.Context, limiter Sweeper, interval time.Duration, logger *slog.Logger) {
	safego.Go(logger, "ratelimit_janitor", func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case tick := <-ticker.C:
				if removed := limiter.Sweep(tick); removed > 0 {
					logger.Debug("ratelimit_keys_swept", slog.Int("removed", removed))
				}
			case <-context.Done():
				return
			}
		}
	})
}
