// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package secevent emits security-relevant rejections for monitoring and alerting.

Security events are named failure categories (failed authentication, permission
denial, rate limiting). They are distinct from the audit trail, which records
the outcome of every request.

Emission is fire-and-forget: [Log.Record] copies the event into a bounded buffer
and returns immediately. A single worker writes buffered events to a dedicated
slog stream and Prometheus counters. When the buffer is full the event is
dropped and counted, never blocking the request.
*/
package secevent

import (
	"context"
	"log/slog"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/taibuivan/storehub/internal/platform/metrics"
)

// # Severity

// Severity ranks how urgently an event needs attention.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// level maps a severity onto the slog level used for the security stream.
func (s Severity) level() slog.Level {
	switch s {
	case SeverityLow:
		return slog.LevelInfo
	case SeverityCritical:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// # Event Names

// Event names emitted by the authorization pipeline.
const (
	EventTenantResolutionFailed    = "tenant_resolution_failed"
	EventInactiveTenantAccess      = "inactive_tenant_access_attempt"
	EventExpiredSubscriptionAccess = "expired_subscription_access_attempt"
	EventUnauthorizedSectorAttempt = "unauthorized_sector_access_attempt"
	EventAuthenticationFailed      = "authentication_failed"
	EventUnauthorizedAccessAttempt = "unauthorized_access_attempt"
	EventUnauthorizedSectorAccess  = "unauthorized_sector_access"
	EventUnauthorizedPermission    = "unauthorized_permission_access"
	EventUnauthorizedRoleAccess    = "unauthorized_role_access"
	EventTwoFactorRequired         = "two_factor_required"
	EventRateLimitExceeded         = "rate_limit_exceeded"
	EventCrossTenantAccess         = "cross_tenant_access_attempt"
)

// # Records

// Details is the free-form payload attached to an event.
type Details map[string]any

// Event is one security record.
type Event struct {
	Name       string
	Severity   Severity
	Details    Details
	OccurredAt time.Time
}

// Recorder is the emission contract consumed by the pipeline stages.
type Recorder interface {
	Record(name string, details Details, severity Severity)
}

// # Buffered Log

// Log is the production [Recorder].
type Log struct {
	events  chan Event
	quit    chan struct{}
	done    chan struct{}
	logger  *slog.Logger
	metrics *metrics.Registry
	now     func() time.Time

	closed    atomic.Bool
	closeOnce sync.Once
}

// NewLog starts a security event log with the given buffer capacity.
//
// # Parameters
//   - logger: Base logger; records are tagged with stream=security.
//   - registry: Prometheus collectors (may be nil in tests).
//   - buffer: Maximum number of pending events before drops begin.
func NewLog(logger *slog.Logger, registry *metrics.Registry, buffer int) *Log {
	if buffer < 1 {
		buffer = 1
	}

	log := &Log{
		events:  make(chan Event, buffer),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
		logger:  logger.With(slog.String("stream", "security")),
		metrics: registry,
		now:     time.Now,
	}

	go log.run()
	return log
}

// Record enqueues an event without blocking. It never panics into the caller.
func (log *Log) Record(name string, details Details, severity Severity) {
	defer func() {
		if recovered := recover(); recovered != nil {
			log.logger.Error("security_event_record_panic", slog.Any("panic", recovered))
		}
	}()

	if log.closed.Load() {
		log.dropped()
		return
	}

	event := Event{
		Name:       name,
		Severity:   severity,
		Details:    maps.Clone(details),
		OccurredAt: log.now(),
	}

	select {
	case log.events <- event:
	default:
		log.dropped()
	}
}

// Close stops accepting events and waits for the buffer to drain or ctx to end.
func (log *Log) Close(ctx context.Context) error {
	log.closeOnce.Do(func() {
		log.closed.Store(true)
		close(log.quit)
	})

	select {
	case <-log.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the single consumer of the buffer.
func (log *Log) run() {
	defer close(log.done)

	for {
		select {
		case event := <-log.events:
			log.write(event)
		case <-log.quit:
			for {
				select {
				case event := <-log.events:
					log.write(event)
				default:
					return
				}
			}
		}
	}
}

func (log *Log) write(event Event) {
	defer func() {
		if recovered := recover(); recovered != nil {
			log.logger.Error("security_event_write_panic", slog.Any("panic", recovered))
		}
	}()

	log.logger.LogAttrs(context.Background(), event.Severity.level(), "security_event",
		slog.String("event", event.Name),
		slog.String("severity", string(event.Severity)),
		slog.Any("details", map[string]any(event.Details)),
		slog.Time("occurred_at", event.OccurredAt),
	)

	if log.metrics != nil {
		log.metrics.SecurityEventsTotal.WithLabelValues(event.Name, string(event.Severity)).Inc()
	}
}

func (log *Log) dropped() {
	if log.metrics != nil {
		log.metrics.SecurityEventsDropped.Inc()
	}
}
