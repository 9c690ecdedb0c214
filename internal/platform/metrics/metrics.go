// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package metrics owns the Prometheus collectors exported by storehub.

Collectors are registered against a private registry instead of the process
default, so tests can build as many independent instances as they need.

Metric Groups:

  - HTTP request counters and latency histograms, labelled by chi route pattern.
  - Security events by name and severity, plus dropped records.
  - Audit persistence outcomes.
  - Rate-limit rejections and tenant cache hits/misses.
*/
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storehub"

// Registry groups every collector the pipeline reports into.
type Registry struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	SecurityEventsTotal   *prometheus.CounterVec
	SecurityEventsDropped prometheus.Counter

	AuditWritesTotal *prometheus.CounterVec

	RateLimitRejections prometheus.Counter
	TenantCacheTotal    *prometheus.CounterVec
}

// New creates a registry with all storehub collectors plus the Go runtime and
// process collectors.
func New() *Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)

	return &Registry{
		registry: registry,

		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests processed, by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),

		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Histogram of HTTP request latencies, by method and route pattern.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"method", "route"}),

		SecurityEventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "security_events_total",
			Help:      "Security events emitted by the authorization pipeline, by event name and severity.",
		}, []string{"event", "severity"}),

		SecurityEventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "security_events_dropped_total",
			Help:      "Security events discarded because the emission buffer was full.",
		}),

		AuditWritesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_writes_total",
			Help:      "Audit entry persistence attempts, by outcome (written, failed, skipped).",
		}, []string{"outcome"}),

		RateLimitRejections: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_rejections_total",
			Help:      "Requests rejected by the per-IP rate limiter.",
		}),

		TenantCacheTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tenant_cache_lookups_total",
			Help:      "Tenant cache lookups, by result (hit, miss, error).",
		}, []string{"result"}),
	}
}

// Handler exposes the registry in the Prometheus text exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Gatherer returns the underlying gatherer, mainly for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}
