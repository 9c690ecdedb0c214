// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package gate_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/storehub/internal/gate"
	"github.com/taibuivan/storehub/internal/platform/apperr"
	"github.com/taibuivan/storehub/internal/platform/metrics"
	"github.com/taibuivan/storehub/internal/ratelimit"
	"github.com/taibuivan/storehub/internal/secevent"
)

/*
TestRun_StopsAtFirstRejection keeps later stages unevaluated.
*/
func TestRun_StopsAtFirstRejection(t *testing.T) {
	var order []string
	stage := func(name string, reject bool) gate.Stage {
		return func(_ *http.Request, rc gate.RequestContext) gate.Result {
			order = append(order, name)
			if reject {
				return gate.Reject(apperr.Forbidden(name))
			}
			return gate.Continue(rc)
		}
	}

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	result := gate.Run(request, gate.RequestContext{}, stage("a", false), stage("b", true), stage("c", false))

	require.True(t, result.Rejected())
	assert.Equal(t, "b", result.Err().Message)
	assert.Equal(t, []string{"a", "b"}, order)
}

/*
TestRequestContext_IsImmutable checks With methods return copies.
*/
func TestRequestContext_IsImmutable(t *testing.T) {
	base := gate.RequestContext{}
	withTenant := base.WithTenant(demoTenant(), "sector-pos")

	assert.Nil(t, base.Tenant())
	assert.Empty(t, base.SectorID())
	assert.Equal(t, demoTenantID, withTenant.TenantID())
	assert.Equal(t, "sector-pos", withTenant.SectorID())
	assert.False(t, withTenant.Authenticated())
}

/*
TestMiddleware_LayersRecords lets nested groups build on earlier stages.
*/
func TestMiddleware_LayersRecords(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, staffUser("user-1"))

	outer := gate.Middleware(f.tenantStage())
	inner := gate.Middleware(f.authenticator().Required())

	var captured gate.RequestContext
	handler := outer(inner(http.HandlerFunc(func(_ http.ResponseWriter, request *http.Request) {
		captured = gate.FromRequest(request)
	})))

	request := bearer(protectedRequest(), token)
	request.Header.Set("X-Tenant-ID", "demo")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.NotNil(t, captured.Tenant())
	assert.True(t, captured.Authenticated())
}

/*
TestRun_RejectionKeepsEarlierRecord exposes the record built before the rejecting stage.
*/
func TestRun_RejectionKeepsEarlierRecord(t *testing.T) {
	attach := func(_ *http.Request, rc gate.RequestContext) gate.Result {
		return gate.Continue(rc.WithTenant(demoTenant(), ""))
	}
	deny := func(*http.Request, gate.RequestContext) gate.Result {
		return gate.Reject(apperr.Forbidden("denied"))
	}

	result := gate.Run(httptest.NewRequest(http.MethodGet, "/", nil), gate.RequestContext{}, attach, deny)

	require.True(t, result.Rejected())
	assert.Equal(t, demoTenantID, result.Context().TenantID())
}

/*
TestMiddleware_PublishesTrace hands the final record to a trace attached further
out, whether the stages accept or reject the request.
*/
func TestMiddleware_PublishesTrace(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, staffUser("user-1"))

	tests := []struct {
		name       string
		last       gate.Stage
		wantStatus int
	}{
		{"accepted", func(_ *http.Request, rc gate.RequestContext) gate.Result { return gate.Continue(rc) }, http.StatusOK},
		{"rejected", func(*http.Request, gate.RequestContext) gate.Result { return gate.Reject(apperr.Forbidden("denied")) }, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := gate.Middleware(f.tenantStage(), f.authenticator().Required(), tt.last)(
				http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) { writer.WriteHeader(http.StatusOK) }),
			)

			request := bearer(protectedRequest(), token)
			request.Header.Set("X-Tenant-ID", "demo")
			ctx, trace := gate.WithTrace(request.Context())
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request.WithContext(ctx))

			assert.Equal(t, tt.wantStatus, recorder.Code)
			final, ok := trace.Final()
			require.True(t, ok)
			assert.Equal(t, demoTenantID, final.TenantID())
			require.NotNil(t, final.User())
			assert.Equal(t, "user-1", final.User().ID)
		})
	}
}

/*
TestTrace_EmptyUntilRecorded reports nothing before any stage ran.
*/
func TestTrace_EmptyUntilRecorded(t *testing.T) {
	assert.Nil(t, gate.TraceFrom(context.Background()))

	ctx, trace := gate.WithTrace(context.Background())
	assert.Same(t, trace, gate.TraceFrom(ctx))
	_, ok := trace.Final()
	assert.False(t, ok)
}

/*
TestRateLimit_ScenarioD rejects the 101st request with headers and an event.
*/
func TestRateLimit_ScenarioD(t *testing.T) {
	events := &secevent.Memory{}
	registry := metrics.New()
	clock := func() time.Time { return now }
	stage := gate.RateLimit(ratelimit.NewFixedWindow(100, 15*time.Minute).WithClock(clock), events, registry)

	var recorder *httptest.ResponseRecorder
	for i := 1; i <= 100; i++ {
		recorder, _ = serve(protectedRequest(), stage)
		require.Equal(t, http.StatusOK, recorder.Code, "request %d", i)
	}
	assert.Equal(t, "100", recorder.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", recorder.Header().Get("X-RateLimit-Remaining"))
	assert.Empty(t, events.Events())

	recorder, _ = serve(protectedRequest(), stage)
	assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
	assert.Equal(t, apperr.CodeRateLimitExceeded, decodeError(t, recorder).Code)
	assert.Equal(t, "900", recorder.Header().Get("Retry-After"))
	assert.Equal(t, "0", recorder.Header().Get("X-RateLimit-Remaining"))

	event, ok := events.Last()
	require.True(t, ok)
	assert.Equal(t, secevent.EventRateLimitExceeded, event.Name)
	assert.Equal(t, secevent.SeverityMedium, event.Severity)
	assert.Equal(t, 1.0, testutil.ToFloat64(registry.RateLimitRejections))

	// 1. Another caller keeps its own budget
	other := protectedRequest()
	other.RemoteAddr = "10.9.9.9:4000"
	recorder, _ = serve(other, stage)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

// brokenLimiter always fails to decide.
type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (ratelimit.Decision, error) {
	return ratelimit.Decision{Allowed: true}, errors.New("redis down")
}

/*
TestRateLimit_FailsOpen lets traffic through when the limiter is unavailable.
*/
func TestRateLimit_FailsOpen(t *testing.T) {
	recorder, rc := serve(protectedRequest(), gate.RateLimit(brokenLimiter{}, &secevent.Memory{}, nil))
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.NotNil(t, rc)
}
