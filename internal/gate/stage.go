// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package gate is the request-authorization pipeline.

Every concern (rate limiting, tenant resolution, authentication, guards) is a
[Stage]: a function from the request and the current [RequestContext] to a
[Result] that either continues with a new context or rejects with an
[apperr.AppError]. [Run] executes stages in order and stops at the first
rejection; [Middleware] plugs a stage list into a chi router.

Stages never write responses themselves. Rejections are rendered once, by the
middleware, through the shared respond package.
*/
package gate

import (
	"context"
	"net/http"
	"sync"

	"github.com/taibuivan/storehub/internal/platform/apperr"
	"github.com/taibuivan/storehub/internal/platform/ctxkey"
	"github.com/taibuivan/storehub/internal/platform/respond"
)

// # Results

// Result is the outcome of one stage.
type Result struct {
	context RequestContext
	err     *apperr.AppError
	headers http.Header
}

// Continue proceeds with rc.
func Continue(rc RequestContext) Result {
	return Result{context: rc}
}

// Reject stops the pipeline with err.
func Reject(err *apperr.AppError) Result {
	return Result{err: err}
}

// WithHeader returns a copy of the result that also sets a response header.
func (result Result) WithHeader(key, value string) Result {
	headers := result.headers.Clone()
	if headers == nil {
		headers = http.Header{}
	}
	headers.Set(key, value)
	result.headers = headers
	return result
}

// Rejected reports whether the stage rejected the request.
func (result Result) Rejected() bool { return result.err != nil }

// Err returns the rejection, or nil.
func (result Result) Err() *apperr.AppError { return result.err }

// Context returns the record to hand to the next stage.
func (result Result) Context() RequestContext { return result.context }

// Header returns the response headers accumulated by the stages.
func (result Result) Header() http.Header { return result.headers }

// # Stages

// Stage is one step of the pipeline.
type Stage func(request *http.Request, rc RequestContext) Result

// Run executes stages in order and stops at the first rejection.
// Response headers set by earlier stages are carried into the final result,
// and a rejection keeps the record built before the rejecting stage.
func Run(request *http.Request, rc RequestContext, stages ...Stage) Result {
	current := Continue(rc)
	for _, stage := range stages {
		next := stage(request, current.context)
		for key, values := range current.headers {
			if next.headers.Get(key) == "" {
				next = next.WithHeader(key, values[0])
			}
		}
		if next.Rejected() {
			next.context = current.context
			return next
		}
		current = next
	}
	return current
}

// Chain composes stages into a single stage evaluated in attach order.
func Chain(stages ...Stage) Stage {
	return func(request *http.Request, rc RequestContext) Result {
		return Run(request, rc, stages...)
	}
}

// Middleware runs stages before the wrapped handler.
//
// The record produced by earlier middleware is the starting point, so stage
// lists can be layered on nested route groups. The final record, accepted or
// rejected, is published to the request's [Trace] when one is attached.
func Middleware(stages ...Stage) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			result := Run(request, FromRequest(request), stages...)
			if trace := TraceFrom(request.Context()); trace != nil {
				trace.record(result.context)
			}

			for key, values := range result.headers {
				for _, value := range values {
					writer.Header().Add(key, value)
				}
			}

			if result.Rejected() {
				respond.Error(writer, request, result.err)
				return
			}

			next.ServeHTTP(writer, request.WithContext(NewContext(request.Context(), result.context)))
		})
	}
}

// # Trace

// Trace receives the final record of every [Middleware] a request passes
// through. Middleware wrapped around the pipeline attaches one so it can read
// the identity after the handler returns, including on rejection.
type Trace struct {
	mu  sync.Mutex
	rc  RequestContext
	set bool
}

// WithTrace returns a copy of parent carrying a fresh trace.
func WithTrace(parent context.Context) (context.Context, *Trace) {
	trace := &Trace{}
	return context.WithValue(parent, ctxkey.KeyGateTrace, trace), trace
}

// TraceFrom returns the trace attached to ctx, or nil.
func TraceFrom(ctx context.Context) *Trace {
	trace, _ := ctx.Value(ctxkey.KeyGateTrace).(*Trace)
	return trace
}

// Final returns the last published record and whether any stage ran.
func (trace *Trace) Final() (RequestContext, bool) {
	trace.mu.Lock()
	defer trace.mu.Unlock()
	return trace.rc, trace.set
}

func (trace *Trace) record(rc RequestContext) {
	trace.mu.Lock()
	defer trace.mu.Unlock()
	trace.rc = rc
	trace.set = true
}
