// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package middleware provides the cross-cutting HTTP processing chain.

It acts as a series of decorators around the standard http.Handler, injecting
traceability, safety, and observability into every request lifecycle.

Standard Stack:

  - Trace: RequestID generation for log correlation.
  - Edge: Caller IP resolution shared by logging, rate limiting and IP allow-lists.
  - Log: Structured activity logging (slog).
  - Measure: Prometheus request counters and latency histograms.
  - Guard: CORS validation.
  - Safe: Panic recovery to prevent server crashes.

Tenant resolution, authentication and authorization are not middleware in this
package: they run as explicit stages in the gate package.
*/
package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/taibuivan/storehub/internal/platform/apperr"
	"github.com/taibuivan/storehub/internal/platform/constants"
	"github.com/taibuivan/storehub/internal/platform/ctxutil"
	"github.com/taibuivan/storehub/internal/platform/metrics"
	"github.com/taibuivan/storehub/internal/platform/respond"
)

// # Request Tracing

// RequestID attaches a correlation ID to every request for log tracing.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// 1. Check if the client already provided an ID
			requestID := request.Header.Get(constants.HeaderXRequestID)

			// 2. Generate a new one if missing (using UUID v7 for time-sortable properties)
			if requestID == "" {
				uuidV7, err := uuid.NewV7()
				if err != nil {
					requestID = uuid.New().String()
				} else {
					requestID = uuidV7.String()
				}
			}

			// 3. Inject into context and response headers
			ctx := ctxutil.WithRequestID(request.Context(), requestID)
			writer.Header().Set(constants.HeaderXRequestID, requestID)

			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// # Caller Address

// RealIP resolves the caller address once and stores it in the context.
//
// Forwarding headers are honoured only when the direct peer is inside trusted.
// With no trusted proxies the socket address is the caller.
func RealIP(trusted []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			ctx := ctxutil.WithClientIP(request.Context(), ResolveClientIP(request, trusted))
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// ClientIP returns the address resolved by [RealIP], or the socket peer when
// the request did not pass through it.
func ClientIP(request *http.Request) string {
	if ip := ctxutil.GetClientIP(request.Context()); ip != "" {
		return ip
	}
	return peerAddress(request.RemoteAddr)
}

/*
ResolveClientIP derives the caller address of request.

X-Forwarded-For is walked from the right, skipping hops inside trusted; the
first untrusted hop is the caller. X-Real-IP is read only when X-Forwarded-For
is absent. Both headers are ignored unless the socket peer itself is trusted.

Parameters:
  - request: *http.Request
  - trusted: []netip.Prefix (proxies allowed to forward the caller address)

Returns:
  - string: The caller address
*/
func ResolveClientIP(request *http.Request, trusted []netip.Prefix) string {
	peer := peerAddress(request.RemoteAddr)
	if !isTrusted(peer, trusted) {
		return peer
	}

	var hops []string
	for _, value := range request.Header.Values(constants.HeaderXForwardedFor) {
		hops = append(hops, strings.Split(value, ",")...)
	}

	if len(hops) == 0 {
		if realIP := strings.TrimSpace(request.Header.Get(constants.HeaderXRealIP)); validAddress(realIP) {
			return realIP
		}
		return peer
	}

	client := peer
	for index := len(hops) - 1; index >= 0; index-- {
		hop := strings.TrimSpace(hops[index])
		if !validAddress(hop) {
			break
		}
		client = hop
		if !isTrusted(hop, trusted) {
			break
		}
	}
	return client
}

func peerAddress(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

func validAddress(raw string) bool {
	_, err := netip.ParseAddr(raw)
	return err == nil
}

func isTrusted(raw string, trusted []netip.Prefix) bool {
	if len(trusted) == 0 {
		return false
	}

	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return false
	}
	addr = addr.Unmap()

	return slices.ContainsFunc(trusted, func(prefix netip.Prefix) bool {
		return prefix.Contains(addr)
	})
}

// # Activity Logging

// StatusRecorder captures the status code and body size written by downstream handlers.
type StatusRecorder struct {
	http.ResponseWriter
	Status int
	Bytes  int
	wrote  bool
}

// NewStatusRecorder wraps writer with a 200 default status.
func NewStatusRecorder(writer http.ResponseWriter) *StatusRecorder {
	return &StatusRecorder{ResponseWriter: writer, Status: http.StatusOK}
}

// WriteHeader records the first status code written.
func (recorder *StatusRecorder) WriteHeader(code int) {
	if !recorder.wrote {
		recorder.Status = code
		recorder.wrote = true
	}
	recorder.ResponseWriter.WriteHeader(code)
}

// Write counts body bytes without altering them.
func (recorder *StatusRecorder) Write(body []byte) (int, error) {
	recorder.wrote = true
	written, err := recorder.ResponseWriter.Write(body)
	recorder.Bytes += written
	return written, err
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (recorder *StatusRecorder) Unwrap() http.ResponseWriter {
	return recorder.ResponseWriter
}

// StructuredLogger logs every request status and performance metrics.
// It also injects a request-specific logger into the context.
func StructuredLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			startTime := time.Now()
			rid := ctxutil.GetRequestID(request.Context())
			ip := ClientIP(request)

			// 1. Create a sub-logger for this specific request
			requestLogger := logger.With(
				slog.String("request_id", rid),
				slog.String("method", request.Method),
				slog.String("path", request.URL.Path),
				slog.String("ip", ip),
			)

			// 2. Inject this logger into the context for downstream use
			ctx := ctxutil.WithLogger(request.Context(), requestLogger)
			wrappedWriter := NewStatusRecorder(writer)

			// 3. Proceed to downstream handlers with the enriched context
			next.ServeHTTP(wrappedWriter, request.WithContext(ctx))

			// 4. Final log entry after the request is finished
			latency := time.Since(startTime).Milliseconds()
			logLevel := slog.LevelInfo

			if wrappedWriter.Status >= 500 {
				logLevel = slog.LevelError
			} else if wrappedWriter.Status >= 400 {
				logLevel = slog.LevelWarn
			}

			requestLogger.Log(ctx, logLevel, "http_request_finished",
				slog.Int("status", wrappedWriter.Status),
				slog.Int("bytes", wrappedWriter.Bytes),
				slog.Int64("latency_ms", latency),
				slog.String("user_agent", request.UserAgent()),
			)
		})
	}
}

// # Metrics

// Metrics records request counts and latency labelled by chi route pattern.
func Metrics(registry *metrics.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			startTime := time.Now()
			wrappedWriter := NewStatusRecorder(writer)

			next.ServeHTTP(wrappedWriter, request)

			// Route patterns keep label cardinality bounded
			route := "unmatched"
			if routeContext := chi.RouteContext(request.Context()); routeContext != nil {
				if pattern := routeContext.RoutePattern(); pattern != "" {
					route = pattern
				}
			}

			registry.HTTPRequestsTotal.WithLabelValues(request.Method, route, strconv.Itoa(wrappedWriter.Status)).Inc()
			registry.HTTPRequestDuration.WithLabelValues(request.Method, route).Observe(time.Since(startTime).Seconds())
		})
	}
}

// # Reliability & Safety

// PanicRecovery recovers from panics, logs stack trace, and returns 500.
func PanicRecovery() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// Defer a recovery function to catch any runtime exceptions
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}

					// Capture the runtime stack trace for diagnostics
					stackTrace := make([]byte, 2048)
					length := runtime.Stack(stackTrace, false)

					// Retrieve the request-specific logger from context if available
					reqLogger := ctxutil.GetLogger(request.Context())

					reqLogger.ErrorContext(request.Context(), "panic_recovered",
						slog.Any("error", err),
						slog.String("stack", string(stackTrace[:length])),
					)

					// Return a safe, generic error to the client
					respond.Error(writer, request, apperr.Internal(nil))
				}
			}()

			next.ServeHTTP(writer, request)
		})
	}
}

// # Cross-Origin Resource Sharing

// AppConfig defines the behavior needed by the CORS middleware.
type AppConfig interface {
	IsDevelopment() bool
	AllowedOrigins() []string
}

// CORS handles Cross-Origin Resource Sharing based on application environment.
func CORS(cfg AppConfig) func(http.Handler) http.Handler {
	allowedOrigins := cfg.AllowedOrigins()
	allowedHeaders := strings.Join([]string{
		"Accept", "Content-Type", "Content-Length",
		constants.HeaderAuthorization,
		constants.HeaderXRequestID,
		constants.HeaderTenantID,
		constants.HeaderSectorID,
	}, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// 1. Check the Origin header
			origin := request.Header.Get(constants.HeaderOrigin)
			if origin == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// 2. Check if the origin is allowed (strict in PROD, open in DEV)
			isAllowed := cfg.IsDevelopment() || slices.Contains(allowedOrigins, origin)

			// 3. Inject standard CORS headers if authorized
			if isAllowed {
				header := writer.Header()
				header.Set("Access-Control-Allow-Origin", origin)
				header.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				header.Set("Access-Control-Allow-Headers", allowedHeaders)
				header.Set("Access-Control-Expose-Headers", "Content-Length, X-Request-ID, Retry-After, X-RateLimit-Limit, X-RateLimit-Remaining")
				header.Set("Access-Control-Allow-Credentials", "true")
				header.Set("Access-Control-Max-Age", "300")
				header.Add("Vary", constants.HeaderOrigin)
			}

			// 4. Handle pre-flight requests (OPTIONS)
			if request.Method == http.MethodOptions {
				writer.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
