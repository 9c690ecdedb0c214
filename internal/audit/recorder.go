// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/taibuivan/storehub/internal/gate"
	"github.com/taibuivan/storehub/internal/platform/metrics"
	"github.com/taibuivan/storehub/internal/platform/middleware"
	requestutil "github.com/taibuivan/storehub/internal/platform/request"
	"github.com/taibuivan/storehub/internal/platform/safego"
	"github.com/taibuivan/storehub/pkg/uuid"
)

// DefaultTimeout bounds a write when the configured timeout is not positive.
const DefaultTimeout = 5 * time.Second

// Write outcomes reported on the audit_writes_total counter.
const (
	outcomeWritten = "written"
	outcomeFailed  = "failed"
	outcomeSkipped = "skipped"
)

// ResourceIDFunc derives the audited resource identifier from a request.
type ResourceIDFunc func(request *http.Request) string

// FromParam reads the resource identifier from a route parameter.
func FromParam(name string) ResourceIDFunc {
	return func(request *http.Request) string {
		return requestutil.Param(request, name)
	}
}

// Recorder is the audit middleware factory.
type Recorder struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Registry
	timeout time.Duration
	async   bool
	now     func() time.Time

	pending sync.WaitGroup
}

/*
NewRecorder creates a recorder.

Parameters:
  - store: Store
  - logger: *slog.Logger
  - registry: *metrics.Registry (may be nil)
  - timeout: time.Duration (bound on a single write)
  - async: bool (persist on a background goroutine)

Returns:
  - *Recorder: The initialized recorder
*/
func NewRecorder(store Store, logger *slog.Logger, registry *metrics.Registry, timeout time.Duration, async bool) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Recorder{
		store:   store,
		logger:  logger,
		metrics: registry,
		timeout: timeout,
		async:   async,
		now:     time.Now,
	}
}

// WithClock overrides the time source used for timestamps and durations.
func (recorder *Recorder) WithClock(clock func() time.Time) *Recorder {
	recorder.now = clock
	return recorder
}

// Wait blocks until every in-flight write has finished.
func (recorder *Recorder) Wait() {
	recorder.pending.Wait()
}

// # Specializations

// Create audits a resource creation.
func (recorder *Recorder) Create(resource string) func(http.Handler) http.Handler {
	return recorder.Middleware(ActionCreate, resource, nil)
}

// Read audits a resource read identified by the route parameter idParam.
func (recorder *Recorder) Read(resource, idParam string) func(http.Handler) http.Handler {
	return recorder.Middleware(ActionRead, resource, FromParam(idParam))
}

// Update audits a resource update identified by the route parameter idParam.
func (recorder *Recorder) Update(resource, idParam string) func(http.Handler) http.Handler {
	return recorder.Middleware(ActionUpdate, resource, FromParam(idParam))
}

// Delete audits a resource deletion identified by the route parameter idParam.
func (recorder *Recorder) Delete(resource, idParam string) func(http.Handler) http.Handler {
	return recorder.Middleware(ActionDelete, resource, FromParam(idParam))
}

// Login audits a sign-in attempt.
func (recorder *Recorder) Login() func(http.Handler) http.Handler {
	return recorder.Middleware(ActionLogin, ResourceUser, nil)
}

// Logout audits a sign-out.
func (recorder *Recorder) Logout() func(http.Handler) http.Handler {
	return recorder.Middleware(ActionLogout, ResourceUser, nil)
}

// Access audits a generic access to resource.
func (recorder *Recorder) Access(resource string) func(http.Handler) http.Handler {
	return recorder.Middleware(ActionAccess, resource, nil)
}

// # Middleware

/*
Middleware records one entry per request once the handler has produced its
response. The response is never altered or delayed by persistence: writes run
under a context detached from the request and bounded by the recorder timeout.

Mount it outside the gate stages: it attaches a [gate.Trace] so rejections
made by the pipeline are recorded with whatever identity was established
before the rejecting stage.

A handler panic is recorded as a failure and then re-raised for the panic
recovery middleware further out.
*/
func (recorder *Recorder) Middleware(action, resource string, resourceID ResourceIDFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			startedAt := recorder.now()
			body := requestutil.PeekBody(request)
			wrapped := middleware.NewStatusRecorder(writer)

			ctx, trace := gate.WithTrace(request.Context())
			request = request.WithContext(ctx)

			defer func() {
				recovered := recover()

				status := wrapped.Status
				errorMessage := ""
				if recovered != nil {
					status = http.StatusInternalServerError
					errorMessage = fmt.Sprint(recovered)
				} else if status >= http.StatusBadRequest {
					errorMessage = http.StatusText(status)
				}

				rc := gate.FromRequest(request)
				if final, ok := trace.Final(); ok {
					rc = final
				}

				entry := recorder.buildEntry(request, rc, action, resource, resourceID, body, startedAt)
				entry.Status = StatusFor(status)
				entry.Error = errorMessage
				entry.Details["statusCode"] = status
				entry.Details["responseSize"] = wrapped.Bytes

				recorder.dispatch(request.Context(), entry)

				if recovered != nil {
					panic(recovered)
				}
			}()

			next.ServeHTTP(wrapped, request)
		})
	}
}

// buildEntry captures the request side of an entry before the response is known.
func (recorder *Recorder) buildEntry(request *http.Request, rc gate.RequestContext, action, resource string, resourceID ResourceIDFunc, body []byte, startedAt time.Time) *Entry {
	finishedAt := recorder.now()

	details := map[string]any{
		"method": request.Method,
		"path":   request.URL.Path,
	}

	if query := request.URL.Query(); len(query) > 0 {
		values := make(map[string]any, len(query))
		for name, list := range query {
			if len(list) == 1 {
				values[name] = list[0]
				continue
			}
			values[name] = anySlice(list)
		}
		details["query"] = Sanitize(values)
	}

	if len(body) > 0 {
		var decoded any
		if err := json.Unmarshal(body, &decoded); err == nil {
			details["body"] = Sanitize(decoded)
		}
	}

	entry := &Entry{
		ID:         uuid.New(),
		Action:     action,
		Resource:   resource,
		Details:    details,
		IPAddress:  middleware.ClientIP(request),
		UserAgent:  request.UserAgent(),
		DurationMS: finishedAt.Sub(startedAt).Milliseconds(),
		TenantID:   rc.TenantID(),
		CreatedAt:  finishedAt,
	}

	if resourceID != nil {
		entry.ResourceID = resourceID(request)
	}

	if user := rc.User(); user != nil {
		entry.UserID = user.ID
		details["userId"] = user.ID
		details["userEmail"] = user.Email
		details["role"] = string(user.Role.Code)
	}
	if entry.TenantID != "" {
		details["tenantId"] = entry.TenantID
	}
	if sectorID := rc.SectorID(); sectorID != "" {
		details["sectorId"] = sectorID
	}

	return entry
}

// dispatch hands the entry to the store without ever surfacing an error to the caller.
func (recorder *Recorder) dispatch(parent context.Context, entry *Entry) {
	persist := func() {
		defer recorder.pending.Done()
		recorder.persist(parent, entry)
	}

	recorder.pending.Add(1)
	if recorder.async {
		safego.Go(recorder.logger, "audit_write", persist)
		return
	}
	safego.Run(recorder.logger, "audit_write", persist)
}

func (recorder *Recorder) persist(parent context.Context, entry *Entry) {
	if !recorder.store.Ready() {
		recorder.count(outcomeSkipped)
		recorder.logger.Warn("audit_store_not_ready",
			slog.String("action", entry.Action),
			slog.String("resource", entry.Resource),
		)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), recorder.timeout)
	defer cancel()

	if err := recorder.store.Create(ctx, entry); err != nil {
		recorder.count(outcomeFailed)
		recorder.logger.Error("audit_write_failed",
			slog.String("action", entry.Action),
			slog.String("resource", entry.Resource),
			slog.String("entry_id", entry.ID),
			slog.Any("error", err),
		)
		return
	}

	recorder.count(outcomeWritten)
}

func (recorder *Recorder) count(outcome string) {
	if recorder.metrics != nil {
		recorder.metrics.AuditWritesTotal.WithLabelValues(outcome).Inc()
	}
}

func anySlice(values []string) []any {
	out := make([]any, len(values))
	for index, value := range values {
		out[index] = value
	}
	return out
}
