// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires the HTTP router, the authorization pipeline and the domain
handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It is the composition root for routes: which pipeline stages, guards and
    audit specializations protect which endpoint.
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/storehub/internal/account"
	"github.com/taibuivan/storehub/internal/audit"
	"github.com/taibuivan/storehub/internal/gate"
	"github.com/taibuivan/storehub/internal/platform/apperr"
	"github.com/taibuivan/storehub/internal/platform/config"
	"github.com/taibuivan/storehub/internal/platform/constants"
	"github.com/taibuivan/storehub/internal/platform/metrics"
	"github.com/taibuivan/storehub/internal/platform/middleware"
	"github.com/taibuivan/storehub/internal/platform/respond"
	"github.com/taibuivan/storehub/internal/platform/sec"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Pipeline & Handler Registry

// Pipeline holds the request-authorization stages routes are assembled from.
type Pipeline struct {
	// RateLimit throttles every /api/v1 request per client IP.
	RateLimit gate.Stage

	// Tenant resolves the tenant and sector for tenant-scoped routes.
	Tenant gate.Stage

	Auth   *gate.Authenticator
	Guards *gate.Guards
	Audit  *audit.Recorder
}

// Handlers groups all domain-specific HTTP handler sets.
type Handlers struct {
	// Liveness is the /health handler, always 200 while the process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler, 200 only when all deps are healthy.
	Readiness http.HandlerFunc

	// Metrics serves /metrics. Nil leaves the endpoint unmounted.
	Metrics http.Handler

	Account *account.Handler
	Audit   *audit.Handler
	Tenants *TenantHandler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(cfg *config.Config, log *slog.Logger, registry *metrics.Registry, pipeline Pipeline, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	r.Use(middleware.RequestID())
	r.Use(middleware.RealIP(cfg.TrustedProxyPrefixes()))
	r.Use(middleware.StructuredLogger(log))
	if registry != nil {
		r.Use(middleware.Metrics(registry))
	}
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.PanicRecovery())
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}

	// # Application API
	r.Route("/api/v1", func(v1 chi.Router) {

		// Unmatched paths are throttled like any other API request
		throttled := gate.Middleware(pipeline.RateLimit)
		v1.NotFound(throttled(http.HandlerFunc(routeNotFound)).ServeHTTP)
		v1.MethodNotAllowed(throttled(http.HandlerFunc(methodNotAllowed)).ServeHTTP)

		mountTenantRoutes(v1, pipeline, h)

		v1.Route("/admin", func(admin chi.Router) {
			mountAdminRoutes(admin, pipeline, h)
		})
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// mountTenantRoutes registers everything that runs inside a resolved tenant.
//
// Every endpoint carries its full chain so the audit recorder sits outside the
// gate stages and records their rejections too.
func mountTenantRoutes(r chi.Router, p Pipeline, h Handlers) {
	tenantScoped := gate.Chain(p.RateLimit, p.Tenant)
	member := gate.Chain(tenantScoped, p.Auth.Required(), p.Guards.RequireTenantScope())

	// Public: the tenant is optional and a bearer, when present, is attached
	r.With(
		p.Audit.Login(),
		gate.Middleware(tenantScoped, p.Auth.Optional()),
	).Post("/auth/login", h.Account.Login)

	r.With(
		p.Audit.Logout(),
		gate.Middleware(member),
	).Post("/auth/logout", h.Account.Logout)

	r.With(gate.Middleware(member)).Get("/me", Me)

	r.With(
		p.Audit.Access("tenant"),
		gate.Middleware(member),
	).Get("/tenant", h.Tenants.Current)

	r.With(
		p.Audit.Read("sector", gate.SectorParam),
		gate.Middleware(member, p.Guards.RequireSectorAccess(), p.Guards.RequirePermission("sectors", "read")),
	).Get("/sectors/{"+gate.SectorParam+"}", h.Tenants.Sector)

	r.With(
		gate.Middleware(member, p.Guards.RequirePermission("audit-logs", "read"), p.Guards.RequireRole(sec.DefaultLevel(sec.RoleStoreManager))),
	).Get("/audit-logs", h.Audit.List)

	r.With(
		p.Audit.Middleware(audit.ActionDelete, "tenant-cache", nil),
		gate.Middleware(member, p.Guards.RequireTenantOwner()),
	).Delete("/tenant/cache", h.Tenants.RefreshCurrent)
}

// mountAdminRoutes registers platform operations. They run without a tenant.
func mountAdminRoutes(r chi.Router, p Pipeline, h Handlers) {
	admin := gate.Middleware(p.RateLimit, p.Auth.Required(), p.Guards.RequireSuperAdmin(), p.Guards.Require2FA())

	r.With(p.Audit.Access("audit-logs"), admin).Get("/audit-logs", h.Audit.List)
	r.With(p.Audit.Read("tenant", IdentifierParam), admin).Get("/tenants/{"+IdentifierParam+"}", h.Tenants.Lookup)
	r.With(p.Audit.Delete("tenant-cache", IdentifierParam), admin).Delete("/tenants/{"+IdentifierParam+"}/cache", h.Tenants.Refresh)
}

func routeNotFound(writer http.ResponseWriter, request *http.Request) {
	respond.Error(writer, request, apperr.NotFound("Route"))
}

func methodNotAllowed(writer http.ResponseWriter, _ *http.Request) {
	writer.WriteHeader(http.StatusMethodNotAllowed)
}

// # Server Lifecycle

// Handler exposes the router for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server_starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
