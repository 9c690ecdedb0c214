// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/taibuivan/storehub/internal/account"
	"github.com/taibuivan/storehub/internal/gate"
	"github.com/taibuivan/storehub/internal/platform/apperr"
	"github.com/taibuivan/storehub/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/storehub/internal/platform/request"
	"github.com/taibuivan/storehub/internal/platform/respond"
	"github.com/taibuivan/storehub/internal/tenant"
)

// IdentifierParam names the admin tenant route parameter.
const IdentifierParam = "identifier"

// TenantInvalidator evicts cached tenant snapshots. [*tenant.RedisCache] satisfies it.
type TenantInvalidator interface {
	Invalidate(context context.Context, identifiers ...string) error
}

// TenantHandler serves the tenant-context endpoints.
type TenantHandler struct {
	resolver    *tenant.Resolver
	invalidator TenantInvalidator
}

// NewTenantHandler constructs a [TenantHandler]. invalidator may be nil when caching is off.
func NewTenantHandler(resolver *tenant.Resolver, invalidator TenantInvalidator) *TenantHandler {
	return &TenantHandler{resolver: resolver, invalidator: invalidator}
}

// sessionView is the body of GET /api/v1/me.
type sessionView struct {
	User     *account.User    `json:"user"`
	Session  *account.Session `json:"session"`
	Tenant   *tenant.Tenant   `json:"tenant,omitempty"`
	SectorID string           `json:"sectorId,omitempty"`
}

/*
Me echoes the authenticated identity and the tenant the request resolved to.

GET /api/v1/me
*/
func Me(writer http.ResponseWriter, request *http.Request) {
	rc := gate.FromRequest(request)
	if !rc.Authenticated() {
		respond.Error(writer, request, apperr.AuthenticationRequired())
		return
	}

	respond.OK(writer, sessionView{
		User:     rc.User(),
		Session:  rc.Session(),
		Tenant:   rc.Tenant(),
		SectorID: rc.SectorID(),
	})
}

/*
Current returns the tenant resolved for the request.

GET /api/v1/tenant

Response:
  - 200: tenant.Tenant
  - 400: TENANT_IDENTIFIER_MISSING
*/
func (handler *TenantHandler) Current(writer http.ResponseWriter, request *http.Request) {
	resolved := gate.FromRequest(request).Tenant()
	if resolved == nil {
		respond.Error(writer, request, apperr.TenantIdentifierMissing())
		return
	}
	respond.OK(writer, resolved)
}

/*
Sector returns one sector of the current tenant.

GET /api/v1/sectors/{sectorId}

Response:
  - 200: tenant.Sector
  - 403: SECTOR_ACCESS_DENIED
*/
func (handler *TenantHandler) Sector(writer http.ResponseWriter, request *http.Request) {
	rc := gate.FromRequest(request)
	if rc.Tenant() == nil {
		respond.Error(writer, request, apperr.TenantIdentifierMissing())
		return
	}

	// Same precedence as the sector guard
	sectorID := rc.SectorID()
	if sectorID == "" {
		sectorID = requestutil.Param(request, gate.SectorParam)
	}

	sector, found := tenant.FindSector(rc.Tenant(), sectorID)
	if !found {
		respond.Error(writer, request, apperr.SectorAccessDenied())
		return
	}
	respond.OK(writer, sector)
}

/*
Lookup resolves any tenant by id, subdomain or domain.

GET /api/v1/admin/tenants/{identifier}
*/
func (handler *TenantHandler) Lookup(writer http.ResponseWriter, request *http.Request) {
	resolved, err := handler.resolver.Resolve(request.Context(), requestutil.Param(request, IdentifierParam))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, resolved)
}

/*
RefreshCurrent drops the cached snapshot of the caller's own tenant.

DELETE /api/v1/tenant/cache
*/
func (handler *TenantHandler) RefreshCurrent(writer http.ResponseWriter, request *http.Request) {
	resolved := gate.FromRequest(request).Tenant()
	if resolved == nil {
		respond.Error(writer, request, apperr.TenantIdentifierMissing())
		return
	}
	handler.invalidate(writer, request, resolved)
}

/*
Refresh drops the cached snapshot of any tenant.

DELETE /api/v1/admin/tenants/{identifier}/cache
*/
func (handler *TenantHandler) Refresh(writer http.ResponseWriter, request *http.Request) {
	resolved, err := handler.resolver.Resolve(request.Context(), requestutil.Param(request, IdentifierParam))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	handler.invalidate(writer, request, resolved)
}

// invalidate evicts every identifier the tenant can be cached under.
func (handler *TenantHandler) invalidate(writer http.ResponseWriter, request *http.Request, resolved *tenant.Tenant) {
	if handler.invalidator == nil {
		respond.NoContent(writer)
		return
	}

	identifiers := []string{resolved.ID, resolved.Subdomain}
	if resolved.Domain != "" {
		identifiers = append(identifiers, resolved.Domain)
	}

	if err := handler.invalidator.Invalidate(request.Context(), identifiers...); err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}

	ctxutil.GetLogger(request.Context()).Info("tenant_cache_invalidated",
		slog.String("tenant_id", resolved.ID),
	)
	respond.NoContent(writer)
}
