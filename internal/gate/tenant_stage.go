// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package gate

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/taibuivan/storehub/internal/platform/apperr"
	"github.com/taibuivan/storehub/internal/platform/constants"
	"github.com/taibuivan/storehub/internal/platform/ctxutil"
	"github.com/taibuivan/storehub/internal/platform/middleware"
	"github.com/taibuivan/storehub/internal/platform/sec"
	"github.com/taibuivan/storehub/internal/secevent"
	"github.com/taibuivan/storehub/internal/tenant"
)

// TokenVerifier checks an access token's signature, structure and expiry.
type TokenVerifier interface {
	VerifyToken(token string) (*sec.AuthClaims, error)
}

// TenantStage resolves the tenant (and optional sector) behind a request.
type TenantStage struct {
	extractor *tenant.Extractor
	resolver  *tenant.Resolver
	verifier  TokenVerifier
	events    secevent.Recorder
	now       func() time.Time
}

// NewTenantStage creates the tenant resolution stage.
//
// verifier may be nil, in which case tokens are never consulted for a tenant id.
func NewTenantStage(extractor *tenant.Extractor, resolver *tenant.Resolver, verifier TokenVerifier, events secevent.Recorder) *TenantStage {
	return &TenantStage{extractor: extractor, resolver: resolver, verifier: verifier, events: events, now: time.Now}
}

// WithClock returns a copy of the stage using clock as its time source.
func (stage *TenantStage) WithClock(clock func() time.Time) *TenantStage {
	clone := *stage
	clone.now = clock
	return &clone
}

// Stage returns the pipeline function.
func (stage *TenantStage) Stage() Stage {
	return stage.resolve
}

/*
resolve applies the tenant decision table.

Description: Skip paths pass untouched; public paths without an identifier pass
without a tenant. Otherwise the checks run in this order, first failure wins:
identifier present, tenant found, subscription running, tenant activated,
sector granted.
*/
func (stage *TenantStage) resolve(request *http.Request, rc RequestContext) Result {
	if tenant.SkipPath(request.URL.Path) {
		return Continue(rc)
	}

	// 1. Identifiers
	identifiers := stage.extractor.Extract(tenant.FromRequest(request, stage.claims(request, rc)))
	if identifiers.TenantID == "" {
		if tenant.PublicPath(request.URL.Path) {
			return Continue(rc)
		}
		return Reject(apperr.TenantIdentifierMissing())
	}

	// 2. Lookup
	resolved, err := stage.resolver.Resolve(request.Context(), identifiers.TenantID)
	if err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			stage.events.Record(secevent.EventTenantResolutionFailed, requestDetails(request, secevent.Details{
				"identifier": identifiers.TenantID,
				"userAgent":  request.UserAgent(),
			}), secevent.SeverityHigh)
			return Reject(apperr.TenantNotFound())
		}

		ctxutil.GetLogger(request.Context()).ErrorContext(request.Context(), "tenant_resolution_failed",
			slog.String("identifier", identifiers.TenantID),
			slog.Any("error", err),
		)
		return Reject(apperr.TenantResolutionError(err))
	}

	// 3. Subscription before activation: a lapsed tenant always reports expiry
	if !tenant.SubscriptionActive(resolved, stage.now()) {
		stage.events.Record(secevent.EventExpiredSubscriptionAccess, requestDetails(request, secevent.Details{
			"tenantId":            resolved.ID,
			"subscriptionEndDate": resolved.SubscriptionEndDate,
		}), secevent.SeverityMedium)
		return Reject(apperr.SubscriptionExpired())
	}

	if !tenant.Activated(resolved) {
		stage.events.Record(secevent.EventInactiveTenantAccess, requestDetails(request, secevent.Details{
			"tenantId":     resolved.ID,
			"tenantStatus": string(resolved.Status),
		}), secevent.SeverityMedium)
		return Reject(apperr.TenantInactive())
	}

	// 4. Sector
	sectorID := ""
	if identifiers.SectorID != "" {
		if !tenant.HasSectorAccess(resolved, identifiers.SectorID) {
			stage.events.Record(secevent.EventUnauthorizedSectorAttempt, requestDetails(request, secevent.Details{
				"tenantId": resolved.ID,
				"sectorId": identifiers.SectorID,
			}), secevent.SeverityHigh)
			return Reject(apperr.SectorAccessDenied())
		}

		sector, _ := tenant.FindSector(resolved, identifiers.SectorID)
		sectorID = sector.ID
	}

	ctxutil.GetLogger(request.Context()).DebugContext(request.Context(), "tenant_resolved",
		slog.String("tenant_id", resolved.ID),
		slog.String("sector_id", sectorID),
	)

	return Continue(rc.WithTenant(resolved, sectorID))
}

// claims returns verified claims for the token-embedded tenant fallback.
func (stage *TenantStage) claims(request *http.Request, rc RequestContext) *sec.AuthClaims {
	if rc.Claims() != nil {
		return rc.Claims()
	}
	if stage.verifier == nil {
		return nil
	}

	token := BearerToken(request)
	if token == "" {
		return nil
	}

	claims, err := stage.verifier.VerifyToken(token)
	if err != nil {
		return nil
	}
	return claims
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(request *http.Request) string {
	header := strings.TrimSpace(request.Header.Get(constants.HeaderAuthorization))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, constants.BearerScheme) {
		return ""
	}
	return strings.TrimSpace(token)
}

// requestDetails adds the request coordinates shared by every security event.
func requestDetails(request *http.Request, details secevent.Details) secevent.Details {
	if details == nil {
		details = secevent.Details{}
	}
	details["path"] = request.URL.Path
	details["method"] = request.Method
	details["ip"] = middleware.ClientIP(request)
	if requestID := ctxutil.GetRequestID(request.Context()); requestID != "" {
		details["requestId"] = requestID
	}
	return details
}
