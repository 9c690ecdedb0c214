// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package gate

import (
	"context"
	"net/http"

	"github.com/taibuivan/storehub/internal/account"
	"github.com/taibuivan/storehub/internal/platform/ctxkey"
	"github.com/taibuivan/storehub/internal/platform/sec"
	"github.com/taibuivan/storehub/internal/tenant"
)

// RequestContext is the per-request record threaded through the stages.
//
// It is immutable: every With method returns a modified copy and the zero
// value is a valid, empty context.
type RequestContext struct {
	tenant   *tenant.Tenant
	tenantID string
	sectorID string

	user    *account.User
	session *account.Session
	token   string
	claims  *sec.AuthClaims
}

// WithTenant returns a copy carrying the resolved tenant and sector id.
func (rc RequestContext) WithTenant(resolved *tenant.Tenant, sectorID string) RequestContext {
	rc.tenant = resolved
	rc.tenantID = ""
	if resolved != nil {
		rc.tenantID = resolved.ID
	}
	rc.sectorID = sectorID
	return rc
}

// WithIdentity returns a copy carrying the authenticated user and session.
func (rc RequestContext) WithIdentity(user *account.User, session *account.Session, token string, claims *sec.AuthClaims) RequestContext {
	rc.user = user
	rc.session = session
	rc.token = token
	rc.claims = claims
	if rc.tenantID == "" && claims != nil {
		rc.tenantID = claims.TenantID
	}
	return rc
}

// Tenant returns the resolved tenant, or nil when the request has none.
func (rc RequestContext) Tenant() *tenant.Tenant { return rc.tenant }

// TenantID returns the resolved tenant id, falling back to the token's tid.
func (rc RequestContext) TenantID() string { return rc.tenantID }

// SectorID returns the resolved sector id, or "" when none was requested.
func (rc RequestContext) SectorID() string { return rc.sectorID }

// User returns the authenticated user, or nil.
func (rc RequestContext) User() *account.User { return rc.user }

// Session returns the authenticated session, or nil.
func (rc RequestContext) Session() *account.Session { return rc.session }

// Token returns the raw bearer token of an authenticated request.
func (rc RequestContext) Token() string { return rc.token }

// Claims returns the verified token claims, or nil.
func (rc RequestContext) Claims() *sec.AuthClaims { return rc.claims }

// Authenticated reports whether an identity is attached.
func (rc RequestContext) Authenticated() bool {
	return rc.user != nil && rc.session != nil
}

// TwoFactorVerified reports whether the current session completed 2FA.
func (rc RequestContext) TwoFactorVerified() bool {
	return rc.session != nil && rc.session.TwoFactorVerified
}

// # Context Accessors

// NewContext returns a copy of parent carrying rc.
func NewContext(parent context.Context, rc RequestContext) context.Context {
	return context.WithValue(parent, ctxkey.KeyRequestContext, rc)
}

// FromContext returns the record stored by the pipeline, or an empty one.
func FromContext(ctx context.Context) RequestContext {
	rc, _ := ctx.Value(ctxkey.KeyRequestContext).(RequestContext)
	return rc
}

// FromRequest is shorthand for FromContext(request.Context()).
func FromRequest(request *http.Request) RequestContext {
	return FromContext(request.Context())
}

// HandlerIdentity adapts the pipeline's record to [account.Identity].
type HandlerIdentity struct{}

// SessionID returns the authenticated session id.
func (HandlerIdentity) SessionID(request *http.Request) (string, bool) {
	rc := FromRequest(request)
	if rc.session == nil {
		return "", false
	}
	return rc.session.ID, true
}

// TenantID returns the resolved tenant id.
func (HandlerIdentity) TenantID(request *http.Request) string {
	return FromRequest(request).TenantID()
}
