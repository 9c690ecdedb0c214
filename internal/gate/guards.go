// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package gate

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/storehub/internal/account"
	"github.com/taibuivan/storehub/internal/platform/apperr"
	"github.com/taibuivan/storehub/internal/platform/sec"
	"github.com/taibuivan/storehub/internal/secevent"
	"github.com/taibuivan/storehub/internal/tenant"
)

// SectorParam is the route parameter consulted when no sector was resolved.
const SectorParam = "sectorId"

// Guards builds authorization stages. Each guard reads only the record
// already assembled by earlier stages and performs no lookups.
type Guards struct {
	events secevent.Recorder
}

// NewGuards creates a guard factory reporting to events.
func NewGuards(events secevent.Recorder) *Guards {
	return &Guards{events: events}
}

// identityDetails describes the caller in guard events.
func identityDetails(request *http.Request, user *account.User, details secevent.Details) secevent.Details {
	if details == nil {
		details = secevent.Details{}
	}
	details["userId"] = user.ID
	details["role"] = string(user.Role.Code)
	return requestDetails(request, details)
}

// RequireSuperAdmin admits platform super-admins only.
func (guards *Guards) RequireSuperAdmin() Stage {
	return func(request *http.Request, rc RequestContext) Result {
		user := rc.User()
		if user == nil {
			return Reject(apperr.AuthenticationRequired())
		}

		if !sec.IsSuperAdmin(user.Role) {
			guards.events.Record(secevent.EventUnauthorizedAccessAttempt, identityDetails(request, user, secevent.Details{
				"requiredRole": string(sec.RoleSuperAdmin),
			}), secevent.SeverityHigh)
			return Reject(apperr.InsufficientPermissions("Super Admin access required"))
		}
		return Continue(rc)
	}
}

// RequireTenantOwner admits tenant owners and super-admins.
func (guards *Guards) RequireTenantOwner() Stage {
	return func(request *http.Request, rc RequestContext) Result {
		user := rc.User()
		if user == nil {
			return Reject(apperr.AuthenticationRequired())
		}

		if !sec.IsTenantOwner(user.Role) && !sec.IsSuperAdmin(user.Role) {
			guards.events.Record(secevent.EventUnauthorizedAccessAttempt, identityDetails(request, user, secevent.Details{
				"requiredRole": string(sec.RoleTenantOwner),
			}), secevent.SeverityMedium)
			return Reject(apperr.InsufficientPermissions("Tenant Owner access required"))
		}
		return Continue(rc)
	}
}

// RequireTenantScope admits users of the resolved tenant and super-admins.
// Requests without a resolved tenant pass.
func (guards *Guards) RequireTenantScope() Stage {
	return func(request *http.Request, rc RequestContext) Result {
		user := rc.User()
		if user == nil {
			return Reject(apperr.AuthenticationRequired())
		}

		if rc.Tenant() == nil || sec.IsSuperAdmin(user.Role) || user.TenantID == rc.Tenant().ID {
			return Continue(rc)
		}

		guards.events.Record(secevent.EventCrossTenantAccess, identityDetails(request, user, secevent.Details{
			"userTenantId":    user.TenantID,
			"requestTenantId": rc.Tenant().ID,
		}), secevent.SeverityHigh)
		return Reject(apperr.InsufficientPermissions("Tenant access denied"))
	}
}

// RequireSectorAccess admits callers allowed into the requested sector.
//
// The sector comes from the resolved context, then the sectorId route param.
func (guards *Guards) RequireSectorAccess() Stage {
	return func(request *http.Request, rc RequestContext) Result {
		user := rc.User()
		if user == nil {
			return Reject(apperr.AuthenticationRequired())
		}

		sectorID := rc.SectorID()
		if sectorID == "" {
			sectorID = chi.URLParam(request, SectorParam)
		}
		if sectorID == "" {
			return Reject(apperr.SectorIDMissing())
		}

		if !CanAccessSector(*user, rc.Tenant(), sectorID) {
			guards.events.Record(secevent.EventUnauthorizedSectorAccess, identityDetails(request, user, secevent.Details{
				"sectorId": sectorID,
			}), secevent.SeverityHigh)
			return Reject(apperr.SectorAccessDenied().WithMessage("Access to this sector denied"))
		}
		return Continue(rc)
	}
}

// RequirePermission admits roles granting action on resource.
func (guards *Guards) RequirePermission(resource, action string) Stage {
	return func(request *http.Request, rc RequestContext) Result {
		user := rc.User()
		if user == nil {
			return Reject(apperr.AuthenticationRequired())
		}

		if !sec.HasPermission(user.Role, action, resource) {
			guards.events.Record(secevent.EventUnauthorizedPermission, identityDetails(request, user, secevent.Details{
				"resource": resource,
				"action":   action,
			}), secevent.SeverityMedium)
			return Reject(apperr.InsufficientPermissions(fmt.Sprintf("Permission denied: %s on %s", action, resource)))
		}
		return Continue(rc)
	}
}

// RequireRole admits roles whose level is at most maxLevel (1 is the most privileged).
func (guards *Guards) RequireRole(maxLevel int) Stage {
	return func(request *http.Request, rc RequestContext) Result {
		user := rc.User()
		if user == nil {
			return Reject(apperr.AuthenticationRequired())
		}

		if !sec.WithinLevel(user.Role, maxLevel) {
			guards.events.Record(secevent.EventUnauthorizedRoleAccess, identityDetails(request, user, secevent.Details{
				"level":         user.Role.Level,
				"requiredLevel": maxLevel,
			}), secevent.SeverityMedium)
			return Reject(apperr.InsufficientRoleLevel())
		}
		return Continue(rc)
	}
}

// Require2FA admits users without 2FA, or whose session completed it.
func (guards *Guards) Require2FA() Stage {
	return func(request *http.Request, rc RequestContext) Result {
		user := rc.User()
		if user == nil {
			return Reject(apperr.AuthenticationRequired())
		}

		if user.TwoFactorEnabled && !rc.TwoFactorVerified() {
			guards.events.Record(secevent.EventTwoFactorRequired, identityDetails(request, user, nil), secevent.SeverityMedium)
			return Reject(apperr.TwoFactorRequired())
		}
		return Continue(rc)
	}
}

// CanAccessSector reports whether user may operate in sectorID.
//
// Super-admins and tenant owners reach every sector. Other users are limited
// to their explicit sector list, or to any active sector of the resolved tenant
// when that list is empty. sectorID may be a sector id or code.
func CanAccessSector(user account.User, resolved *tenant.Tenant, sectorID string) bool {
	if sec.IsSuperAdmin(user.Role) || sec.IsTenantOwner(user.Role) {
		return true
	}

	canonical := sectorID
	if resolved != nil {
		sector, found := tenant.FindSector(resolved, sectorID)
		if !found || !sector.IsActive {
			return false
		}
		canonical = sector.ID
	}

	if len(user.SectorIDs) == 0 {
		return resolved != nil
	}
	return account.HasSector(user, canonical) || account.HasSector(user, sectorID)
}
