// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package gate_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/storehub/internal/account"
	"github.com/taibuivan/storehub/internal/gate"
	"github.com/taibuivan/storehub/internal/platform/apperr"
	"github.com/taibuivan/storehub/internal/platform/sec"
	"github.com/taibuivan/storehub/internal/secevent"
)

// identity builds a record as the authenticator would leave it.
func identity(user account.User, session account.Session) gate.RequestContext {
	return gate.RequestContext{}.
		WithTenant(demoTenant(), "").
		WithIdentity(&user, &session, "token", &sec.AuthClaims{UserID: user.ID})
}

func userWithRole(code sec.RoleCode, permissions ...sec.Permission) account.User {
	return account.User{
		ID:       "user-" + string(code),
		TenantID: demoTenantID,
		Status:   account.UserActive,
		Role:     sec.Role{Code: code, Level: sec.DefaultLevel(code), Permissions: permissions},
	}
}

func runStage(stage gate.Stage, rc gate.RequestContext) gate.Result {
	request := httptest.NewRequest(http.MethodGet, "/api/v1/stores", nil)
	return gate.Run(request, rc, stage)
}

/*
TestGuards_RequireAuthentication rejects every guard without an identity.
*/
func TestGuards_RequireAuthentication(t *testing.T) {
	guards := gate.NewGuards(&secevent.Memory{})

	stages := map[string]gate.Stage{
		"super_admin":  guards.RequireSuperAdmin(),
		"tenant_owner": guards.RequireTenantOwner(),
		"tenant_scope": guards.RequireTenantScope(),
		"sector":       guards.RequireSectorAccess(),
		"permission":   guards.RequirePermission("stores", "read"),
		"role":         guards.RequireRole(6),
		"two_factor":   guards.Require2FA(),
	}

	for name, stage := range stages {
		t.Run(name, func(t *testing.T) {
			result := runStage(stage, gate.RequestContext{})
			require.True(t, result.Rejected())
			assert.Equal(t, apperr.CodeAuthenticationRequired, result.Err().Code)
			assert.Equal(t, http.StatusUnauthorized, result.Err().HTTPStatus)
		})
	}
}

/*
TestGuards_Roles covers the super-admin and tenant-owner guards.
*/
func TestGuards_Roles(t *testing.T) {
	events := &secevent.Memory{}
	guards := gate.NewGuards(events)
	session := account.Session{ID: "s"}

	superAdmin := identity(userWithRole(sec.RoleSuperAdmin), session)
	owner := identity(userWithRole(sec.RoleTenantOwner), session)
	staff := identity(userWithRole(sec.RoleStaff), session)

	assert.False(t, runStage(guards.RequireSuperAdmin(), superAdmin).Rejected())
	assert.False(t, runStage(guards.RequireTenantOwner(), superAdmin).Rejected())
	assert.False(t, runStage(guards.RequireTenantOwner(), owner).Rejected())

	result := runStage(guards.RequireSuperAdmin(), owner)
	require.True(t, result.Rejected())
	assert.Equal(t, apperr.CodeInsufficientPermissions, result.Err().Code)
	assert.Equal(t, "Super Admin access required", result.Err().Message)
	event, _ := events.Last()
	assert.Equal(t, secevent.EventUnauthorizedAccessAttempt, event.Name)
	assert.Equal(t, secevent.SeverityHigh, event.Severity)

	result = runStage(guards.RequireTenantOwner(), staff)
	require.True(t, result.Rejected())
	assert.Equal(t, "Tenant Owner access required", result.Err().Message)
	event, _ = events.Last()
	assert.Equal(t, secevent.SeverityMedium, event.Severity)
}

/*
TestGuards_ScenarioC rejects a level-5 user on a level-3 route.
*/
func TestGuards_ScenarioC(t *testing.T) {
	events := &secevent.Memory{}
	guards := gate.NewGuards(events)

	result := runStage(guards.RequireRole(3), identity(userWithRole(sec.RoleStaff), account.Session{}))
	require.True(t, result.Rejected())
	assert.Equal(t, apperr.CodeInsufficientRoleLevel, result.Err().Code)
	assert.Equal(t, http.StatusForbidden, result.Err().HTTPStatus)

	event, _ := events.Last()
	assert.Equal(t, secevent.EventUnauthorizedRoleAccess, event.Name)
	assert.Equal(t, secevent.SeverityMedium, event.Severity)

	assert.False(t, runStage(guards.RequireRole(3), identity(userWithRole(sec.RoleStoreManager), account.Session{})).Rejected())
}

/*
TestGuards_CompositionShortCircuits never evaluates guards after a rejection.
*/
func TestGuards_CompositionShortCircuits(t *testing.T) {
	events := &secevent.Memory{}
	guards := gate.NewGuards(events)

	evaluated := false
	spy := func(stage gate.Stage) gate.Stage {
		return func(request *http.Request, rc gate.RequestContext) gate.Result {
			evaluated = true
			return stage(request, rc)
		}
	}

	manager := userWithRole(sec.RoleStoreManager, sec.Permission{Resource: "stores", Action: "read"})
	chain := gate.Chain(guards.RequireRole(2), spy(guards.RequirePermission("stores", "write")))

	result := runStage(chain, identity(manager, account.Session{}))
	require.True(t, result.Rejected())
	assert.Equal(t, apperr.CodeInsufficientRoleLevel, result.Err().Code)
	assert.False(t, evaluated)
	assert.Len(t, events.Events(), 1)
}

/*
TestGuards_RequirePermission reports the denied action and resource.
*/
func TestGuards_RequirePermission(t *testing.T) {
	events := &secevent.Memory{}
	guards := gate.NewGuards(events)
	manager := identity(userWithRole(sec.RoleStoreManager, sec.Permission{Resource: "stores", Action: "write"}), account.Session{})

	assert.False(t, runStage(guards.RequirePermission("stores", "write"), manager).Rejected())

	result := runStage(guards.RequirePermission("stores", "delete"), manager)
	require.True(t, result.Rejected())
	assert.Equal(t, "Permission denied: delete on stores", result.Err().Message)

	event, _ := events.Last()
	assert.Equal(t, secevent.EventUnauthorizedPermission, event.Name)
	assert.Equal(t, "stores", event.Details["resource"])
}

/*
TestGuards_RequireSectorAccess covers missing, granted and denied sectors.
*/
func TestGuards_RequireSectorAccess(t *testing.T) {
	events := &secevent.Memory{}
	guards := gate.NewGuards(events)

	restricted := userWithRole(sec.RoleSectorManager)
	restricted.SectorIDs = []string{"sector-wh"}

	unrestricted := userWithRole(sec.RoleStaff)

	withSector := func(user account.User, sectorID string) gate.RequestContext {
		return identity(user, account.Session{}).WithTenant(demoTenant(), sectorID)
	}

	// 1. Missing sector
	result := runStage(guards.RequireSectorAccess(), identity(unrestricted, account.Session{}))
	require.True(t, result.Rejected())
	assert.Equal(t, apperr.CodeSectorIDMissing, result.Err().Code)
	assert.Equal(t, http.StatusBadRequest, result.Err().HTTPStatus)

	// 2. Empty sector list reaches any active tenant sector
	assert.False(t, runStage(guards.RequireSectorAccess(), withSector(unrestricted, "sector-pos")).Rejected())

	// 3. Explicit list must contain the sector
	result = runStage(guards.RequireSectorAccess(), withSector(restricted, "sector-pos"))
	require.True(t, result.Rejected())
	assert.Equal(t, apperr.CodeSectorAccessDenied, result.Err().Code)
	event, _ := events.Last()
	assert.Equal(t, secevent.EventUnauthorizedSectorAccess, event.Name)
	assert.Equal(t, secevent.SeverityHigh, event.Severity)

	// 4. Owners reach every sector
	assert.False(t, runStage(guards.RequireSectorAccess(), withSector(userWithRole(sec.RoleTenantOwner), "sector-pos")).Rejected())
}

/*
TestGuards_SectorFromRouteParam falls back to the sectorId URL parameter.
*/
func TestGuards_SectorFromRouteParam(t *testing.T) {
	guards := gate.NewGuards(&secevent.Memory{})

	routeContext := chi.NewRouteContext()
	routeContext.URLParams.Add(gate.SectorParam, "pos")
	request := httptest.NewRequest(http.MethodGet, "/api/v1/sectors/pos", nil)
	request = request.WithContext(context.WithValue(request.Context(), chi.RouteCtxKey, routeContext))

	result := gate.Run(request, identity(userWithRole(sec.RoleStaff), account.Session{}), guards.RequireSectorAccess())
	assert.False(t, result.Rejected())
}

/*
TestGuards_Require2FA only blocks 2FA-enabled users on unverified sessions.
*/
func TestGuards_Require2FA(t *testing.T) {
	guards := gate.NewGuards(&secevent.Memory{})

	plain := userWithRole(sec.RoleStaff)
	enrolled := userWithRole(sec.RoleStaff)
	enrolled.TwoFactorEnabled = true

	assert.False(t, runStage(guards.Require2FA(), identity(plain, account.Session{})).Rejected())
	assert.False(t, runStage(guards.Require2FA(), identity(enrolled, account.Session{TwoFactorVerified: true})).Rejected())

	result := runStage(guards.Require2FA(), identity(enrolled, account.Session{}))
	require.True(t, result.Rejected())
	assert.Equal(t, apperr.Code2FARequired, result.Err().Code)
}

/*
TestGuards_RequireTenantScope blocks users of another tenant.
*/
func TestGuards_RequireTenantScope(t *testing.T) {
	events := &secevent.Memory{}
	guards := gate.NewGuards(events)

	outsider := userWithRole(sec.RoleTenantOwner)
	outsider.TenantID = "another-tenant"

	assert.False(t, runStage(guards.RequireTenantScope(), identity(userWithRole(sec.RoleStaff), account.Session{})).Rejected())
	assert.False(t, runStage(guards.RequireTenantScope(), identity(userWithRole(sec.RoleSuperAdmin), account.Session{})).Rejected())

	result := runStage(guards.RequireTenantScope(), identity(outsider, account.Session{}))
	require.True(t, result.Rejected())
	assert.Equal(t, apperr.CodeInsufficientPermissions, result.Err().Code)
	event, _ := events.Last()
	assert.Equal(t, secevent.EventCrossTenantAccess, event.Name)
}
