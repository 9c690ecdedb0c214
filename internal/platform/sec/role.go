// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import "strings"

// # Role Codes

// RoleCode identifies a role independently of its storage representation.
type RoleCode string

const (
	// Platform operator, unrestricted across tenants
	RoleSuperAdmin RoleCode = "SUPER_ADMIN"

	// Owner of a tenant organization
	RoleTenantOwner RoleCode = "TENANT_OWNER"

	// Manages one or more stores inside a tenant
	RoleStoreManager RoleCode = "STORE_MANAGER"

	// Manages a single sector (e.g. POS or warehouse)
	RoleSectorManager RoleCode = "SECTOR_MANAGER"

	// Day-to-day operator
	RoleStaff RoleCode = "STAFF"

	// Read-only access
	RoleViewer RoleCode = "VIEWER"
)

// Wildcard matches any resource or action inside a [Permission].
const Wildcard = "*"

// # Role Model

// Permission grants one action on one resource, e.g. {Resource: "stores", Action: "write"}.
type Permission struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

// String renders the permission as "resource:action".
func (p Permission) String() string {
	return p.Resource + ":" + p.Action
}

// ParsePermission parses "resource:action". It reports false for malformed input.
func ParsePermission(raw string) (Permission, bool) {
	resource, action, found := strings.Cut(strings.TrimSpace(raw), ":")
	if !found || resource == "" || action == "" {
		return Permission{}, false
	}
	return Permission{Resource: resource, Action: action}, true
}

// Role is the authorization profile attached to a user.
//
// Level ordering is total: a lower number means more privilege.
type Role struct {
	ID          string       `json:"id"`
	Code        RoleCode     `json:"code"`
	Level       int          `json:"level"`
	Permissions []Permission `json:"permissions"`
}

// # Role Hierarchy

// DefaultLevel maps a built-in role code to its numeric level.
// Unknown codes return 0, which no level check accepts.
func DefaultLevel(code RoleCode) int {

	// Linear scale (1-6), 1 is the most privileged
	switch code {
	case RoleSuperAdmin:
		return 1
	case RoleTenantOwner:
		return 2
	case RoleStoreManager:
		return 3
	case RoleSectorManager:
		return 4
	case RoleStaff:
		return 5
	case RoleViewer:
		return 6
	default:
		return 0
	}
}

// # Predicates

// IsSuperAdmin reports whether the role denotes the platform super-admin.
func IsSuperAdmin(role Role) bool {
	return role.Code == RoleSuperAdmin
}

// IsTenantOwner reports whether the role denotes a tenant owner.
func IsTenantOwner(role Role) bool {
	return role.Code == RoleTenantOwner
}

// WithinLevel reports whether role is at least as privileged as maxLevel.
//
// Levels below 1 are treated as unassigned and never satisfy the check.
func WithinLevel(role Role, maxLevel int) bool {
	if role.Level < 1 {
		return false
	}
	return role.Level <= maxLevel
}

// HasPermission reports whether role grants action on resource.
//
// Super-admins hold every permission. Otherwise a grant matches when both its
// resource and action equal the request or are the [Wildcard].
func HasPermission(role Role, action, resource string) bool {
	if IsSuperAdmin(role) {
		return true
	}

	for _, granted := range role.Permissions {
		resourceMatch := granted.Resource == Wildcard || strings.EqualFold(granted.Resource, resource)
		actionMatch := granted.Action == Wildcard || strings.EqualFold(granted.Action, action)
		if resourceMatch && actionMatch {
			return true
		}
	}
	return false
}
