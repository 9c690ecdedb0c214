// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account owns the identity side of the request pipeline: users, their
roles and the server-side sessions referenced by access tokens.

Architecture:

  - Predicates: Pure functions used by the authenticator (active user, usable
    session, IP allow-list).
  - Repository: PostgreSQL is authoritative, an optional Redis decorator keeps
    session lookups off the database for a short TTL.
  - Service: Login and logout, the only writers of session state.
*/
package account

import (
	"net"
	"slices"
	"time"

	"github.com/taibuivan/storehub/internal/platform/sec"
)

// # Status Values

// UserStatus is the lifecycle state of an account.
type UserStatus string

const (
	UserActive   UserStatus = "active"
	UserInactive UserStatus = "inactive"
)

// SessionStatus is the lifecycle state of a session.
type SessionStatus string

const (
	SessionActive  SessionStatus = "active"
	SessionExpired SessionStatus = "expired"
	SessionRevoked SessionStatus = "revoked"
)

// # Entities

// User is an administrator of the platform or of a single tenant.
//
// TenantID is empty for platform super-admins.
type User struct {
	ID               string     `json:"id"`
	TenantID         string     `json:"tenantId,omitempty"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"`
	Status           UserStatus `json:"status"`
	Role             sec.Role   `json:"role"`
	IsIPRestricted   bool       `json:"isIpRestricted"`
	AllowedIPs       []string   `json:"allowedIps,omitempty"`
	TwoFactorEnabled bool       `json:"twoFactorEnabled"`
	SectorIDs        []string   `json:"sectorIds,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// Session is the server-side record an access token points at via its sid claim.
type Session struct {
	ID                string        `json:"id"`
	UserID            string        `json:"userId"`
	TenantID          string        `json:"tenantId,omitempty"`
	Status            SessionStatus `json:"status"`
	TwoFactorVerified bool          `json:"twoFactorVerified"`
	IPAddress         string        `json:"ipAddress,omitempty"`
	UserAgent         string        `json:"userAgent,omitempty"`
	LastActivityAt    time.Time     `json:"lastActivityAt"`
	CreatedAt         time.Time     `json:"createdAt"`
	ExpiresAt         time.Time     `json:"expiresAt"`
}

// SessionRecord is a session joined with its owning user and role.
type SessionRecord struct {
	Session Session `json:"session"`
	User    User    `json:"user"`
}

// # Predicates

// IsUserActive reports whether the account may authenticate.
func IsUserActive(user User) bool {
	return user.Status == UserActive
}

// SessionUsable reports whether a session still authorizes requests at now.
//
// A non-positive idle disables the inactivity check.
func SessionUsable(session Session, now time.Time, idle time.Duration) bool {
	if session.Status != SessionActive {
		return false
	}
	if !now.Before(session.ExpiresAt) {
		return false
	}
	if idle > 0 && now.Sub(session.LastActivityAt) > idle {
		return false
	}
	return true
}

// IPAllowed reports whether ip may be used by user.
//
// Unrestricted users pass. Restricted users need an exact entry in their
// allow-list; both sides are canonicalized so "::ffff:10.0.0.1" equals "10.0.0.1".
func IPAllowed(user User, ip string) bool {
	if !user.IsIPRestricted {
		return true
	}

	caller := canonicalIP(ip)
	if caller == "" {
		return false
	}

	return slices.ContainsFunc(user.AllowedIPs, func(allowed string) bool {
		return canonicalIP(allowed) == caller
	})
}

// HasSector reports whether sectorID is in the user's explicit sector list.
func HasSector(user User, sectorID string) bool {
	return slices.Contains(user.SectorIDs, sectorID)
}

func canonicalIP(raw string) string {
	parsed := net.ParseIP(raw)
	if parsed == nil {
		return ""
	}
	return parsed.String()
}
