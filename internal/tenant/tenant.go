// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package tenant identifies and resolves the customer organization behind a request.

It owns three concerns:

  - Extraction: deriving tenant and sector identifiers from request data.
  - Resolution: looking a tenant up by id, subdomain or custom domain.
  - Policy: pure predicates over a tenant snapshot (activation, subscription, sectors).

The pipeline stage that turns these into accept/reject decisions lives in the
gate package; nothing here writes a response.
*/
package tenant

import (
	"slices"
	"strings"
	"time"
)

// # Lifecycle Status

// Status is the lifecycle state of a tenant, driven by billing and admin workflows.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusInactive  Status = "inactive"
	StatusPending   Status = "pending"
)

// # Domain Model

// Sector is a business-vertical partition a tenant may enable (e.g. pos, warehouse).
type Sector struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
}

// Tenant is a read-only snapshot of a customer organization.
type Tenant struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Subdomain           string     `json:"subdomain"`
	Domain              string     `json:"domain,omitempty"`
	IsActive            bool       `json:"isActive"`
	Status              Status     `json:"status"`
	SubscriptionEndDate *time.Time `json:"subscriptionEndDate,omitempty"`
	Sectors             []Sector   `json:"sectors"`
	CreatedAt           time.Time  `json:"createdAt"`
}

// Clone returns a deep copy so callers can never mutate a shared snapshot.
func (t *Tenant) Clone() *Tenant {
	if t == nil {
		return nil
	}

	clone := *t
	clone.Sectors = slices.Clone(t.Sectors)
	if t.SubscriptionEndDate != nil {
		end := *t.SubscriptionEndDate
		clone.SubscriptionEndDate = &end
	}
	return &clone
}

// # Policy Predicates

// SubscriptionActive reports whether the subscription is still running at now.
// A tenant without an end date never expires.
func SubscriptionActive(t *Tenant, now time.Time) bool {
	if t.SubscriptionEndDate == nil {
		return true
	}
	return t.SubscriptionEndDate.After(now)
}

// HasActiveSector reports whether at least one enabled sector is active.
func HasActiveSector(t *Tenant) bool {
	return slices.ContainsFunc(t.Sectors, func(sector Sector) bool {
		return sector.IsActive
	})
}

// Activated reports the activation half of the usability invariant: the flag is
// set, the lifecycle status is active and at least one sector is active.
func Activated(t *Tenant) bool {
	return t.IsActive && t.Status == StatusActive && HasActiveSector(t)
}

// IsUsable reports whether the tenant may serve requests at now.
func IsUsable(t *Tenant, now time.Time) bool {
	return Activated(t) && SubscriptionActive(t, now)
}

// HasSectorAccess reports whether the tenant grants the sector identified by
// id or code. Only active sectors grant access.
func HasSectorAccess(t *Tenant, sector string) bool {
	if sector == "" {
		return false
	}

	return slices.ContainsFunc(t.Sectors, func(candidate Sector) bool {
		if !candidate.IsActive {
			return false
		}
		return candidate.ID == sector || strings.EqualFold(candidate.Code, sector)
	})
}

// FindSector returns the tenant sector matching id or code.
func FindSector(t *Tenant, sector string) (Sector, bool) {
	for _, candidate := range t.Sectors {
		if candidate.ID == sector || strings.EqualFold(candidate.Code, sector) {
			return candidate, true
		}
	}
	return Sector{}, false
}
