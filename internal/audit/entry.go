// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package audit keeps the durable record of what every audited request did.

It is distinct from the security event log: security events name failure
categories for alerting, audit entries record each request's outcome whether
it passed or failed.

Architecture:

  - Recorder: HTTP middleware capturing status, duration and a sanitized view
    of the request. Persistence runs off the request path and never fails it.
  - Store: PostgreSQL persistence and the paginated listing behind the admin
    endpoint.
*/
package audit

import "time"

// # Status & Actions

// Status is the outcome recorded for an audited request.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusPending Status = "pending"
)

// Fixed action labels used by the recorder specializations.
const (
	ActionCreate = "create"
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionLogin  = "login"
	ActionLogout = "logout"
	ActionAccess = "access"
)

// Actions lists the fixed action labels.
func Actions() []string {
	return []string{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionLogin, ActionLogout, ActionAccess}
}

// ResourceUser labels login and logout entries.
const ResourceUser = "user"

// # Domain Model

// Entry is one audit log record.
type Entry struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	ResourceID string         `json:"resourceId,omitempty"`
	Details    map[string]any `json:"details"`
	Status     Status         `json:"status"`
	IPAddress  string         `json:"ipAddress,omitempty"`
	UserAgent  string         `json:"userAgent,omitempty"`
	DurationMS int64          `json:"durationMs"`
	Error      string         `json:"error,omitempty"`
	UserID     string         `json:"userId,omitempty"`
	TenantID   string         `json:"tenantId,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// StatusFor maps an HTTP status code to an entry status: 2xx is a success.
func StatusFor(httpStatus int) Status {
	if httpStatus >= 200 && httpStatus < 300 {
		return StatusSuccess
	}
	return StatusFailure
}
