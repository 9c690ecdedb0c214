// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// SystemAuditLogTable represents the 'system.auditlog' table
type SystemAuditLogTable struct {
	Table      string
	ID         string
	Action     string
	Resource   string
	ResourceID string
	Details    string
	Status     string
	IPAddress  string
	UserAgent  string
	DurationMS string
	Error      string
	AccountID  string
	TenantID   string
	CreatedAt  string
}

// SystemAuditLog is the schema definition for system.auditlog
var SystemAuditLog = SystemAuditLogTable{
	Table:      "system.auditlog",
	ID:         "id",
	Action:     "action",
	Resource:   "resource",
	ResourceID: "resourceid",
	Details:    "details",
	Status:     "status",
	IPAddress:  "ipaddress",
	UserAgent:  "useragent",
	DurationMS: "durationms",
	Error:      "error",
	AccountID:  "accountid",
	TenantID:   "tenantid",
	CreatedAt:  "createdat",
}

// Columns returns all standard column names
func (t SystemAuditLogTable) Columns() []string {
	return []string{
		t.ID, t.Action, t.Resource, t.ResourceID, t.Details, t.Status, t.IPAddress,
		t.UserAgent, t.DurationMS, t.Error, t.AccountID, t.TenantID, t.CreatedAt,
	}
}
