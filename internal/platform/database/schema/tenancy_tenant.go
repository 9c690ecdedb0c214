// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// TenancyTenantTable represents the 'tenancy.tenant' table
type TenancyTenantTable struct {
	Table               string
	ID                  string
	Name                string
	Subdomain           string
	Domain              string
	IsActive            string
	Status              string
	SubscriptionEndDate string
	CreatedAt           string
	UpdatedAt           string
}

// TenancyTenant is the schema definition for tenancy.tenant
var TenancyTenant = TenancyTenantTable{
	Table:               "tenancy.tenant",
	ID:                  "id",
	Name:                "name",
	Subdomain:           "subdomain",
	Domain:              "domain",
	IsActive:            "isactive",
	Status:              "status",
	SubscriptionEndDate: "subscriptionenddate",
	CreatedAt:           "createdat",
	UpdatedAt:           "updatedat",
}

// Columns returns all standard column names
func (t TenancyTenantTable) Columns() []string {
	return []string{
		t.ID, t.Name, t.Subdomain, t.Domain, t.IsActive, t.Status, t.SubscriptionEndDate, t.CreatedAt, t.UpdatedAt,
	}
}
