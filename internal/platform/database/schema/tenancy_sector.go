// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// TenancySectorTable represents the 'tenancy.sector' table
type TenancySectorTable struct {
	Table string
	ID    string
	Code  string
	Name  string
}

// TenancySector is the schema definition for tenancy.sector
var TenancySector = TenancySectorTable{
	Table: "tenancy.sector",
	ID:    "id",
	Code:  "code",
	Name:  "name",
}

// TenancyTenantSectorTable represents the 'tenancy.tenantsector' join table
type TenancyTenantSectorTable struct {
	Table    string
	TenantID string
	SectorID string
	IsActive string
}

// TenancyTenantSector is the schema definition for tenancy.tenantsector
var TenancyTenantSector = TenancyTenantSectorTable{
	Table:    "tenancy.tenantsector",
	TenantID: "tenantid",
	SectorID: "sectorid",
	IsActive: "isactive",
}
