// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// IdentityAccountTable represents the 'identity.account' table
type IdentityAccountTable struct {
	Table            string
	ID               string
	TenantID         string
	RoleID           string
	Email            string
	PasswordHash     string
	Status           string
	IsIPRestricted   string
	AllowedIPs       string
	TwoFactorEnabled string
	CreatedAt        string
	UpdatedAt        string
}

// IdentityAccount is the schema definition for identity.account
var IdentityAccount = IdentityAccountTable{
	Table:            "identity.account",
	ID:               "id",
	TenantID:         "tenantid",
	RoleID:           "roleid",
	Email:            "email",
	PasswordHash:     "passwordhash",
	Status:           "status",
	IsIPRestricted:   "isiprestricted",
	AllowedIPs:       "allowedips",
	TwoFactorEnabled: "twofactorenabled",
	CreatedAt:        "createdat",
	UpdatedAt:        "updatedat",
}

// IdentityAccountSectorTable represents the 'identity.accountsector' table
type IdentityAccountSectorTable struct {
	Table     string
	AccountID string
	SectorID  string
}

// IdentityAccountSector is the schema definition for identity.accountsector
var IdentityAccountSector = IdentityAccountSectorTable{
	Table:     "identity.accountsector",
	AccountID: "accountid",
	SectorID:  "sectorid",
}
