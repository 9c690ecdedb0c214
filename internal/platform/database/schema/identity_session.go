// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// IdentitySessionTable represents the 'identity.session' table
type IdentitySessionTable struct {
	Table             string
	ID                string
	AccountID         string
	TenantID          string
	Status            string
	TwoFactorVerified string
	IPAddress         string
	UserAgent         string
	LastActivityAt    string
	CreatedAt         string
	ExpiresAt         string
	RevokedAt         string
}

// IdentitySession is the schema definition for identity.session
var IdentitySession = IdentitySessionTable{
	Table:             "identity.session",
	ID:                "id",
	AccountID:         "accountid",
	TenantID:          "tenantid",
	Status:            "status",
	TwoFactorVerified: "twofactorverified",
	IPAddress:         "ipaddress",
	UserAgent:         "useragent",
	LastActivityAt:    "lastactivityat",
	CreatedAt:         "createdat",
	ExpiresAt:         "expiresat",
	RevokedAt:         "revokedat",
}
