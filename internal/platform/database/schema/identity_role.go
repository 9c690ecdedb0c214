// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// IdentityRoleTable represents the 'identity.role' table
type IdentityRoleTable struct {
	Table string
	ID    string
	Code  string
	Name  string
	Level string
}

// IdentityRole is the schema definition for identity.role
var IdentityRole = IdentityRoleTable{
	Table: "identity.role",
	ID:    "id",
	Code:  "code",
	Name:  "name",
	Level: "level",
}

// IdentityRolePermissionTable represents the 'identity.rolepermission' table
type IdentityRolePermissionTable struct {
	Table    string
	RoleID   string
	Resource string
	Action   string
}

// IdentityRolePermission is the schema definition for identity.rolepermission
var IdentityRolePermission = IdentityRolePermissionTable{
	Table:    "identity.rolepermission",
	RoleID:   "roleid",
	Resource: "resource",
	Action:   "action",
}
