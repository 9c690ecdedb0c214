// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tenant

import (
	"context"

	"github.com/taibuivan/storehub/internal/platform/apperr"
)

// ErrNotFound is returned by repositories when no tenant matches an identifier.
var ErrNotFound = apperr.NotFound("Tenant")

// # Tenant Data Access

// Repository defines the lookup contract the resolver depends on.
type Repository interface {

	/*
		FindByIdentifier returns the tenant whose id, subdomain or custom domain
		matches identifier, together with its enabled sectors.

		Parameters:
		  - context: context.Context
		  - identifier: string

		Returns:
		  - *Tenant: Hydrated snapshot
		  - error: [ErrNotFound] or storage failures
	*/
	FindByIdentifier(context context.Context, identifier string) (*Tenant, error)
}
