// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tenant

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
)

// NormalizeIdentifier trims and case-folds a tenant identifier.
//
// A Caser is stateful, so each call builds its own.
func NormalizeIdentifier(identifier string) string {
	return cases.Fold().String(strings.TrimSpace(identifier))
}

// Resolver looks tenants up by identifier and hands out private snapshots.
type Resolver struct {
	repository Repository
}

// NewResolver creates a resolver backed by repository (optionally a [RedisCache]).
func NewResolver(repository Repository) *Resolver {
	return &Resolver{repository: repository}
}

/*
Resolve returns the tenant matching identifier.

Description: The returned value is a deep copy. Resolving the same identifier
twice yields equal snapshots and never mutates stored state.

Parameters:
  - context: context.Context
  - identifier: string

Returns:
  - *Tenant: Snapshot
  - error: ErrNotFound, or a lookup failure the caller must surface as internal
*/
func (resolver *Resolver) Resolve(context context.Context, identifier string) (*Tenant, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrNotFound
	}

	tenant, err := resolver.repository.FindByIdentifier(context, identifier)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, ErrNotFound
	}

	return tenant.Clone(), nil
}
