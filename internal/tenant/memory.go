// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tenant

import (
	"context"
	"strings"
	"sync"
)

// MemoryRepository is an in-process [Repository] used by tests and local tooling.
type MemoryRepository struct {
	mu      sync.RWMutex
	tenants map[string]*Tenant

	// FailWith, when set, is returned by every lookup.
	FailWith error
}

// NewMemoryRepository returns a repository holding copies of tenants.
func NewMemoryRepository(tenants ...*Tenant) *MemoryRepository {
	repository := &MemoryRepository{tenants: map[string]*Tenant{}}
	for _, tenant := range tenants {
		repository.Put(tenant)
	}
	return repository
}

// Put stores or replaces a tenant.
func (repository *MemoryRepository) Put(tenant *Tenant) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	repository.tenants[tenant.ID] = tenant.Clone()
}

// FindByIdentifier matches the id exactly, then subdomain or domain case-insensitively.
func (repository *MemoryRepository) FindByIdentifier(_ context.Context, identifier string) (*Tenant, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	if repository.FailWith != nil {
		return nil, repository.FailWith
	}

	if tenant, ok := repository.tenants[identifier]; ok {
		return tenant.Clone(), nil
	}
	for _, tenant := range repository.tenants {
		if strings.EqualFold(tenant.Subdomain, identifier) || (tenant.Domain != "" && strings.EqualFold(tenant.Domain, identifier)) {
			return tenant.Clone(), nil
		}
	}
	return nil, ErrNotFound
}
