// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tenant

import (
	"context"
	"fmt"

	"github.com/taibuivan/storehub/internal/platform/database/schema"
	"github.com/taibuivan/storehub/internal/platform/dberr"
	"github.com/taibuivan/storehub/internal/platform/postgres"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	db postgres.DBTX
}

// NewPostgresRepository creates a tenant repository on top of a pool or transaction.
func NewPostgresRepository(db postgres.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

/*
FindByIdentifier matches identifier against id, subdomain and domain.

Description: Exact matches win over the case-insensitive subdomain fallback,
in the order id, subdomain, domain.

Parameters:
  - context: context.Context
  - identifier: string

Returns:
  - *Tenant: Tenant with its sectors
  - error: ErrNotFound or database errors
*/
func (repository *PostgresRepository) FindByIdentifier(context context.Context, identifier string) (*Tenant, error) {
	t := schema.TenancyTenant
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, COALESCE(%s, ''), %s, %s, %s, %s
		FROM %s
		WHERE %s::text = $1 OR LOWER(%s) = LOWER($1) OR LOWER(%s) = LOWER($1)
		ORDER BY CASE
			WHEN %s::text = $1 THEN 0
			WHEN %s = $1 THEN 1
			WHEN %s = $1 THEN 2
			ELSE 3
		END
		LIMIT 1`,
		t.ID, t.Name, t.Subdomain, t.Domain, t.IsActive, t.Status, t.SubscriptionEndDate, t.CreatedAt,
		t.Table,
		t.ID, t.Subdomain, t.Domain,
		t.ID, t.Subdomain, t.Domain,
	)

	tenant := &Tenant{}
	err := repository.db.QueryRow(context, query, identifier).Scan(
		&tenant.ID,
		&tenant.Name,
		&tenant.Subdomain,
		&tenant.Domain,
		&tenant.IsActive,
		&tenant.Status,
		&tenant.SubscriptionEndDate,
		&tenant.CreatedAt,
	)
	if err != nil {
		if dberr.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("postgres_tenant_repo_find_failed: %w", err)
	}

	sectors, err := repository.findSectors(context, tenant.ID)
	if err != nil {
		return nil, err
	}
	tenant.Sectors = sectors

	return tenant, nil
}

// findSectors loads the sectors enabled for a tenant.
func (repository *PostgresRepository) findSectors(context context.Context, tenantID string) ([]Sector, error) {
	s, ts := schema.TenancySector, schema.TenancyTenantSector
	query := fmt.Sprintf(`
		SELECT s.%s, s.%s, s.%s, ts.%s
		FROM %s ts
		JOIN %s s ON s.%s = ts.%s
		WHERE ts.%s = $1
		ORDER BY s.%s`,
		s.ID, s.Code, s.Name, ts.IsActive,
		ts.Table,
		s.Table, s.ID, ts.SectorID,
		ts.TenantID,
		s.Code,
	)

	rows, err := repository.db.Query(context, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("postgres_tenant_repo_sectors_failed: %w", err)
	}
	defer rows.Close()

	sectors := make([]Sector, 0)
	for rows.Next() {
		var sector Sector
		if err := rows.Scan(&sector.ID, &sector.Code, &sector.Name, &sector.IsActive); err != nil {
			return nil, fmt.Errorf("postgres_tenant_repo_scan_sector_failed: %w", err)
		}
		sectors = append(sectors, sector)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_tenant_repo_sectors_failed: %w", err)
	}

	return sectors, nil
}
