// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/taibuivan/storehub/internal/platform/database/schema"
	"github.com/taibuivan/storehub/internal/platform/postgres"
	"github.com/taibuivan/storehub/pkg/pagination"
)

// PostgresStore implements [Store] and [Lister] using pgx.
type PostgresStore struct {
	db    postgres.DBTX
	ready atomic.Bool
}

// NewPostgresStore creates an audit store. It starts ready.
func NewPostgresStore(db postgres.DBTX) *PostgresStore {
	store := &PostgresStore{db: db}
	store.ready.Store(true)
	return store
}

// Ready reports whether writes are accepted.
func (store *PostgresStore) Ready() bool {
	return store.ready.Load()
}

// SetReady toggles write acceptance, e.g. off before the pool closes on shutdown.
func (store *PostgresStore) SetReady(ready bool) {
	store.ready.Store(ready)
}

/*
Create inserts one audit entry.

Parameters:
  - context: context.Context
  - entry: *Entry

Returns:
  - error: Encoding or database errors
*/
func (store *PostgresStore) Create(context context.Context, entry *Entry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("postgres_audit_store_encode_failed: %w", err)
	}

	a := schema.SystemAuditLog
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, NULLIF($7, ''), NULLIF($8, ''), $9, NULLIF($10, ''),
		        NULLIF($11, '')::uuid, NULLIF($12, '')::uuid, $13)`,
		a.Table, strings.Join(a.Columns(), ", "),
	)

	_, err = store.db.Exec(context, query,
		entry.ID, entry.Action, entry.Resource, entry.ResourceID, details, entry.Status,
		entry.IPAddress, entry.UserAgent, entry.DurationMS, entry.Error,
		entry.UserID, entry.TenantID, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres_audit_store_create_failed: %w", err)
	}
	return nil
}

/*
List returns one page of entries, newest first, with the total match count.

Parameters:
  - context: context.Context
  - filter: Filter
  - page: pagination.Params

Returns:
  - []Entry: Page of entries
  - int: Total matching entries
  - error: Database errors
*/
func (store *PostgresStore) List(context context.Context, filter Filter, page pagination.Params) ([]Entry, int, error) {
	a := schema.SystemAuditLog

	var conditions []string
	var args []any
	addCondition := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s::text = $%d", column, len(args)))
	}

	addCondition(a.TenantID, filter.TenantID)
	addCondition(a.AccountID, filter.UserID)
	addCondition(a.Action, filter.Action)
	addCondition(a.Resource, filter.Resource)
	addCondition(a.Status, string(filter.Status))

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	// 1. Total
	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s %s", a.Table, where)
	if err := store.db.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_audit_store_count_failed: %w", err)
	}

	// 2. Page
	pageArgs := append(args, page.Limit, page.Offset())
	listQuery := fmt.Sprintf(`
		SELECT %s, %s, %s, COALESCE(%s, ''), %s, %s, COALESCE(%s, ''), COALESCE(%s, ''), %s, COALESCE(%s, ''),
		       COALESCE(%s::text, ''), COALESCE(%s::text, ''), %s
		FROM %s %s
		ORDER BY %s DESC
		LIMIT $%d OFFSET $%d`,
		a.ID, a.Action, a.Resource, a.ResourceID, a.Details, a.Status, a.IPAddress, a.UserAgent, a.DurationMS, a.Error,
		a.AccountID, a.TenantID, a.CreatedAt,
		a.Table, where,
		a.CreatedAt,
		len(args)+1, len(args)+2,
	)

	rows, err := store.db.Query(context, listQuery, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_audit_store_list_failed: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, page.Limit)
	for rows.Next() {
		var entry Entry
		var details []byte
		if err := rows.Scan(
			&entry.ID, &entry.Action, &entry.Resource, &entry.ResourceID, &details, &entry.Status,
			&entry.IPAddress, &entry.UserAgent, &entry.DurationMS, &entry.Error,
			&entry.UserID, &entry.TenantID, &entry.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("postgres_audit_store_scan_failed: %w", err)
		}
		if err := json.Unmarshal(details, &entry.Details); err != nil {
			return nil, 0, fmt.Errorf("postgres_audit_store_decode_failed: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_audit_store_list_failed: %w", err)
	}

	return entries, total, nil
}
