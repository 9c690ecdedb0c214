// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"time"

	"github.com/taibuivan/storehub/internal/platform/database/schema"
	"github.com/taibuivan/storehub/internal/platform/dberr"
	"github.com/taibuivan/storehub/internal/platform/postgres"
	"github.com/taibuivan/storehub/internal/platform/sec"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	db postgres.DBTX
}

// NewPostgresRepository creates an account repository on top of a pool or transaction.
func NewPostgresRepository(db postgres.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// userColumns selects an account joined with its role, aliased a and r.
func userColumns() string {
	a, r := schema.IdentityAccount, schema.IdentityRole
	return fmt.Sprintf(
		"a.%s, COALESCE(a.%s::text, ''), a.%s, a.%s, a.%s, a.%s, a.%s, a.%s, a.%s, r.%s, r.%s, r.%s",
		a.ID, a.TenantID, a.Email, a.PasswordHash, a.Status, a.IsIPRestricted, a.AllowedIPs, a.TwoFactorEnabled, a.CreatedAt,
		r.ID, r.Code, r.Level,
	)
}

func userScanTargets(user *User) []any {
	return []any{
		&user.ID, &user.TenantID, &user.Email, &user.PasswordHash, &user.Status,
		&user.IsIPRestricted, &user.AllowedIPs, &user.TwoFactorEnabled, &user.CreatedAt,
		&user.Role.ID, &user.Role.Code, &user.Role.Level,
	}
}

/*
FindUserByEmail loads an account by its (case-insensitive) email.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Account with role, permissions and sectors
  - error: ErrUserNotFound or database errors
*/
func (repository *PostgresRepository) FindUserByEmail(context context.Context, email string) (*User, error) {
	a, r := schema.IdentityAccount, schema.IdentityRole
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s a
		JOIN %s r ON r.%s = a.%s
		WHERE LOWER(a.%s) = LOWER($1)`,
		userColumns(),
		a.Table,
		r.Table, r.ID, a.RoleID,
		a.Email,
	)

	user := &User{}
	if err := repository.db.QueryRow(context, query, email).Scan(userScanTargets(user)...); err != nil {
		if dberr.IsNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("postgres_account_repo_find_user_failed: %w", err)
	}

	if err := repository.loadGrants(context, user); err != nil {
		return nil, err
	}
	return user, nil
}

/*
FindSession loads a session joined with its account and role.

Parameters:
  - context: context.Context
  - sessionID: string

Returns:
  - *SessionRecord: Session, user and role
  - error: ErrSessionNotFound or database errors
*/
func (repository *PostgresRepository) FindSession(context context.Context, sessionID string) (*SessionRecord, error) {
	s, a, r := schema.IdentitySession, schema.IdentityAccount, schema.IdentityRole
	query := fmt.Sprintf(`
		SELECT s.%s, s.%s, COALESCE(s.%s::text, ''), s.%s, s.%s,
		       COALESCE(s.%s, ''), COALESCE(s.%s, ''), s.%s, s.%s, s.%s,
		       %s
		FROM %s s
		JOIN %s a ON a.%s = s.%s
		JOIN %s r ON r.%s = a.%s
		WHERE s.%s::text = $1`,
		s.ID, s.AccountID, s.TenantID, s.Status, s.TwoFactorVerified,
		s.IPAddress, s.UserAgent, s.LastActivityAt, s.CreatedAt, s.ExpiresAt,
		userColumns(),
		s.Table,
		a.Table, a.ID, s.AccountID,
		r.Table, r.ID, a.RoleID,
		s.ID,
	)

	record := &SessionRecord{}
	session := &record.Session
	targets := append([]any{
		&session.ID, &session.UserID, &session.TenantID, &session.Status, &session.TwoFactorVerified,
		&session.IPAddress, &session.UserAgent, &session.LastActivityAt, &session.CreatedAt, &session.ExpiresAt,
	}, userScanTargets(&record.User)...)

	if err := repository.db.QueryRow(context, query, sessionID).Scan(targets...); err != nil {
		if dberr.IsNoRows(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("postgres_account_repo_find_session_failed: %w", err)
	}

	if err := repository.loadGrants(context, &record.User); err != nil {
		return nil, err
	}
	return record, nil
}

// loadGrants attaches role permissions and explicit sector assignments.
func (repository *PostgresRepository) loadGrants(context context.Context, user *User) error {
	p, as := schema.IdentityRolePermission, schema.IdentityAccountSector

	permissionQuery := fmt.Sprintf(
		"SELECT %s, %s FROM %s WHERE %s = $1 ORDER BY %s, %s",
		p.Resource, p.Action, p.Table, p.RoleID, p.Resource, p.Action,
	)
	rows, err := repository.db.Query(context, permissionQuery, user.Role.ID)
	if err != nil {
		return fmt.Errorf("postgres_account_repo_permissions_failed: %w", err)
	}
	defer rows.Close()

	user.Role.Permissions = make([]sec.Permission, 0)
	for rows.Next() {
		var permission sec.Permission
		if err := rows.Scan(&permission.Resource, &permission.Action); err != nil {
			return fmt.Errorf("postgres_account_repo_scan_permission_failed: %w", err)
		}
		user.Role.Permissions = append(user.Role.Permissions, permission)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("postgres_account_repo_permissions_failed: %w", err)
	}

	sectorQuery := fmt.Sprintf(
		"SELECT %s::text FROM %s WHERE %s = $1 ORDER BY %s",
		as.SectorID, as.Table, as.AccountID, as.SectorID,
	)
	sectorRows, err := repository.db.Query(context, sectorQuery, user.ID)
	if err != nil {
		return fmt.Errorf("postgres_account_repo_sectors_failed: %w", err)
	}
	defer sectorRows.Close()

	for sectorRows.Next() {
		var sectorID string
		if err := sectorRows.Scan(&sectorID); err != nil {
			return fmt.Errorf("postgres_account_repo_scan_sector_failed: %w", err)
		}
		user.SectorIDs = append(user.SectorIDs, sectorID)
	}
	if err := sectorRows.Err(); err != nil {
		return fmt.Errorf("postgres_account_repo_sectors_failed: %w", err)
	}

	return nil
}

/*
CreateSession inserts a new session row.

Parameters:
  - context: context.Context
  - session: *Session

Returns:
  - error: Conflict on duplicate id or database errors
*/
func (repository *PostgresRepository) CreateSession(context context.Context, session *Session) error {
	s := schema.IdentitySession
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, NULLIF($3, '')::uuid, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9, $10)`,
		s.Table,
		s.ID, s.AccountID, s.TenantID, s.Status, s.TwoFactorVerified,
		s.IPAddress, s.UserAgent, s.LastActivityAt, s.CreatedAt, s.ExpiresAt,
	)

	_, err := repository.db.Exec(context, query,
		session.ID, session.UserID, session.TenantID, session.Status, session.TwoFactorVerified,
		session.IPAddress, session.UserAgent, session.LastActivityAt, session.CreatedAt, session.ExpiresAt,
	)
	if err != nil {
		return dberr.Wrap(err, "Session")
	}
	return nil
}

// TouchActivity bumps lastactivityat on an active session.
func (repository *PostgresRepository) TouchActivity(context context.Context, sessionID string, at time.Time) error {
	s := schema.IdentitySession
	query := fmt.Sprintf(
		"UPDATE %s SET %s = $2 WHERE %s::text = $1 AND %s = $3",
		s.Table, s.LastActivityAt, s.ID, s.Status,
	)

	if _, err := repository.db.Exec(context, query, sessionID, at, SessionActive); err != nil {
		return fmt.Errorf("postgres_account_repo_touch_failed: %w", err)
	}
	return nil
}

/*
RevokeSession marks a session revoked.

Parameters:
  - context: context.Context
  - sessionID: string
  - at: time.Time

Returns:
  - error: ErrSessionNotFound or database errors
*/
func (repository *PostgresRepository) RevokeSession(context context.Context, sessionID string, at time.Time) error {
	s := schema.IdentitySession
	query := fmt.Sprintf(
		"UPDATE %s SET %s = $2, %s = $3 WHERE %s::text = $1",
		s.Table, s.Status, s.RevokedAt, s.ID,
	)

	tag, err := repository.db.Exec(context, query, sessionID, SessionRevoked, at)
	if err != nil {
		return fmt.Errorf("postgres_account_repo_revoke_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}
