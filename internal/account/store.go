// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"time"

	"github.com/taibuivan/storehub/internal/platform/apperr"
)

var (
	// ErrUserNotFound is returned when no account matches a lookup.
	ErrUserNotFound = apperr.NotFound("User")

	// ErrSessionNotFound is returned when a session id is unknown.
	ErrSessionNotFound = apperr.NotFound("Session")
)

// SessionStore is the read path the authenticator depends on.
type SessionStore interface {
	// FindSession returns the session with its user and role, whatever its status.
	FindSession(context context.Context, sessionID string) (*SessionRecord, error)

	// TouchActivity moves the session's last-activity timestamp to at.
	TouchActivity(context context.Context, sessionID string, at time.Time) error
}

// Repository is the full persistence contract of the account domain.
type Repository interface {
	SessionStore

	// FindUserByEmail returns the account with its role, permissions and sectors.
	FindUserByEmail(context context.Context, email string) (*User, error)

	// CreateSession persists a freshly issued session.
	CreateSession(context context.Context, session *Session) error

	// RevokeSession marks a session revoked. Unknown ids return [ErrSessionNotFound].
	RevokeSession(context context.Context, sessionID string, at time.Time) error
}
