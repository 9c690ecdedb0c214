// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/taibuivan/storehub/internal/platform/apperr"
	"github.com/taibuivan/storehub/internal/platform/sec"
	"github.com/taibuivan/storehub/pkg/uuid"
)

// # Contracts & Types

// TokenIssuer signs access tokens for freshly created sessions.
type TokenIssuer interface {
	GenerateAccessToken(input sec.TokenInput, timeToLive time.Duration) (string, error)
}

// errInvalidCredentials is shared by every credential failure to prevent enumeration.
var errInvalidCredentials = apperr.Unauthorized("Invalid login credentials")

// Service implements the login and logout use cases.
type Service struct {
	repository Repository
	tokens     TokenIssuer
	tokenTTL   time.Duration
	now        func() time.Time
}

// NewService constructs a new [Service].
func NewService(repository Repository, tokens TokenIssuer, tokenTTL time.Duration) *Service {
	return &Service{
		repository: repository,
		tokens:     tokens,
		tokenTTL:   tokenTTL,
		now:        time.Now,
	}
}

// WithClock returns a copy of the service using clock as its time source.
func (service *Service) WithClock(clock func() time.Time) *Service {
	clone := *service
	clone.now = clock
	return &clone
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email     string
	Password  string
	TenantID  string // Resolved tenant of the request, empty when none
	IPAddress string
	UserAgent string
}

// LoginResult is a successfully established session.
type LoginResult struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	User        *User     `json:"user"`
	Session     *Session  `json:"session"`
}

/*
Login validates credentials, creates a session and issues an access token.

Description: Unknown emails, wrong passwords and tenant mismatches share one
generic error. Super-admins may log in under any tenant or none.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *LoginResult: Token, session and user
  - error: Unauthorized, USER_INACTIVE, IP_RESTRICTED or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*LoginResult, error) {

	// 1. Identity
	user, err := service.repository.FindUserByEmail(context, input.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("account_service_find_user_failed: %w", err)
	}

	// 2. Credentials (bcrypt compares in constant time)
	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, errInvalidCredentials
	}

	// 3. Account policy
	if !IsUserActive(*user) {
		return nil, apperr.UserInactive()
	}

	superAdmin := sec.IsSuperAdmin(user.Role)
	if !superAdmin && input.TenantID != "" && user.TenantID != input.TenantID {
		return nil, errInvalidCredentials
	}

	if !IPAllowed(*user, input.IPAddress) {
		return nil, apperr.IPRestricted()
	}

	// 4. Session
	tenantID := user.TenantID
	if superAdmin {
		tenantID = input.TenantID
	}

	now := service.now()
	session := &Session{
		ID:             uuid.New(),
		UserID:         user.ID,
		TenantID:       tenantID,
		Status:         SessionActive,
		IPAddress:      input.IPAddress,
		UserAgent:      input.UserAgent,
		LastActivityAt: now,
		CreatedAt:      now,
		ExpiresAt:      now.Add(service.tokenTTL),
	}
	if err := service.repository.CreateSession(context, session); err != nil {
		return nil, fmt.Errorf("account_service_create_session_failed: %w", err)
	}

	// 5. Token
	token, err := service.tokens.GenerateAccessToken(sec.TokenInput{
		UserID:    user.ID,
		SessionID: session.ID,
		TenantID:  tenantID,
		RoleID:    user.Role.ID,
		Role:      string(user.Role.Code),
	}, service.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("account_service_issue_token_failed: %w", err)
	}

	return &LoginResult{
		AccessToken: token,
		ExpiresAt:   session.ExpiresAt,
		User:        user,
		Session:     session,
	}, nil
}

/*
Logout revokes a session so its token stops authenticating immediately.

Parameters:
  - context: context.Context
  - sessionID: string

Returns:
  - error: ErrSessionNotFound or storage failures
*/
func (service *Service) Logout(context context.Context, sessionID string) error {
	if err := service.repository.RevokeSession(context, sessionID, service.now()); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return err
		}
		return fmt.Errorf("account_service_logout_failed: %w", err)
	}
	return nil
}
