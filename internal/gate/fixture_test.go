// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package gate_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taibuivan/storehub/internal/account"
	"github.com/taibuivan/storehub/internal/gate"
	"github.com/taibuivan/storehub/internal/platform/respond"
	"github.com/taibuivan/storehub/internal/platform/sec"
	"github.com/taibuivan/storehub/internal/secevent"
	"github.com/taibuivan/storehub/internal/tenant"
)

var now = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

const demoTenantID = "0190f3b2-8e6a-7c3d-9f11-22aa33bb44cc"

// # Tenants

type tenantRepository struct {
	tenants []*tenant.Tenant
	err     error
}

func (repository *tenantRepository) FindByIdentifier(_ context.Context, identifier string) (*tenant.Tenant, error) {
	if repository.err != nil {
		return nil, repository.err
	}
	for _, candidate := range repository.tenants {
		if candidate.ID == identifier || strings.EqualFold(candidate.Subdomain, identifier) {
			return candidate, nil
		}
	}
	return nil, tenant.ErrNotFound
}

func demoTenant() *tenant.Tenant {
	end := now.Add(30 * 24 * time.Hour)
	return &tenant.Tenant{
		ID:                  demoTenantID,
		Name:                "Demo Retail",
		Subdomain:           "demo",
		IsActive:            true,
		Status:              tenant.StatusActive,
		SubscriptionEndDate: &end,
		Sectors: []tenant.Sector{
			{ID: "sector-pos", Code: "pos", IsActive: true},
			{ID: "sector-wh", Code: "warehouse", IsActive: false},
		},
	}
}

// # Sessions

// countingSessions records how often the authenticator reached the store.
type countingSessions struct {
	account.SessionStore

	finds    atomic.Int32
	touches  atomic.Int32
	touchErr error
}

func (sessions *countingSessions) FindSession(ctx context.Context, sessionID string) (*account.SessionRecord, error) {
	sessions.finds.Add(1)
	return sessions.SessionStore.FindSession(ctx, sessionID)
}

func (sessions *countingSessions) TouchActivity(ctx context.Context, sessionID string, at time.Time) error {
	sessions.touches.Add(1)
	if sessions.touchErr != nil {
		return sessions.touchErr
	}
	return sessions.SessionStore.TouchActivity(ctx, sessionID, at)
}

// # Fixture

type fixture struct {
	tokens   *sec.TokenService
	accounts *account.MemoryRepository
	sessions *countingSessions
	events   *secevent.Memory
	tenants  *tenantRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	tokens, err := sec.NewTokenService("gate-test-signing-secret", "storehub")
	require.NoError(t, err)

	accounts := account.NewMemoryRepository()
	return &fixture{
		tokens:   tokens.WithClock(func() time.Time { return now }),
		accounts: accounts,
		sessions: &countingSessions{SessionStore: accounts},
		events:   &secevent.Memory{},
		tenants:  &tenantRepository{tenants: []*tenant.Tenant{demoTenant()}},
	}
}

func (f *fixture) tenantStage() gate.Stage {
	extractor := tenant.NewExtractor(nil, []string{"pos", "warehouse"})
	return gate.NewTenantStage(extractor, tenant.NewResolver(f.tenants), f.tokens, f.events).
		WithClock(func() time.Time { return now }).
		Stage()
}

func (f *fixture) authenticator() *gate.Authenticator {
	return gate.NewAuthenticator(f.tokens, f.sessions, f.events, 30*time.Minute).
		WithClock(func() time.Time { return now })
}

// login stores a user with an active session and returns its bearer token.
func (f *fixture) login(t *testing.T, user account.User) string {
	t.Helper()

	if user.Status == "" {
		user.Status = account.UserActive
	}
	f.accounts.PutUser(user)

	sessionID := "session-" + user.ID
	f.accounts.PutSession(account.Session{
		ID: sessionID, UserID: user.ID, TenantID: user.TenantID, Status: account.SessionActive,
		LastActivityAt: now.Add(-time.Minute), CreatedAt: now.Add(-time.Hour), ExpiresAt: now.Add(time.Hour),
	})

	token, err := f.tokens.GenerateAccessToken(sec.TokenInput{
		UserID: user.ID, SessionID: sessionID, TenantID: user.TenantID, Role: string(user.Role.Code),
	}, time.Hour)
	require.NoError(t, err)
	return token
}

// # HTTP Harness

// serve runs stages in front of a handler that captures the final record.
func serve(request *http.Request, stages ...gate.Stage) (*httptest.ResponseRecorder, *gate.RequestContext) {
	var captured *gate.RequestContext
	handler := gate.Middleware(stages...)(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		rc := gate.FromRequest(request)
		captured = &rc
		writer.WriteHeader(http.StatusOK)
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder, captured
}

func bearer(request *http.Request, token string) *http.Request {
	request.Header.Set("Authorization", "Bearer "+token)
	return request
}

func decodeError(t *testing.T, recorder *httptest.ResponseRecorder) respond.ErrorEnvelope {
	t.Helper()
	var envelope respond.ErrorEnvelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	return envelope
}
