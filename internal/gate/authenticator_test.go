// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package gate_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/storehub/internal/account"
	"github.com/taibuivan/storehub/internal/platform/apperr"
	"github.com/taibuivan/storehub/internal/platform/sec"
	"github.com/taibuivan/storehub/internal/secevent"
)

func staffUser(id string) account.User {
	return account.User{
		ID: id, TenantID: demoTenantID, Email: id + "@acme.test",
		Role: sec.Role{ID: "role-5", Code: sec.RoleStaff, Level: 5},
	}
}

func protectedRequest() *http.Request {
	request := httptest.NewRequest(http.MethodGet, "/api/v1/stores", nil)
	request.RemoteAddr = "10.0.0.1:51234"
	return request
}

/*
TestAuthenticator_Success attaches the identity and bumps activity once.
*/
func TestAuthenticator_Success(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, staffUser("user-1"))

	recorder, rc := serve(bearer(protectedRequest(), token), f.authenticator().Required())
	require.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, rc)

	assert.True(t, rc.Authenticated())
	assert.Equal(t, "user-1", rc.User().ID)
	assert.Equal(t, "session-user-1", rc.Session().ID)
	assert.Equal(t, token, rc.Token())
	assert.Equal(t, demoTenantID, rc.TenantID())

	assert.Equal(t, int32(1), f.sessions.touches.Load())
	stored, _ := f.accounts.Session("session-user-1")
	assert.Equal(t, now, stored.LastActivityAt)
}

/*
TestAuthenticator_MissingToken never reaches the session store.
*/
func TestAuthenticator_MissingToken(t *testing.T) {
	f := newFixture(t)
	f.login(t, staffUser("user-1"))

	for _, header := range []string{"", "Bearer", "Bearer   ", "Basic dXNlcjpwYXNz"} {
		request := protectedRequest()
		if header != "" {
			request.Header.Set("Authorization", header)
		}

		recorder, _ := serve(request, f.authenticator().Required())
		assert.Equal(t, http.StatusUnauthorized, recorder.Code, header)
		assert.Equal(t, apperr.CodeTokenMissing, decodeError(t, recorder).Code, header)
	}

	assert.Zero(t, f.sessions.finds.Load())
	assert.Zero(t, f.sessions.touches.Load())

	event, ok := f.events.Last()
	require.True(t, ok)
	assert.Equal(t, secevent.EventAuthenticationFailed, event.Name)
	assert.Equal(t, "missing_token", event.Details["reason"])
	assert.Equal(t, secevent.SeverityMedium, event.Severity)
}

/*
TestAuthenticator_ScenarioB rejects an expired token before any session lookup.
*/
func TestAuthenticator_ScenarioB(t *testing.T) {
	f := newFixture(t)
	f.login(t, staffUser("user-1"))

	issued := f.tokens.WithClock(func() time.Time { return now.Add(-2 * time.Hour) })
	expired, err := issued.GenerateAccessToken(sec.TokenInput{UserID: "user-1", SessionID: "session-user-1"}, time.Hour)
	require.NoError(t, err)

	recorder, _ := serve(bearer(protectedRequest(), expired), f.authenticator().Required())
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, apperr.CodeTokenExpired, decodeError(t, recorder).Code)
	assert.Zero(t, f.sessions.finds.Load())

	event, _ := f.events.Last()
	assert.Equal(t, "expired_token", event.Details["reason"])
	assert.Equal(t, secevent.SeverityMedium, event.Severity)
}

/*
TestAuthenticator_InvalidToken reports forged tokens at high severity.
*/
func TestAuthenticator_InvalidToken(t *testing.T) {
	f := newFixture(t)

	recorder, _ := serve(bearer(protectedRequest(), "not.a.jwt"), f.authenticator().Required())
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, apperr.CodeTokenInvalid, decodeError(t, recorder).Code)

	event, _ := f.events.Last()
	assert.Equal(t, "invalid_token", event.Details["reason"])
	assert.Equal(t, secevent.SeverityHigh, event.Severity)
}

/*
TestAuthenticator_SessionGate rejects unusable sessions before any user check,
even when the user is also inactive or IP-restricted.
*/
func TestAuthenticator_SessionGate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*account.Session)
	}{
		{"revoked", func(s *account.Session) { s.Status = account.SessionRevoked }},
		{"expired_status", func(s *account.Session) { s.Status = account.SessionExpired }},
		{"past_expiry", func(s *account.Session) { s.ExpiresAt = now.Add(-time.Second) }},
		{"idle_timeout", func(s *account.Session) { s.LastActivityAt = now.Add(-time.Hour) }},
		{"other_owner", func(s *account.Session) { s.UserID = "someone-else" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			user := staffUser("user-1")
			user.Status = account.UserInactive
			user.IsIPRestricted = true
			token := f.login(t, user)
			f.accounts.PutUser(account.User{ID: "someone-else", Status: account.UserActive})

			session, _ := f.accounts.Session("session-user-1")
			tt.mutate(&session)
			f.accounts.PutSession(session)

			recorder, _ := serve(bearer(protectedRequest(), token), f.authenticator().Required())
			assert.Equal(t, http.StatusUnauthorized, recorder.Code)
			assert.Equal(t, apperr.CodeSessionInvalid, decodeError(t, recorder).Code)
			assert.Zero(t, f.sessions.touches.Load())

			event, _ := f.events.Last()
			assert.Equal(t, "invalid_session", event.Details["reason"])
			assert.Equal(t, secevent.SeverityHigh, event.Severity)
		})
	}
}

/*
TestAuthenticator_UnknownSession treats a dangling sid as an invalid session.
*/
func TestAuthenticator_UnknownSession(t *testing.T) {
	f := newFixture(t)

	token, err := f.tokens.GenerateAccessToken(sec.TokenInput{UserID: "user-1", SessionID: "gone"}, time.Hour)
	require.NoError(t, err)

	recorder, _ := serve(bearer(protectedRequest(), token), f.authenticator().Required())
	assert.Equal(t, apperr.CodeSessionInvalid, decodeError(t, recorder).Code)
}

/*
TestAuthenticator_UserGates covers inactive users and the IP allow-list.
*/
func TestAuthenticator_UserGates(t *testing.T) {
	tests := []struct {
		name         string
		mutate       func(*account.User)
		wantStatus   int
		wantCode     string
		wantReason   string
		wantSeverity secevent.Severity
	}{
		{
			name:       "inactive",
			mutate:     func(u *account.User) { u.Status = account.UserInactive },
			wantStatus: http.StatusForbidden, wantCode: apperr.CodeUserInactive,
			wantReason: "inactive_user", wantSeverity: secevent.SeverityMedium,
		},
		{
			name: "ip_not_listed",
			mutate: func(u *account.User) {
				u.IsIPRestricted = true
				u.AllowedIPs = []string{"10.0.0.2"}
			},
			wantStatus: http.StatusForbidden, wantCode: apperr.CodeIPRestricted,
			wantReason: "ip_not_allowed", wantSeverity: secevent.SeverityHigh,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			user := staffUser("user-1")
			user.Status = account.UserActive
			tt.mutate(&user)
			token := f.login(t, user)

			recorder, _ := serve(bearer(protectedRequest(), token), f.authenticator().Required())
			assert.Equal(t, tt.wantStatus, recorder.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, recorder).Code)

			event, _ := f.events.Last()
			assert.Equal(t, tt.wantReason, event.Details["reason"])
			assert.Equal(t, tt.wantSeverity, event.Severity)
		})
	}
}

/*
TestAuthenticator_AllowListedIP passes a restricted user from a listed address.
*/
func TestAuthenticator_AllowListedIP(t *testing.T) {
	f := newFixture(t)

	user := staffUser("user-1")
	user.IsIPRestricted = true
	user.AllowedIPs = []string{"10.0.0.1"}
	token := f.login(t, user)

	recorder, _ := serve(bearer(protectedRequest(), token), f.authenticator().Required())
	assert.Equal(t, http.StatusOK, recorder.Code)
}

/*
TestAuthenticator_ForgedForwardingHeader checks the allow-list against the peer
address when the forwarding headers come from an untrusted client.
*/
func TestAuthenticator_ForgedForwardingHeader(t *testing.T) {
	f := newFixture(t)

	user := staffUser("user-1")
	user.IsIPRestricted = true
	user.AllowedIPs = []string{"10.1.1.1"}
	token := f.login(t, user)

	request := bearer(protectedRequest(), token)
	request.RemoteAddr = "203.0.113.66:40000"
	request.Header.Set("X-Forwarded-For", "10.1.1.1")
	request.Header.Set("X-Real-IP", "10.1.1.1")

	recorder, _ := serve(request, f.authenticator().Required())
	assert.Equal(t, http.StatusForbidden, recorder.Code)
	assert.Equal(t, apperr.CodeIPRestricted, decodeError(t, recorder).Code)
}

/*
TestAuthenticator_StoreFailure maps outages to AUTH_ERROR and ignores touch failures.
*/
func TestAuthenticator_StoreFailure(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, staffUser("user-1"))

	// 1. Activity bump failures are swallowed
	f.sessions.touchErr = errors.New("read-only replica")
	recorder, _ := serve(bearer(protectedRequest(), token), f.authenticator().Required())
	assert.Equal(t, http.StatusOK, recorder.Code)

	// 2. Lookup failures are internal errors
	f.accounts.FailWith = errors.New("connection refused")
	recorder, _ = serve(bearer(protectedRequest(), token), f.authenticator().Required())
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Equal(t, apperr.CodeAuthError, decodeError(t, recorder).Code)
}

/*
TestAuthenticator_Optional continues anonymously on every failure.
*/
func TestAuthenticator_Optional(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, staffUser("user-1"))

	_, rc := serve(bearer(protectedRequest(), token), f.authenticator().Optional())
	require.NotNil(t, rc)
	assert.True(t, rc.Authenticated())

	for _, request := range []*http.Request{protectedRequest(), bearer(protectedRequest(), "garbage")} {
		recorder, rc := serve(request, f.authenticator().Optional())
		assert.Equal(t, http.StatusOK, recorder.Code)
		require.NotNil(t, rc)
		assert.False(t, rc.Authenticated())
	}

	f.accounts.PutUser(account.User{ID: "user-1", Status: account.UserInactive})
	_, rc = serve(bearer(protectedRequest(), token), f.authenticator().Optional())
	require.NotNil(t, rc)
	assert.False(t, rc.Authenticated())
	assert.Empty(t, f.events.Events())
}
