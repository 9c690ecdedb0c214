// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/storehub/internal/platform/sec"
)

const testSecret = "unit-test-signing-secret"

func newService(t *testing.T, now time.Time) *sec.TokenService {
	t.Helper()
	service, err := sec.NewTokenService(testSecret, "storehub")
	require.NoError(t, err)
	return service.WithClock(func() time.Time { return now })
}

/*
TestTokenService_RoundTrip verifies a freshly issued token verifies with all claims.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	service := newService(t, now)

	token, err := service.GenerateAccessToken(sec.TokenInput{
		UserID:    "user-1",
		SessionID: "session-1",
		TenantID:  "tenant-1",
		Role:      string(sec.RoleStaff),
	}, time.Hour)
	require.NoError(t, err)

	claims, err := service.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "session-1", claims.SessionID)
	assert.Equal(t, "tenant-1", claims.TenantID)
}

/*
TestTokenService_Expired distinguishes an elapsed expiry from a forged token.
*/
func TestTokenService_Expired(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer := newService(t, issuedAt)

	token, err := issuer.GenerateAccessToken(sec.TokenInput{UserID: "user-1", SessionID: "session-1"}, time.Minute)
	require.NoError(t, err)

	// 1. Verify two hours later
	verifier := issuer.WithClock(func() time.Time { return issuedAt.Add(2 * time.Hour) })
	claims, err := verifier.VerifyToken(token)

	require.Error(t, err)
	assert.True(t, errors.Is(err, sec.ErrTokenExpired))
	assert.False(t, errors.Is(err, sec.ErrTokenInvalid))
	require.NotNil(t, claims)
	assert.Equal(t, "user-1", claims.UserID)
}

/*
TestTokenService_Invalid covers signature, algorithm and structure failures.
*/
func TestTokenService_Invalid(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	service := newService(t, now)

	otherKey, err := sec.NewTokenService("a-completely-different-secret", "storehub")
	require.NoError(t, err)
	forged, err := otherKey.WithClock(func() time.Time { return now }).
		GenerateAccessToken(sec.TokenInput{UserID: "user-1", SessionID: "session-1"}, time.Hour)
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"uid": "user-1", "sid": "session-1", "iss": "storehub", "exp": now.Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noSession, err := service.GenerateAccessToken(sec.TokenInput{UserID: "user-1"}, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt"},
		{"wrong_secret", forged},
		{"alg_none", noneToken},
		{"missing_session_claim", noSession},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := service.VerifyToken(tt.token)
			assert.Nil(t, claims)
			assert.True(t, errors.Is(err, sec.ErrTokenInvalid))
		})
	}
}

/*
TestPasswordHash verifies bcrypt hashing and comparison.
*/
func TestPasswordHash(t *testing.T) {
	hash, err := sec.HashPassword("correct horse")
	require.NoError(t, err)

	assert.True(t, sec.CheckPasswordHash("correct horse", hash))
	assert.False(t, sec.CheckPasswordHash("battery staple", hash))
}
