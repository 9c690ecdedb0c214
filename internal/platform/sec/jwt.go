// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives, token management and the
// pure role/permission predicates used by the authorization guards.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// pipeline via small interfaces.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenExpired is returned when a token's signature verifies but its
	// embedded expiry has elapsed.
	ErrTokenExpired = errors.New("sec: token expired")

	// ErrTokenInvalid is returned for any signature or structural failure.
	ErrTokenInvalid = errors.New("sec: token invalid")
)

// AuthClaims represents the payload embedded inside an access token.
//
// The token only references server-side state: the session id is resolved
// against the session store on every request, so revoking a session takes
// effect immediately regardless of the token's remaining lifetime.
type AuthClaims struct {
	jwt.RegisteredClaims

	// Custom application claims are abbreviated to keep the JWT payload small.
	UserID    string `json:"uid"`
	SessionID string `json:"sid"`
	TenantID  string `json:"tid,omitempty"`
	RoleID    string `json:"rid,omitempty"`
	Role      string `json:"rol,omitempty"`
}

// TokenService handles generation and verification of HS256 access tokens.
type TokenService struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewTokenService creates a new TokenService signing with the shared secret.
func NewTokenService(secret, issuer string) (*TokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("auth: signing secret must not be empty")
	}

	return &TokenService{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}, nil
}

// WithClock returns a copy of the service using clock as its time source.
func (service *TokenService) WithClock(clock func() time.Time) *TokenService {
	clone := *service
	clone.now = clock
	return &clone
}

// TokenInput carries the identity facts embedded into a new access token.
type TokenInput struct {
	UserID    string
	SessionID string
	TenantID  string
	RoleID    string
	Role      string
}

// GenerateAccessToken creates a new signed access token.
func (service *TokenService) GenerateAccessToken(input TokenInput, timeToLive time.Duration) (string, error) {
	currentTime := service.now()
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   input.UserID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		UserID:    input.UserID,
		SessionID: input.SessionID,
		TenantID:  input.TenantID,
		RoleID:    input.RoleID,
		Role:      input.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("auth: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// VerifyToken checks the signature, structure and expiry of a token string.
//
// # Errors
//   - [ErrTokenExpired] when the signature is valid but exp has elapsed.
//     The decoded claims are returned alongside so callers can log the subject.
//   - [ErrTokenInvalid] for every other failure.
func (service *TokenService) VerifyToken(tokenString string) (*AuthClaims, error) {
	claims := &AuthClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return service.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(service.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(service.now),
	)

	if err != nil {
		// jwt/v5 validates claims only after the signature verified.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return claims, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	if !token.Valid || claims.UserID == "" || claims.SessionID == "" {
		return nil, fmt.Errorf("%w: missing identity claims", ErrTokenInvalid)
	}

	return claims, nil
}
