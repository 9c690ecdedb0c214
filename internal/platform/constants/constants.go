// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, header names, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Headers: Names of the headers the authorization pipeline consults.
  - Redis Prefixes: Key taxonomy for cached sessions, tenants and rate-limit windows.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "storehub-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # HTTP Headers

const (
	HeaderAuthorization = "Authorization"
	HeaderTenantID      = "X-Tenant-ID"
	HeaderSectorID      = "X-Sector-ID"
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
	HeaderRetryAfter    = "Retry-After"
	HeaderRateLimit     = "X-RateLimit-Limit"
	HeaderRateRemaining = "X-RateLimit-Remaining"
)

// # Query Parameters

const (
	QueryTenant = "tenant"
	QuerySector = "sector"
)

// # Authentication

const (
	// BearerScheme is the authorization scheme accepted by the authenticator.
	BearerScheme = "Bearer"

	// DefaultIssuer is the standard 'iss' claim in access tokens.
	DefaultIssuer = "storehub"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixSession   = "auth:session:"
	RedisPrefixTenant    = "tenant:identifier:"
	RedisPrefixRateLimit = "ratelimit:"
)
