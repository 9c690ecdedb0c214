// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, pipeline) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Rate Limit Strategies

const (
	// RateLimitFixed is the in-process fixed-window counter.
	RateLimitFixed = "fixed"
	// RateLimitRedis is the fixed-window counter shared through Redis.
	RateLimitRedis = "redis"
	// RateLimitToken is the token-bucket limiter.
	RateLimitToken = "token"
)

// # Configuration Schema

// Config holds all runtime configuration for the storehub API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Token signing
	JWTSecret      string        `env:"JWT_SECRET,required"`
	JWTIssuer      string        `env:"JWT_ISSUER"       envDefault:"storehub"`
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"24h"`

	// Session policy
	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`
	SessionCacheTTL    time.Duration `env:"SESSION_CACHE_TTL"    envDefault:"1m"`

	// Tenant resolution
	TenantCacheTTL time.Duration `env:"TENANT_CACHE_TTL" envDefault:"30s"`
	SectorKeywords []string      `env:"SECTOR_KEYWORDS"  envDefault:"pos,warehouse" envSeparator:","`
	DomainMapPath  string        `env:"DOMAIN_MAP_PATH"`

	// Rate limiting
	RateLimitStrategy    string        `env:"RATE_LIMIT_STRATEGY"     envDefault:"fixed"`
	RateLimitMaxRequests int           `env:"RATE_LIMIT_MAX_REQUESTS" envDefault:"100"`
	RateLimitWindow      time.Duration `env:"RATE_LIMIT_WINDOW"       envDefault:"15m"`

	// Audit trail
	AuditAsync   bool          `env:"AUDIT_ASYNC"   envDefault:"true"`
	AuditTimeout time.Duration `env:"AUDIT_TIMEOUT" envDefault:"5s"`

	// Security event sink
	SecurityEventBuffer int `env:"SECURITY_EVENT_BUFFER" envDefault:"1024"`

	// Observability
	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`

	// TrustedProxies lists addresses or CIDR ranges whose X-Forwarded-For and
	// X-Real-IP headers are believed. Empty means the socket peer is the caller.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	switch c.RateLimitStrategy {
	case RateLimitFixed, RateLimitRedis, RateLimitToken:
	default:
		return fmt.Errorf("config: unknown RATE_LIMIT_STRATEGY %q", c.RateLimitStrategy)
	}

	if c.RateLimitMaxRequests <= 0 {
		return fmt.Errorf("config: RATE_LIMIT_MAX_REQUESTS must be positive")
	}

	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("config: RATE_LIMIT_WINDOW must be positive")
	}

	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("config: JWT_SECRET must be at least 16 characters")
	}

	if _, err := parseProxies(c.TrustedProxies); err != nil {
		return err
	}

	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// TrustedProxyPrefixes returns TRUSTED_PROXIES as prefixes.
// Single addresses become host prefixes. Invalid entries were rejected by [Config.Validate].
func (c *Config) TrustedProxyPrefixes() []netip.Prefix {
	prefixes, _ := parseProxies(c.TrustedProxies)
	return prefixes
}

func parseProxies(entries []string) ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("config: invalid TRUSTED_PROXIES entry %q: %w", entry, err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}

		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("config: invalid TRUSTED_PROXIES entry %q: %w", entry, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// AllowedOrigins returns the extra CORS origins as a trimmed list.
func (c *Config) AllowedOrigins() []string {
	if c.ExtraOrigins == "" {
		return nil
	}

	var origins []string
	for _, origin := range strings.Split(c.ExtraOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
