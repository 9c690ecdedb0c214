// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tenant

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/taibuivan/storehub/internal/platform/constants"
	"github.com/taibuivan/storehub/internal/platform/sec"
)

// # Path Classes

// skipPrefixes bypass tenant resolution entirely.
var skipPrefixes = []string{
	"/health",
	"/ready",
	"/metrics",
	"/docs",
	"/api-docs",
	"/swagger",
	"/favicon.ico",
}

// publicPrefixes may proceed without a tenant when none was supplied.
var publicPrefixes = []string{
	"/auth/login",
	"/auth/register",
	"/auth/forgot-password",
	"/auth/reset-password",
	"/auth/verify-email",
	"/api/v1/auth/login",
	"/api/v1/auth/register",
	"/api/v1/auth/forgot-password",
	"/api/v1/auth/reset-password",
	"/api/v1/auth/verify-email",
}

// SkipPath reports whether path bypasses the tenant stage entirely.
func SkipPath(path string) bool {
	return hasAnyPrefix(path, skipPrefixes)
}

// PublicPath reports whether path may run without a tenant context.
func PublicPath(path string) bool {
	return hasAnyPrefix(path, publicPrefixes)
}

func hasAnyPrefix(path string, prefixes []string) bool {
	return slices.ContainsFunc(prefixes, func(prefix string) bool {
		return strings.HasPrefix(path, prefix)
	})
}

// # Custom Domains

// DomainMap maps a lower-cased custom host name to a tenant identifier.
type DomainMap map[string]string

// domainFile is the on-disk layout of DOMAIN_MAP_PATH.
//
//	domains:
//	  shop.acme-retail.com: acme
//	  admin.example.org: 0190f3b2-8e6a-7c3d-9f11-22aa33bb44cc
type domainFile struct {
	Domains map[string]string `yaml:"domains"`
}

// LoadDomainMap reads a YAML domain map. An empty path yields an empty map.
func LoadDomainMap(path string) (DomainMap, error) {
	if path == "" {
		return DomainMap{}, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tenant_domain_map_read_failed: %w", err)
	}

	return ParseDomainMap(raw)
}

// ParseDomainMap decodes the YAML document produced for [LoadDomainMap].
func ParseDomainMap(raw []byte) (DomainMap, error) {
	var file domainFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("tenant_domain_map_parse_failed: %w", err)
	}

	domains := make(DomainMap, len(file.Domains))
	for host, identifier := range file.Domains {
		host = strings.ToLower(strings.TrimSpace(host))
		identifier = strings.TrimSpace(identifier)
		if host == "" || identifier == "" {
			return nil, fmt.Errorf("tenant_domain_map_parse_failed: empty entry for %q", host)
		}
		domains[host] = identifier
	}
	return domains, nil
}

// # Extraction

// RequestData is the subset of a request the extractor reads.
type RequestData struct {
	Header http.Header
	Host   string
	Path   string
	Query  url.Values

	// Claims are only consulted when they come from a verified token.
	Claims *sec.AuthClaims
}

// FromRequest captures the extractor inputs of an HTTP request.
func FromRequest(request *http.Request, claims *sec.AuthClaims) RequestData {
	return RequestData{
		Header: request.Header,
		Host:   request.Host,
		Path:   request.URL.Path,
		Query:  request.URL.Query(),
		Claims: claims,
	}
}

// Identifiers is the extractor output. Empty strings mean "not supplied".
type Identifiers struct {
	TenantID string
	SectorID string
}

// Extractor derives tenant and sector identifiers using a fixed precedence.
// It performs no I/O and is safe for concurrent use.
type Extractor struct {
	domains        DomainMap
	sectorKeywords []string
}

// NewExtractor creates an extractor with the given custom domains and sector
// path keywords (e.g. "pos", "warehouse").
func NewExtractor(domains DomainMap, sectorKeywords []string) *Extractor {
	keywords := make([]string, 0, len(sectorKeywords))
	for _, keyword := range sectorKeywords {
		if keyword = strings.ToLower(strings.TrimSpace(keyword)); keyword != "" {
			keywords = append(keywords, keyword)
		}
	}

	if domains == nil {
		domains = DomainMap{}
	}

	return &Extractor{domains: domains, sectorKeywords: keywords}
}

// Extract returns the tenant and sector identifiers carried by data.
func (extractor *Extractor) Extract(data RequestData) Identifiers {
	return Identifiers{
		TenantID: extractor.tenantIdentifier(data),
		SectorID: extractor.sectorIdentifier(data),
	}
}

// tenantIdentifier: header, subdomain, custom domain, query, verified token.
func (extractor *Extractor) tenantIdentifier(data RequestData) string {
	if id := strings.TrimSpace(data.Header.Get(constants.HeaderTenantID)); id != "" {
		return id
	}

	host := hostname(data.Host)

	if subdomain := Subdomain(host); subdomain != "" {
		return subdomain
	}

	if id, ok := extractor.domains[host]; ok {
		return id
	}

	if id := strings.TrimSpace(data.Query.Get(constants.QueryTenant)); id != "" {
		return id
	}

	if data.Claims != nil && data.Claims.TenantID != "" {
		return data.Claims.TenantID
	}

	return ""
}

// sectorIdentifier: header, query, first path segment matching a keyword.
func (extractor *Extractor) sectorIdentifier(data RequestData) string {
	if id := strings.TrimSpace(data.Header.Get(constants.HeaderSectorID)); id != "" {
		return id
	}

	if id := strings.TrimSpace(data.Query.Get(constants.QuerySector)); id != "" {
		return id
	}

	for _, segment := range strings.Split(data.Path, "/") {
		if segment = strings.ToLower(segment); slices.Contains(extractor.sectorKeywords, segment) {
			return segment
		}
	}

	return ""
}

// Subdomain returns the first label of host when it has more than two labels.
// IP literals never carry a subdomain.
func Subdomain(host string) string {
	if host == "" || net.ParseIP(host) != nil {
		return ""
	}

	labels := strings.Split(host, ".")
	if len(labels) > 2 {
		return labels[0]
	}
	return ""
}

// hostname strips the port and lower-cases the Host header value.
func hostname(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if stripped, _, err := net.SplitHostPort(host); err == nil {
		host = stripped
	}
	return strings.Trim(host, "[]")
}
