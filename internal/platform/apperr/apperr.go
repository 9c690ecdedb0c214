// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the centralized error handling framework for storehub.

It provides a rich error type that bridges the gap between low-level storage
errors, pipeline rejections and the JSON responses returned to clients.

Architecture:

  - AppError: A struct containing a machine-readable code and a client-safe message.
  - Mapping: Explicit mapping from AppError to standard HTTP status codes.
  - Pipeline codes: One constructor per rejection the request-authorization
    pipeline can emit, so every stage reports failures the same way.

Every error that leaves a pipeline stage or the service layer should be an
[AppError] to ensure consistent API responses.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the canonical error type for the storehub API.
//
// It carries an HTTP status code, a machine-readable code, a client-safe
// message, and an optional slice of field-level validation errors.
//
// # Security
//
// The Cause field is for server-side logging only. It is rendered to clients
// exclusively when the server runs in development mode.
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "TENANT_NOT_FOUND").
	Code string `json:"code"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"message"`
	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Details holds per-field validation errors for VALIDATION_ERROR responses.
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the JSON field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// Is reports whether target is an [*AppError] carrying the same code.
//
// This lets callers compare against the sentinel-like constructors:
//
//	errors.Is(err, apperr.TokenExpired())
func (e *AppError) Is(target error) bool {
	other, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == other.Code
}

// WithCause returns a copy of the error carrying cause for server-side logging.
func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

// WithMessage returns a copy of the error with a different client-safe message.
func (e *AppError) WithMessage(msg string) *AppError {
	clone := *e
	clone.Message = msg
	return &clone
}

// # Pipeline Codes

// Machine-readable codes emitted by the request-authorization pipeline.
const (
	CodeTenantIdentifierMissing = "TENANT_IDENTIFIER_MISSING"
	CodeTenantNotFound          = "TENANT_NOT_FOUND"
	CodeTenantInactive          = "TENANT_INACTIVE"
	CodeSubscriptionExpired     = "SUBSCRIPTION_EXPIRED"
	CodeSectorAccessDenied      = "SECTOR_ACCESS_DENIED"
	CodeSectorIDMissing         = "SECTOR_ID_MISSING"
	CodeTenantResolutionError   = "TENANT_RESOLUTION_ERROR"
	CodeTokenMissing            = "TOKEN_MISSING"
	CodeTokenInvalid            = "TOKEN_INVALID"
	CodeTokenExpired            = "TOKEN_EXPIRED"
	CodeSessionInvalid          = "SESSION_INVALID"
	CodeUserInactive            = "USER_INACTIVE"
	CodeIPRestricted            = "IP_RESTRICTED"
	CodeAuthError               = "AUTH_ERROR"
	CodeAuthenticationRequired  = "AUTHENTICATION_REQUIRED"
	CodeInsufficientPermissions = "INSUFFICIENT_PERMISSIONS"
	CodeInsufficientRoleLevel   = "INSUFFICIENT_ROLE_LEVEL"
	Code2FARequired             = "2FA_REQUIRED"
	CodeRateLimitExceeded       = "RATE_LIMIT_EXCEEDED"
)

// # Tenant Resolution (400 / 403 / 404 / 500)

// TenantIdentifierMissing creates a 400 [AppError] for protected paths without a tenant.
func TenantIdentifierMissing() *AppError {
	return &AppError{
		Code:       CodeTenantIdentifierMissing,
		Message:    "Please provide a valid tenant identifier",
		HTTPStatus: http.StatusBadRequest,
	}
}

// TenantNotFound creates a 404 [AppError].
func TenantNotFound() *AppError {
	return &AppError{
		Code:       CodeTenantNotFound,
		Message:    "The specified tenant could not be found",
		HTTPStatus: http.StatusNotFound,
	}
}

// TenantInactive creates a 403 [AppError].
func TenantInactive() *AppError {
	return &AppError{
		Code:       CodeTenantInactive,
		Message:    "This tenant is not currently active",
		HTTPStatus: http.StatusForbidden,
	}
}

// SubscriptionExpired creates a 403 [AppError].
func SubscriptionExpired() *AppError {
	return &AppError{
		Code:       CodeSubscriptionExpired,
		Message:    "Your subscription has expired. Please renew to continue.",
		HTTPStatus: http.StatusForbidden,
	}
}

// SectorAccessDenied creates a 403 [AppError].
func SectorAccessDenied() *AppError {
	return &AppError{
		Code:       CodeSectorAccessDenied,
		Message:    "You do not have access to this sector",
		HTTPStatus: http.StatusForbidden,
	}
}

// SectorIDMissing creates a 400 [AppError] for sector-guarded routes without a sector.
func SectorIDMissing() *AppError {
	return &AppError{
		Code:       CodeSectorIDMissing,
		Message:    "Sector ID required",
		HTTPStatus: http.StatusBadRequest,
	}
}

// TenantResolutionError creates a 500 [AppError] for tenant store failures.
func TenantResolutionError(cause error) *AppError {
	return &AppError{
		Code:       CodeTenantResolutionError,
		Message:    "Failed to resolve tenant",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// # Authentication (401 / 403 / 500)

// TokenMissing creates a 401 [AppError].
func TokenMissing() *AppError {
	return &AppError{
		Code:       CodeTokenMissing,
		Message:    "Access token required",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// TokenInvalid creates a 401 [AppError].
func TokenInvalid() *AppError {
	return &AppError{
		Code:       CodeTokenInvalid,
		Message:    "Invalid or malformed token",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// TokenExpired creates a 401 [AppError].
func TokenExpired() *AppError {
	return &AppError{
		Code:       CodeTokenExpired,
		Message:    "Token expired",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// SessionInvalid creates a 401 [AppError].
func SessionInvalid() *AppError {
	return &AppError{
		Code:       CodeSessionInvalid,
		Message:    "Invalid session",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// UserInactive creates a 403 [AppError].
func UserInactive() *AppError {
	return &AppError{
		Code:       CodeUserInactive,
		Message:    "User account is inactive",
		HTTPStatus: http.StatusForbidden,
	}
}

// IPRestricted creates a 403 [AppError].
func IPRestricted() *AppError {
	return &AppError{
		Code:       CodeIPRestricted,
		Message:    "Access denied from this IP address",
		HTTPStatus: http.StatusForbidden,
	}
}

// AuthError creates a 500 [AppError] for identity store failures.
func AuthError(cause error) *AppError {
	return &AppError{
		Code:       CodeAuthError,
		Message:    "Authentication failed",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// AuthenticationRequired creates a 401 [AppError] for guards running without identity.
func AuthenticationRequired() *AppError {
	return &AppError{
		Code:       CodeAuthenticationRequired,
		Message:    "Authentication required",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// # Authorization (403)

// InsufficientPermissions creates a 403 [AppError] with a guard-specific message.
func InsufficientPermissions(msg string) *AppError {
	return &AppError{
		Code:       CodeInsufficientPermissions,
		Message:    msg,
		HTTPStatus: http.StatusForbidden,
	}
}

// InsufficientRoleLevel creates a 403 [AppError].
func InsufficientRoleLevel() *AppError {
	return &AppError{
		Code:       CodeInsufficientRoleLevel,
		Message:    "Insufficient role level",
		HTTPStatus: http.StatusForbidden,
	}
}

// TwoFactorRequired creates a 403 [AppError].
func TwoFactorRequired() *AppError {
	return &AppError{
		Code:       Code2FARequired,
		Message:    "Two-factor authentication required",
		HTTPStatus: http.StatusForbidden,
	}
}

// RateLimitExceeded creates a 429 [AppError].
func RateLimitExceeded(retryAfterSeconds int) *AppError {
	return &AppError{
		Code:       CodeRateLimitExceeded,
		Message:    fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds),
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// # Generic Client Errors (4xx)

// NotFound creates a 404 [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("Tenant") // Returns "Tenant not found"
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       "NOT_FOUND",
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// Unauthorized creates a 401 [AppError].
func Unauthorized(msg string) *AppError {
	return &AppError{
		Code:       "UNAUTHORIZED",
		Message:    msg,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Forbidden creates a 403 [AppError].
func Forbidden(msg string) *AppError {
	return &AppError{
		Code:       "FORBIDDEN",
		Message:    msg,
		HTTPStatus: http.StatusForbidden,
	}
}

// Conflict creates a 409 [AppError].
func Conflict(msg string) *AppError {
	return &AppError{
		Code:       "CONFLICT",
		Message:    msg,
		HTTPStatus: http.StatusConflict,
	}
}

// ValidationError creates a 400 [AppError] with optional per-field details.
func ValidationError(msg string, details ...FieldError) *AppError {
	return &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// # Server Errors (5xx)

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
// The cause is stored for logging but is never sent to production clients.
func Internal(cause error) *AppError {
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// HasCode reports whether err carries an [*AppError] with the given code.
func HasCode(err error, code string) bool {
	ae := As(err)
	return ae != nil && ae.Code == code
}
