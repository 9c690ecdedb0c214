// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxkey defines typed context keys used by middleware and handlers.
//
// # Safety
//
// Using a private, unexported type for keys prevents collisions with third-party
// packages that might also use context for storage.
package ctxkey

// key is an unexported type used for context keys to ensure type safety.
type key string

const (
	// KeyRequestID is the context key for the X-Request-ID correlation value.
	KeyRequestID key = "request_id"

	// KeyLogger is the context key for the per-request [*log/slog.Logger].
	KeyLogger key = "logger"

	// KeyRequestContext is the context key for the authorization pipeline's
	// per-request record (tenant, identity, session).
	KeyRequestContext key = "request_context"

	// KeyClientIP is the context key for the resolved caller IP address.
	KeyClientIP key = "client_ip"

	// KeyGateTrace is the context key for the slot receiving the pipeline's
	// final record.
	KeyGateTrace key = "gate_trace"
)
