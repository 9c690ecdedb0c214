// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package gate

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/taibuivan/storehub/internal/account"
	"github.com/taibuivan/storehub/internal/platform/apperr"
	"github.com/taibuivan/storehub/internal/platform/ctxutil"
	"github.com/taibuivan/storehub/internal/platform/middleware"
	"github.com/taibuivan/storehub/internal/platform/sec"
	"github.com/taibuivan/storehub/internal/secevent"
)

// Reasons attached to authentication_failed events.
const (
	reasonMissingToken   = "missing_token"
	reasonInvalidToken   = "invalid_token"
	reasonExpiredToken   = "expired_token"
	reasonInvalidSession = "invalid_session"
	reasonInactiveUser   = "inactive_user"
	reasonIPNotAllowed   = "ip_not_allowed"
)

// Authenticator turns a bearer token into an identity.
type Authenticator struct {
	verifier    TokenVerifier
	sessions    account.SessionStore
	events      secevent.Recorder
	idleTimeout time.Duration
	now         func() time.Time
}

// NewAuthenticator creates the authentication stage.
//
// idleTimeout bounds the gap between two requests on one session; zero disables it.
func NewAuthenticator(verifier TokenVerifier, sessions account.SessionStore, events secevent.Recorder, idleTimeout time.Duration) *Authenticator {
	return &Authenticator{
		verifier:    verifier,
		sessions:    sessions,
		events:      events,
		idleTimeout: idleTimeout,
		now:         time.Now,
	}
}

// WithClock returns a copy of the authenticator using clock as its time source.
func (authenticator *Authenticator) WithClock(clock func() time.Time) *Authenticator {
	clone := *authenticator
	clone.now = clock
	return &clone
}

// Required rejects requests that fail any authentication gate.
func (authenticator *Authenticator) Required() Stage {
	return func(request *http.Request, rc RequestContext) Result {
		next, rejection := authenticator.authenticate(request, rc, true)
		if rejection != nil {
			return Reject(rejection)
		}
		return Continue(next)
	}
}

// Optional attaches an identity when one is fully valid and otherwise
// continues anonymously. It never rejects and emits no security events.
func (authenticator *Authenticator) Optional() Stage {
	return func(request *http.Request, rc RequestContext) Result {
		next, rejection := authenticator.authenticate(request, rc, false)
		if rejection != nil {
			return Continue(rc)
		}
		return Continue(next)
	}
}

/*
authenticate runs the gates in order; the first failure short-circuits.

 1. token present
 2. signature and structure verify
 3. expiry in the future
 4. session exists, belongs to the token and is usable
 5. user active
 6. caller IP allow-listed
*/
func (authenticator *Authenticator) authenticate(request *http.Request, rc RequestContext, report bool) (RequestContext, *apperr.AppError) {
	ctx := request.Context()
	ip := middleware.ClientIP(request)

	fail := func(reason string, severity secevent.Severity, details secevent.Details, rejection *apperr.AppError) (RequestContext, *apperr.AppError) {
		if report {
			if details == nil {
				details = secevent.Details{}
			}
			details["reason"] = reason
			authenticator.events.Record(secevent.EventAuthenticationFailed, requestDetails(request, details), severity)
		}
		return rc, rejection
	}

	// 1. Presence
	token := BearerToken(request)
	if token == "" {
		return fail(reasonMissingToken, secevent.SeverityMedium, nil, apperr.TokenMissing())
	}

	// 2-3. Signature, then expiry
	claims, err := authenticator.verifier.VerifyToken(token)
	if err != nil {
		if errors.Is(err, sec.ErrTokenExpired) {
			details := secevent.Details{}
			if claims != nil {
				details["userId"] = claims.UserID
			}
			return fail(reasonExpiredToken, secevent.SeverityMedium, details, apperr.TokenExpired())
		}
		return fail(reasonInvalidToken, secevent.SeverityHigh, nil, apperr.TokenInvalid())
	}

	// 4. Session
	record, err := authenticator.sessions.FindSession(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, account.ErrSessionNotFound) {
			return fail(reasonInvalidSession, secevent.SeverityHigh, secevent.Details{
				"userId":    claims.UserID,
				"sessionId": claims.SessionID,
			}, apperr.SessionInvalid())
		}

		ctxutil.GetLogger(ctx).ErrorContext(ctx, "session_lookup_failed",
			slog.String("session_id", claims.SessionID),
			slog.Any("error", err),
		)
		return rc, apperr.AuthError(err)
	}

	now := authenticator.now()
	if record.Session.UserID != claims.UserID || !account.SessionUsable(record.Session, now, authenticator.idleTimeout) {
		return fail(reasonInvalidSession, secevent.SeverityHigh, secevent.Details{
			"userId":        claims.UserID,
			"sessionId":     claims.SessionID,
			"sessionStatus": string(record.Session.Status),
		}, apperr.SessionInvalid())
	}

	// 5. User
	user := record.User
	if !account.IsUserActive(user) {
		return fail(reasonInactiveUser, secevent.SeverityMedium, secevent.Details{
			"userId": user.ID,
			"status": string(user.Status),
		}, apperr.UserInactive())
	}

	// 6. Network
	if !account.IPAllowed(user, ip) {
		return fail(reasonIPNotAllowed, secevent.SeverityHigh, secevent.Details{
			"userId": user.ID,
		}, apperr.IPRestricted())
	}

	// Best-effort activity bump
	if err := authenticator.sessions.TouchActivity(ctx, record.Session.ID, now); err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "session_activity_update_failed",
			slog.String("session_id", record.Session.ID),
			slog.Any("error", err),
		)
	}

	session := record.Session
	session.LastActivityAt = now
	return rc.WithIdentity(&user, &session, token, claims), nil
}
