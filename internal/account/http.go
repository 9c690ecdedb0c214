// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/taibuivan/storehub/internal/platform/apperr"
	"github.com/taibuivan/storehub/internal/platform/middleware"
	requestutil "github.com/taibuivan/storehub/internal/platform/request"
	"github.com/taibuivan/storehub/internal/platform/respond"
	"github.com/taibuivan/storehub/internal/platform/validate"
)

// # Field Names

const (
	FieldEmail    = "email"
	FieldPassword = "password"
)

// # Definitions & Constructors

// Identity exposes the authenticated request state the handler needs.
// The pipeline owns that state; the handler only reads it.
type Identity interface {
	SessionID(request *http.Request) (string, bool)
	TenantID(request *http.Request) string
}

// Handler implements the login and logout endpoints.
//
// Route wiring (public vs. authenticated groups) is owned by the API server.
type Handler struct {
	accountService *Service
	identity       Identity
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service, identity Identity) *Handler {
	return &Handler{accountService: service, identity: identity}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

/*
Login authenticates a user and establishes a session.

POST /api/v1/auth/login

Request:
  - Body: loginRequest (Email, Password)

Response:
  - 200: LoginResult: Access token, session and user
  - 400: VALIDATION_ERROR
  - 401: UNAUTHORIZED: Invalid credentials
  - 403: USER_INACTIVE or IP_RESTRICTED
*/
func (handler *Handler) Login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.accountService.Login(request.Context(), LoginInput{
		Email:     input.Email,
		Password:  input.Password,
		TenantID:  handler.identity.TenantID(request),
		IPAddress: middleware.ClientIP(request),
		UserAgent: request.UserAgent(),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}

/*
Logout revokes the current session.

POST /api/v1/auth/logout

Response:
  - 204: Session revoked
  - 401: AUTHENTICATION_REQUIRED
*/
func (handler *Handler) Logout(writer http.ResponseWriter, request *http.Request) {
	sessionID, ok := handler.identity.SessionID(request)
	if !ok {
		respond.Error(writer, request, apperr.AuthenticationRequired())
		return
	}

	if err := handler.accountService.Logout(request.Context(), sessionID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
