// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package audit

import (
	"net/http"
	"net/url"

	"github.com/taibuivan/storehub/internal/gate"
	"github.com/taibuivan/storehub/internal/platform/apperr"
	"github.com/taibuivan/storehub/internal/platform/respond"
	"github.com/taibuivan/storehub/internal/platform/sec"
	"github.com/taibuivan/storehub/internal/platform/validate"
	"github.com/taibuivan/storehub/pkg/pagination"
)

// Handler serves the audit log listing.
type Handler struct {
	lister Lister
}

// NewHandler constructs a new [Handler].
func NewHandler(lister Lister) *Handler {
	return &Handler{lister: lister}
}

/*
List returns audit entries, newest first.

GET /api/v1/audit-logs

Request:
  - Query: page, limit, action, resource, status, userId, tenantId

Response:
  - 200: []Entry with pagination metadata
  - 400: VALIDATION_ERROR: Malformed filter
  - 401: AUTHENTICATION_REQUIRED
  - 403: FORBIDDEN: No tenant context

Non super-admins only ever see their own tenant; the tenantId filter is
honored for super-admins alone.
*/
func (handler *Handler) List(writer http.ResponseWriter, request *http.Request) {
	rc := gate.FromRequest(request)
	user := rc.User()
	if user == nil {
		respond.Error(writer, request, apperr.AuthenticationRequired())
		return
	}

	query := request.URL.Query()
	filter, err := parseFilter(query)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	filter.TenantID = rc.TenantID()
	if sec.IsSuperAdmin(user.Role) {
		filter.TenantID = query.Get("tenantId")
	} else if filter.TenantID == "" {
		respond.Error(writer, request, apperr.Forbidden("Tenant context required"))
		return
	}

	page := pagination.FromQuery(query)
	entries, total, err := handler.lister.List(request.Context(), filter, page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, entries, pagination.NewMeta(page, total))
}

// maxResourceLength bounds the resource filter to the column width.
const maxResourceLength = 100

// parseFilter reads the optional list filters. The tenant is set by the caller.
func parseFilter(query url.Values) (Filter, error) {
	filter := Filter{
		UserID:   query.Get("userId"),
		Action:   query.Get("action"),
		Resource: query.Get("resource"),
		Status:   Status(query.Get("status")),
	}

	validator := &validate.Validator{}
	validator.
		UUID("tenantId", query.Get("tenantId")).
		MaxLen("userId", filter.UserID, 64).
		OneOf("action", filter.Action, Actions()...).
		MaxLen("resource", filter.Resource, maxResourceLength).
		OneOf("status", string(filter.Status), string(StatusSuccess), string(StatusFailure), string(StatusPending))

	return filter, validator.Err()
}
