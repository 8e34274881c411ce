package authz

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/offbit-ai/zeal-auth/core"
)

// Handler exposes the decision engine over HTTP
type Handler interface {
	Authorize(c echo.Context) error
	ValidateToken(c echo.Context) error
	GetPermissions(c echo.Context) error
	QueryAudit(c echo.Context) error
	GetAuditReport(c echo.Context) error
}

type handler struct {
	service Service
	audit   core.AuditService
}

// NewHandler creates a new handler
func NewHandler(service Service, audit core.AuditService) Handler {
	return &handler{
		service: service,
		audit:   audit,
	}
}

type authorizeRequest struct {
	Token    string        `json:"token,omitempty"`
	Subject  *core.Subject `json:"subject,omitempty"`
	Claims   core.Claims   `json:"claims,omitempty"`
	Resource core.Resource `json:"resource"`
	Action   core.Action   `json:"action"`
}

// Authorize evaluates a decision for an explicit subject, claims map or
// token. With none of those in the body, the identity on the request is
// used, which lets services check their own access.
func (h handler) Authorize(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Authz.Handler.Authorize")
	defer span.End()

	var request authorizeRequest
	err := c.Bind(&request)
	if err != nil {
		span.RecordError(err)
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request body",
		})
	}

	var principal any
	switch {
	case request.Subject != nil:
		principal = *request.Subject
	case len(request.Claims) > 0:
		principal = request.Claims
	case request.Token != "":
		principal = request.Token
	default:
		subject, ok := c.Get(core.SubjectCtxKey).(core.Subject)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "no subject to authorize",
			})
		}
		principal = subject
	}

	ctx = WithEnvironment(ctx, requestEnvironment(c))

	result, err := h.service.Authorize(ctx, principal, request.Resource, request.Action)
	if err != nil {
		span.RecordError(err)
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": result})
}

type validateRequest struct {
	Token string `json:"token"`
}

// ValidateToken verifies a token from the body or the authorization header
// and returns its claims
func (h handler) ValidateToken(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Authz.Handler.ValidateToken")
	defer span.End()

	var request validateRequest
	err := c.Bind(&request)
	if err != nil {
		span.RecordError(err)
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request body",
		})
	}

	token := request.Token
	if token == "" {
		token, _ = bearerToken(c.Request().Header.Get("authorization"))
	}
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "no token provided",
		})
	}

	claims, err := h.service.ValidateToken(ctx, token)
	if err != nil {
		span.RecordError(err)
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"error":  "token is invalid",
			"detail": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": claims})
}

// GetPermissions lists the caller's effective permissions, optionally
// narrowed to the resource type given in the "resource" query parameter
func (h handler) GetPermissions(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Authz.Handler.GetPermissions")
	defer span.End()

	subject, ok := c.Get(core.SubjectCtxKey).(core.Subject)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"error": "authentication required",
		})
	}

	var resource *core.Resource
	if resourceType := c.QueryParam("resource"); resourceType != "" {
		resource = &core.Resource{Type: resourceType}
	}

	permissions, err := h.service.GetEffectivePermissions(ctx, subject, resource)
	if err != nil {
		span.RecordError(err)
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": permissions})
}

// QueryAudit filters the audit trail by the query parameters
func (h handler) QueryAudit(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Authz.Handler.QueryAudit")
	defer span.End()

	query := core.AuditQuery{
		TenantID:     c.QueryParam("tenant"),
		SubjectID:    c.QueryParam("subject"),
		ResourceType: c.QueryParam("resourceType"),
		ResourceID:   c.QueryParam("resourceId"),
		Action:       c.QueryParam("action"),
	}

	if raw := c.QueryParam("allowed"); raw != "" {
		allowed, err := strconv.ParseBool(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "invalid allowed parameter",
			})
		}
		query.Allowed = &allowed
	}
	if raw := c.QueryParam("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "invalid since parameter",
			})
		}
		query.Since = since
	}
	if raw := c.QueryParam("until"); raw != "" {
		until, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "invalid until parameter",
			})
		}
		query.Until = until
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "invalid limit parameter",
			})
		}
		query.Limit = limit
	}

	entries, err := h.audit.Query(ctx, query)
	if err != nil {
		span.RecordError(err)
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": entries})
}

// GetAuditReport aggregates the audit trail over a window, defaulting to
// the last 24 hours
func (h handler) GetAuditReport(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Authz.Handler.GetAuditReport")
	defer span.End()

	end := time.Now()
	start := end.Add(-24 * time.Hour)

	if raw := c.QueryParam("start"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "invalid start parameter",
			})
		}
		start = parsed
	}
	if raw := c.QueryParam("end"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "invalid end parameter",
			})
		}
		end = parsed
	}

	report, err := h.audit.GenerateReport(ctx, start, end, c.QueryParam("groupBy"))
	if err != nil {
		span.RecordError(err)
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": report})
}
