package authz

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"

	"github.com/offbit-ai/zeal-auth/core"
)

// Requirement describes what a caller must satisfy to pass a guard. Roles
// are any-of, Permissions are all-of; zero values check the decision only.
type Requirement struct {
	ResourceType string
	Action       string
	Roles        []string
	Permissions  []string
}

// Next is the continuation a framework-agnostic guard wraps
type Next func(ctx context.Context) error

// Chain guards an arbitrary call with an authorization requirement. The
// principal comes from the context, so it composes behind any transport
// that populates one via WithSubject or WithToken.
func Chain(s Service, requirement Requirement, next Next) Next {
	return func(ctx context.Context) error {
		principal, ok := principalFromContext(ctx)
		if !ok {
			return core.NewErrorPermissionDenied("no subject in context")
		}

		subject, err := s.ResolveSubject(ctx, principal)
		if err != nil {
			return core.NewErrorPermissionDenied(core.ReasonTokenInvalid)
		}

		result, err := s.Authorize(ctx, subject, core.Resource{Type: requirement.ResourceType}, core.Action{Name: requirement.Action})
		if err != nil {
			return err
		}
		if !result.Allowed {
			return core.NewErrorPermissionDenied(result.Reason)
		}

		err = checkRequirement(ctx, s, subject, requirement)
		if err != nil {
			return err
		}

		ctx = WithSubject(ctx, subject)
		ctx = WithDecision(ctx, result)
		return next(ctx)
	}
}

func principalFromContext(ctx context.Context) (any, bool) {
	subject, ok := SubjectFromContext(ctx)
	if ok {
		return subject, true
	}
	token, ok := TokenFromContext(ctx)
	if ok {
		return token, true
	}
	return nil, false
}

func checkRequirement(ctx context.Context, s Service, subject core.Subject, requirement Requirement) error {
	if len(requirement.Roles) > 0 {
		match := false
		for _, role := range requirement.Roles {
			if slices.Contains(subject.Roles, role) {
				match = true
				break
			}
		}
		if !match {
			return core.NewErrorPermissionDenied("missing required role")
		}
	}

	if len(requirement.Permissions) > 0 {
		var resource *core.Resource
		if requirement.ResourceType != "" {
			resource = &core.Resource{Type: requirement.ResourceType}
		}
		held, err := s.GetEffectivePermissions(ctx, subject, resource)
		if err != nil {
			return err
		}
		for _, required := range requirement.Permissions {
			if !slices.Contains(held, required) && !slices.Contains(held, "*") {
				return core.NewErrorPermissionDenied("missing permission " + required)
			}
		}
	}

	return nil
}

// Identify resolves the bearer token into the request identity when one is
// present. It never rejects; guarded routes compose Require behind it.
func (s *service) Identify(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Authz.Service.Identify")
		defer span.End()

		authHeader := c.Request().Header.Get("authorization")

		// identity headers are only ever set here, never trusted from the wire
		c.Request().Header.Del(core.SubjectIDHeader)
		c.Request().Header.Del(core.TenantIDHeader)

		if authHeader != "" {
			split := strings.Split(authHeader, " ")
			if len(split) != 2 || split[0] != "Bearer" {
				span.RecordError(errInvalidAuthHeader)
				goto skip
			}
			token := split[1]

			claims, err := s.claims.ExtractClaims(ctx, token)
			if err != nil {
				span.RecordError(err)
				goto skip
			}
			subject, err := s.claims.MapToSubject(ctx, claims)
			if err != nil {
				span.RecordError(err)
				goto skip
			}

			c.Set(core.TokenCtxKey, token)
			c.Set(core.ClaimsCtxKey, claims)
			c.Set(core.SubjectCtxKey, subject)
			c.Request().Header.Set(core.SubjectIDHeader, subject.ID)
			c.Request().Header.Set(core.TenantIDHeader, subject.TenantID)
			ctx = WithToken(ctx, token)
			ctx = WithSubject(ctx, subject)
			span.SetAttributes(attribute.String("SubjectId", subject.ID))
			span.SetAttributes(attribute.String("TenantId", subject.TenantID))
		}

	skip:
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

var errInvalidAuthHeader = core.NewErrorPermissionDenied("invalid authentication header")

// Require gates a route on a decision plus optional role and permission
// checks. Runs standalone or behind Identify.
func (s *service) Require(requirement Requirement) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, span := tracer.Start(c.Request().Context(), "Authz.Service.Require")
			defer span.End()

			subject, ok := c.Get(core.SubjectCtxKey).(core.Subject)
			if !ok {
				token, found := bearerToken(c.Request().Header.Get("authorization"))
				if !found {
					return c.JSON(http.StatusUnauthorized, echo.Map{
						"error": "authentication required",
					})
				}
				var err error
				subject, err = s.ResolveSubject(ctx, token)
				if err != nil {
					span.RecordError(err)
					return c.JSON(http.StatusUnauthorized, echo.Map{
						"error":  "authentication required",
						"detail": err.Error(),
					})
				}
			}

			ctx = WithEnvironment(ctx, requestEnvironment(c))

			result, err := s.Authorize(ctx, subject, core.Resource{Type: requirement.ResourceType}, core.Action{Name: requirement.Action})
			if err != nil {
				span.RecordError(err)
				return c.JSON(http.StatusInternalServerError, echo.Map{
					"error": err.Error(),
				})
			}
			if !result.Allowed {
				return c.JSON(http.StatusForbidden, echo.Map{
					"error":  "you are not authorized to perform this action",
					"detail": result.Reason,
				})
			}

			err = checkRequirement(ctx, s, subject, requirement)
			if err != nil {
				span.RecordError(err)
				return c.JSON(http.StatusForbidden, echo.Map{
					"error":  "you are not authorized to perform this action",
					"detail": err.Error(),
				})
			}

			c.Set(core.SubjectCtxKey, subject)
			c.Set(core.DecisionCtxKey, result)
			ctx = WithSubject(ctx, subject)
			ctx = WithDecision(ctx, result)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

func bearerToken(authHeader string) (string, bool) {
	split := strings.Split(authHeader, " ")
	if len(split) != 2 || split[0] != "Bearer" || split[1] == "" {
		return "", false
	}
	return split[1], true
}

func requestEnvironment(c echo.Context) core.Environment {
	return core.Environment{
		Timestamp: time.Now(),
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}
