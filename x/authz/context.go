package authz

import (
	"context"

	"github.com/offbit-ai/zeal-auth/core"
)

type contextKey int

const (
	subjectContextKey contextKey = iota
	tokenContextKey
	environmentContextKey
	decisionContextKey
)

// WithSubject attaches an authenticated subject to the context
func WithSubject(ctx context.Context, subject core.Subject) context.Context {
	return context.WithValue(ctx, subjectContextKey, subject)
}

func SubjectFromContext(ctx context.Context) (core.Subject, bool) {
	subject, ok := ctx.Value(subjectContextKey).(core.Subject)
	return subject, ok
}

// WithToken carries the raw bearer token alongside the mapped subject
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey, token)
}

func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenContextKey).(string)
	return token, ok
}

// WithEnvironment attaches request environment attributes for rules that
// match on time, address or custom context
func WithEnvironment(ctx context.Context, environment core.Environment) context.Context {
	return context.WithValue(ctx, environmentContextKey, environment)
}

func EnvironmentFromContext(ctx context.Context) *core.Environment {
	environment, ok := ctx.Value(environmentContextKey).(core.Environment)
	if !ok {
		return nil
	}
	return &environment
}

// WithDecision exposes the authorization result to downstream handlers,
// mainly so they can honor constraints and obligations
func WithDecision(ctx context.Context, decision core.AuthorizationResult) context.Context {
	return context.WithValue(ctx, decisionContextKey, decision)
}

func DecisionFromContext(ctx context.Context) (core.AuthorizationResult, bool) {
	decision, ok := ctx.Value(decisionContextKey).(core.AuthorizationResult)
	return decision, ok
}
