package middleware

import (
	"context"

	"github.com/northfarm/sales-backend/internal/permissions"
	"github.com/northfarm/sales-backend/pkg/enums"
)

type contextKey string

const (
	ctxUsername  contextKey = "actor_username"
	ctxRole      contextKey = "actor_role"
	ctxSessionID contextKey = "session_id"
)

// ActorFromContext rebuilds the acting user from the verified claims seeded
// by the Auth middleware. The role is read from the request's own token on
// every call, never cached across requests.
func ActorFromContext(ctx context.Context) permissions.Actor {
	if ctx == nil {
		return permissions.Actor{}
	}
	actor := permissions.Actor{}
	if v, ok := ctx.Value(ctxUsername).(string); ok {
		actor.Username = v
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		actor.Role = enums.ActorRole(v)
	}
	return actor
}

// SessionIDFromContext returns the session id bound to the request token.
func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionID).(string); ok {
		return v
	}
	return ""
}

// WithActor injects actor identity into the context.
func WithActor(ctx context.Context, actor permissions.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUsername, actor.Username)
	return context.WithValue(ctx, ctxRole, string(actor.Role))
}

// WithSessionID injects the session id into the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSessionID, sessionID)
}
