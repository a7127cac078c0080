package middleware

import (
	"context"

	"github.com/angelmondragon/vendorhub-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/vendorhub-backend/pkg/errors"
)

type contextKey string

const ctxActor contextKey = "actor"

// ActorFromContext returns the authenticated caller. ok is false on routes
// that run before Auth.
func ActorFromContext(ctx context.Context) (auth.Actor, bool) {
	if ctx == nil {
		return auth.Actor{}, false
	}
	actor, ok := ctx.Value(ctxActor).(auth.Actor)
	return actor, ok
}

// WithActor injects the caller into the context for downstream handlers.
func WithActor(ctx context.Context, actor auth.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxActor, actor)
}

// RequireActor returns the caller or an UNAUTHORIZED error for handlers that
// need one.
func RequireActor(ctx context.Context) (auth.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return auth.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return actor, nil
}
