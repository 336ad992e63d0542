package middleware

import (
	"context"

	pkgauth "github.com/dukayetu/dukayetu-backend/pkg/auth"
)

type contextKey string

const ctxActor contextKey = "actor"

// ActorFromContext returns the authenticated actor seeded by Auth. The second
// return is false on unauthenticated requests.
func ActorFromContext(ctx context.Context) (pkgauth.Actor, bool) {
	if ctx == nil {
		return pkgauth.Actor{}, false
	}
	actor, ok := ctx.Value(ctxActor).(pkgauth.Actor)
	return actor, ok
}

// WithActor injects the authenticated actor into the context.
func WithActor(ctx context.Context, actor pkgauth.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxActor, actor)
}
