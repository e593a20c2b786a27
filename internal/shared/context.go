// Package shared holds cross-module helpers: actor identity, audit trail,
// idempotency keys, and pagination metadata.
package shared

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const actorContextKey contextKey = "keystone.actor"

// ActorHeader carries the acting user's identity, supplied by the gateway.
const ActorHeader = "X-Actor"

// ContextWithActor stores the acting user's identity in the context.
func ContextWithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

// ActorFromContext returns the acting user's identity, empty when absent.
func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(actorContextKey).(string)
	return actor
}

// ActorMiddleware copies the X-Actor header into the request context.
// Authentication happens upstream; the value is treated as opaque.
func ActorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := strings.TrimSpace(r.Header.Get(ActorHeader))
		if actor != "" {
			r = r.WithContext(ContextWithActor(r.Context(), actor))
		}
		next.ServeHTTP(w, r)
	})
}
