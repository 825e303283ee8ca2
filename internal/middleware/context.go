// File: internal/middleware/context.go
package middleware

import (
	"context"

	"github.com/partshub/chat-service/internal/identity"
)

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity attaches the resolved identity to the request context. It
// is set once by the identity middleware and read-only afterwards.
func WithIdentity(ctx context.Context, id identity.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the caller's identity. Requests that never
// passed the identity middleware resolve to Unauthenticated.
func IdentityFromContext(ctx context.Context) identity.Identity {
	if id, ok := ctx.Value(identityKey).(identity.Identity); ok {
		return id
	}
	return identity.None()
}
