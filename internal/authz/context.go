package authz

import (
	"context"
	"net/http"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller as established by the session token.
type Identity struct {
	UserID string
	Email  string
}

// WithIdentity stores the caller's identity on the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	if id.UserID == "" {
		return ctx
	}
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	if !ok || id.UserID == "" {
		return Identity{}, false
	}
	return id, true
}

func IdentityFromRequest(r *http.Request) (Identity, bool) {
	return IdentityFromContext(r.Context())
}

// SessionProvider resolves the caller of the current operation.
type SessionProvider interface {
	Current(ctx context.Context) (Identity, bool)
}

// ContextSession reads the identity placed on the context by the auth middleware.
type ContextSession struct{}

func (ContextSession) Current(ctx context.Context) (Identity, bool) {
	return IdentityFromContext(ctx)
}
