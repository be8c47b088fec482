package middleware

import (
	"context"

	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
)

type contextKey string

const (
	ctxSessionID contextKey = "session_id"
	ctxIdentity  contextKey = "identity"
)

// SessionIDFromContext returns the session id bound by the Session middleware.
func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionID).(string); ok {
		return v
	}
	return ""
}

// IdentityFromContext returns the signed-in identity, or nil for anonymous
// sessions.
func IdentityFromContext(ctx context.Context) *session.Identity {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxIdentity).(*session.Identity); ok {
		return v
	}
	return nil
}

// UserIDFromContext returns the signed-in user's id or zero.
func UserIDFromContext(ctx context.Context) uint {
	if identity := IdentityFromContext(ctx); identity != nil {
		return identity.UserID
	}
	return 0
}

// WithSession injects the session id and identity into the context.
func WithSession(ctx context.Context, sessionID string, identity *session.Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxSessionID, sessionID)
	return context.WithValue(ctx, ctxIdentity, identity)
}
