// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets the values, services read them. Keeping this package free of
// net/http lets the core be called from workers and tests without a router.
//
// Usage in services (read values):
//
//	ownerID := requestcontext.OwnerID(ctx)
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithPrincipal(ctx, id.OwnerID(7), id.RoleSupervisor)
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	id "guardhouse/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	ownerIDKey     struct{}
	roleKey        struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyOwnerID     = ownerIDKey{}
	ContextKeyRole        = roleKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// -----------------------------------------------------------------------------
// Principal (owner, role)
// -----------------------------------------------------------------------------

// OwnerID retrieves the authenticated owner from the context.
// Returns zero if not set (administrators have no owner).
func OwnerID(ctx context.Context) id.OwnerID {
	if ownerID, ok := ctx.Value(ContextKeyOwnerID).(id.OwnerID); ok {
		return ownerID
	}
	return 0
}

// Role retrieves the authenticated role from the context.
func Role(ctx context.Context) id.Role {
	if role, ok := ctx.Value(ContextKeyRole).(id.Role); ok {
		return role
	}
	return ""
}

// IsAdmin reports whether the authenticated caller is an administrator.
func IsAdmin(ctx context.Context) bool {
	return Role(ctx) == id.RoleAdmin
}

// WithPrincipal injects the authenticated owner and role into the context.
func WithPrincipal(ctx context.Context, ownerID id.OwnerID, role id.Role) context.Context {
	ctx = context.WithValue(ctx, ContextKeyOwnerID, ownerID)
	return context.WithValue(ctx, ContextKeyRole, role)
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// -----------------------------------------------------------------------------
// Request time
// -----------------------------------------------------------------------------

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (for non-HTTP contexts like workers and tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
