package shared

import (
	"context"

	"github.com/wayfarer-labs/wayfarer/internal/authz"
)

type principalContextKey struct{}

// ContextWithPrincipal stores the resolved principal in context.
func ContextWithPrincipal(ctx context.Context, principal *authz.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, principal)
}

// PrincipalFromContext extracts the principal from context. A nil result
// means the request is anonymous.
func PrincipalFromContext(ctx context.Context) *authz.Principal {
	principal, _ := ctx.Value(principalContextKey{}).(*authz.Principal)
	return principal
}
