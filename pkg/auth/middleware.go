package auth

import "context"

// ContextKey is a type for context keys
type ContextKey string

const (
	// ContextKeyPrincipal is the context key for the verified principal
	ContextKeyPrincipal ContextKey = "principal"
)

// WithPrincipal stores the principal in the context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ContextKeyPrincipal, p)
}

// PrincipalFromContext returns the principal set by the authentication middleware.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(ContextKeyPrincipal).(*Principal)
	return p, ok && p != nil
}
