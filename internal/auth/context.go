package auth

import "context"

// ctxKey is a private type for context keys to prevent collisions.
type ctxKey int

const principalKey ctxKey = iota

// WithPrincipal adds the authenticated principal to the context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext retrieves the authenticated principal from context.
// Returns nil if the request was not authenticated.
func PrincipalFromContext(ctx context.Context) *Principal {
	if v := ctx.Value(principalKey); v != nil {
		if p, ok := v.(*Principal); ok {
			return p
		}
	}
	return nil
}
