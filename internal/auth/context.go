package auth

import (
	"context"

	"github.com/prathamisonline/multiseller-ecom-sub001/internal/session"
)

type contextKey string

const principalKey contextKey = "principal"

// Principal is the authenticated caller of a backend request.
type Principal struct {
	UserID string
	Email  string
	Role   session.Role
}

// WithPrincipal is called by the auth middleware.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
