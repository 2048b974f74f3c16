package httpapi

import (
	"context"

	"github.com/kunjika/accounts/internal/session"
)

type ctxKey string

const claimsKey ctxKey = "accounts.claims"

// WithClaims stores decoded session claims in context.
func WithClaims(ctx context.Context, c *session.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// ClaimsFromCtx fetches session claims from context.
func ClaimsFromCtx(ctx context.Context) (*session.Claims, bool) {
	v := ctx.Value(claimsKey)
	if v == nil {
		return nil, false
	}
	c, ok := v.(*session.Claims)
	return c, ok
}
