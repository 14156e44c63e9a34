package auth

import (
	"context"

	"github.com/Snkb-ch/store/internal/domain"
)

type contextKey struct{}

func WithCustomer(ctx context.Context, c domain.Customer) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// CustomerFrom returns the authenticated principal placed in the context by
// the middleware. Handlers behind Require can rely on ok being true.
func CustomerFrom(ctx context.Context) (domain.Customer, bool) {
	c, ok := ctx.Value(contextKey{}).(domain.Customer)
	return c, ok
}
