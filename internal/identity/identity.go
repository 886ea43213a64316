// Package identity carries the authenticated user through a
// context.Context as an immutable value. The guard is the only writer;
// everything downstream only reads.
package identity

import (
	"context"

	"github.com/syncodehq/syncode/internal/domain/user"
)

type ctxKey struct{}

// WithUser returns a context carrying the resolved identity. The
// value is a View: no password hash, no reset-token material.
func WithUser(ctx context.Context, u user.View) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

func UserFrom(ctx context.Context) (user.View, bool) {
	v, ok := ctx.Value(ctxKey{}).(user.View)

	return v, ok && v.ID != ""
}

func UserIDFrom(ctx context.Context) (string, bool) {
	v, ok := UserFrom(ctx)

	return v.ID, ok
}
