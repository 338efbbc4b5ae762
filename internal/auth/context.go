package auth

import (
	"context"

	"github.com/dharsanguruparan/imggen/internal/model"
)

type userContextKey struct{}

// WithUser attaches the authenticated user to ctx.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext returns the user attached by VerifyToken.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	if ctx == nil {
		return nil, false
	}
	user, ok := ctx.Value(userContextKey{}).(*model.User)
	return user, ok && user != nil
}
