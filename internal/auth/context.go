package auth

import (
	"context"

	"github.com/tradewise/journal/internal/store"
)

type contextKey struct{}

var userKey contextKey

// ContextWithUser attaches the authenticated user to the request context
func ContextWithUser(ctx context.Context, user *store.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the authenticated user, or nil when the
// request did not pass the auth middleware.
func UserFromContext(ctx context.Context) *store.User {
	user, _ := ctx.Value(userKey).(*store.User)
	return user
}
