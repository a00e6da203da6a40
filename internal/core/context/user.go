// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// UserContext contains the authenticated operator identity. Populated by
// the auth middleware from a validated bearer token; the handler layer
// never re-parses credentials, it only reads this from ctx.
type UserContext struct {
	UserID   string
	Username string
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}
