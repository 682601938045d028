// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// UserContext describes the staff member acting on a request.
// It is populated by the user context middleware from the X-User-ID header;
// authentication happens upstream of this service.
type UserContext struct {
	UserID   string
	Terminal string
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
