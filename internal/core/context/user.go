// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// UserContext contains the authenticated session resolved per request:
// who is acting, for which agency, and with which role.
type UserContext struct {
	UserID   string
	AgencyID string
	Email    string
	Role     string
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

// GetAgencyID returns agency ID from context or empty string.
func GetAgencyID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.AgencyID
	}
	return ""
}

// GetRole returns the session role from context or empty string.
func GetRole(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.Role
	}
	return ""
}
