package service

import "context"

type userCtxKey struct{}

// WithUser returns ctx carrying the authenticated caller's user id.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userCtxKey{}, userID)
}

// UserFromContext extracts the authenticated user id set by the auth
// middleware.
func UserFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(userCtxKey{})
	if v == nil {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}
