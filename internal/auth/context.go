package auth

import "context"

type ctxKey struct{}

type identity struct {
	userID string
}

// WithIdentity stores the authenticated identity in context.
func WithIdentity(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, identity{userID: userID})
}

// UserID returns the authenticated user id, if any.
func UserID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKey{}).(identity)
	if !ok || v.userID == "" {
		return "", false
	}
	return v.userID, true
}
