package api

import (
	"context"
)

type contextKey string

const sessionContextKey contextKey = "admin_session"

// SessionTokenFromContext returns the admin session token authenticated for this request
func SessionTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(sessionContextKey).(string)
	return token
}

// ContextWithSessionToken adds the admin session token to ctx
func ContextWithSessionToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, sessionContextKey, token)
}
