// Package clientmeta carries per-request client identity (session ID,
// authorization) through context so the backend adapter can forward it
// without the HTTP layer and the adapter knowing about each other.
package clientmeta

import "context"

// contextKey is an unexported type for context keys in this package.
// Using a custom type prevents collisions with keys from other packages
// that might use the same underlying string value.
type contextKey string

const (
	HeaderXSessionID    = "X-Session-ID"
	HeaderAuthorization = "Authorization"

	ctxKeySessionID     contextKey = "session_id"
	ctxKeyAuthorization contextKey = "authorization"
)

func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeySessionID, id)
}

// SessionID returns the session ID attached by the HTTP middleware, or ""
// when the context carries none (e.g. in unit tests).
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeySessionID).(string)
	return id
}

func WithAuthorization(ctx context.Context, header string) context.Context {
	return context.WithValue(ctx, ctxKeyAuthorization, header)
}

// Authorization returns the raw Authorization header to forward to the
// backend, or "" for anonymous requests.
func Authorization(ctx context.Context) string {
	h, _ := ctx.Value(ctxKeyAuthorization).(string)
	return h
}
