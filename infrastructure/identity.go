package infrastructure

import (
	"context"
	"strings"
)

type callerKey struct{}

// WithCaller stores the authenticated user ID on the context.
func WithCaller(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, callerKey{}, userID)
}

// CallerFromContext returns the authenticated user ID or ErrNotAuthenticated.
func CallerFromContext(ctx context.Context) (string, error) {
	id, ok := ctx.Value(callerKey{}).(string)
	if !ok {
		return "", ErrNotAuthenticated
	}
	return RequireCaller(id)
}

// RequireCaller validates a caller ID handed to a core operation.
func RequireCaller(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", ErrNotAuthenticated
	}
	return userID, nil
}
