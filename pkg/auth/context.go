package auth

import (
	"context"
	"errors"
)

type contextKey string

const (
	principalKey contextKey = "principal"
)

// WithPrincipal attaches a Principal to the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// GetPrincipal retrieves the Principal from the context.
func GetPrincipal(ctx context.Context) (Principal, error) {
	p, ok := ctx.Value(principalKey).(Principal)
	if !ok {
		return nil, errors.New("no principal in context")
	}
	return p, nil
}

// GetPropertyID is a helper to get the PropertyID from the context's Principal.
func GetPropertyID(ctx context.Context) (string, error) {
	p, err := GetPrincipal(ctx)
	if err != nil {
		return "", err
	}
	return p.GetPropertyID(), nil
}

// MustGetPropertyID panics if the property ID is missing (use only when
// middleware guarantees it).
func MustGetPropertyID(ctx context.Context) string {
	pid, err := GetPropertyID(ctx)
	if err != nil {
		panic(err)
	}
	return pid
}
