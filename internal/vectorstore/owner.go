package vectorstore

import (
	"context"
	"errors"
)

// Owner isolation error types - fail closed security model.
var (
	// ErrMissingOwner is returned when owner info is missing from context.
	// This triggers "fail closed" behavior - no empty results, just errors.
	ErrMissingOwner = errors.New("owner info missing from context")

	// ErrInvalidOwner is returned when the owner identifier is invalid.
	ErrInvalidOwner = errors.New("invalid owner identifier")
)

// ownerContextKey is the context key for the owning user id.
type ownerContextKey struct{}

// ContextWithOwner adds the owning user id to a context.
func ContextWithOwner(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ownerContextKey{}, userID)
}

// OwnerFromContext extracts the owning user id from a context.
// Returns ErrMissingOwner if not present, ErrInvalidOwner if empty - fail
// closed: an index operation without a valid owner never proceeds.
func OwnerFromContext(ctx context.Context) (string, error) {
	val := ctx.Value(ownerContextKey{})
	if val == nil {
		return "", ErrMissingOwner
	}
	userID, ok := val.(string)
	if !ok {
		return "", ErrMissingOwner
	}
	if userID == "" {
		return "", ErrInvalidOwner
	}
	return userID, nil
}

// HasOwner checks if owner info is present in context without error.
func HasOwner(ctx context.Context) bool {
	_, err := OwnerFromContext(ctx)
	return err == nil
}
