// Package feed reads recent posts of social media accounts.
package feed

import (
	"context"
	"errors"
)

// ErrUserNotFound is returned when a handle cannot be resolved.
var ErrUserNotFound = errors.New("user not found")

// Reader turns an account handle into its latest text posts.
type Reader interface {
	// ResolveUser returns the platform identifier of handle.
	ResolveUser(ctx context.Context, handle string) (string, error)
	// LatestPosts returns at most count post texts, most recent first.
	LatestPosts(ctx context.Context, handle, userID string, count int) ([]string, error)
}
