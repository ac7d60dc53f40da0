// Package store persists completed evaluation runs so the API can serve
// them back by ID. Both backends hold JSON-encoded values, which keeps the
// in-memory and Redis implementations interchangeable.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound reports that no value exists under the requested key, either
// because it was never stored or because it expired.
var ErrNotFound = errors.New("not found")

// Store is the persistence seam used by the API handlers.
type Store interface {
	// Set marshals value to JSON and stores it under key for ttl.
	// A non-positive ttl keeps the value until eviction.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error

	// Get unmarshals the value stored under key into dest. Returns
	// ErrNotFound when the key is absent or expired.
	Get(ctx context.Context, key string, dest any) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}
