// Package cache holds the session cache: a TTL key-value store mapping
// a user id to the serialized user record. An entry existing here is
// what makes a login session alive; the stateless JWTs alone are not
// enough. The primary store remains the source of truth for identity
// fields.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when no entry exists for the key.
// Callers use errors.Is to tell a miss from an infrastructure failure.
var ErrCacheMiss = errors.New("cache: key not found")

type SessionCache interface {
	// Put overwrites any existing entry. Last write wins.
	Put(ctx context.Context, userID string, data []byte, ttl time.Duration) error
	// Get returns the stored record or ErrCacheMiss.
	Get(ctx context.Context, userID string) ([]byte, error)
	// Delete reports whether an entry was present. Deleting an absent
	// entry is not an error.
	Delete(ctx context.Context, userID string) (bool, error)
}
