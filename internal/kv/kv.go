// Package kv provides the small key-value abstraction used for wizard drafts
// and one-time passwords. Redis backs it in production; MemoryStore backs tests
// and single-instance development runs.
package kv

import (
	"context"
	"time"
)

// Store is a string key-value store with optional per-key expiry.
// A ttl of zero means the key never expires.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// SetIfAbsent stores value only when key is missing or expired and
	// reports whether it did.
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
}
