package ratelimit

import (
	"context"
	"time"
)

// Entry is the fixed-window state kept for a single identifier.
type Entry struct {
	Count     int
	ResetTime time.Time
}

// Expired reports whether the entry's window closed strictly before now.
func (e Entry) Expired(now time.Time) bool {
	return e.ResetTime.Before(now)
}

// Store holds rate limit entries keyed by identifier.
// Implementations must make Increment atomic per key: two concurrent calls for
// the same key never observe the same Count.
type Store interface {
	// Increment starts a fresh window {0, now+window} when the key is missing or
	// expired, adds one to Count and returns the updated entry.
	Increment(ctx context.Context, key string, window time.Duration, now time.Time) (Entry, error)

	// Get returns the entry for key. The bool is false when no entry exists.
	Get(ctx context.Context, key string) (Entry, bool, error)

	// Set replaces the entry for key.
	Set(ctx context.Context, key string, entry Entry) error

	// Delete removes the entry for key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Sweep deletes every entry whose ResetTime is before now and returns how many were removed.
	Sweep(ctx context.Context, now time.Time) (int, error)
}
