package tokenstore

import (
	"context"
	"time"
)

// Record is a stored value with its expiry.
type Record struct {
	Value     string
	ExpiresAt time.Time
}

// Expired reports whether the record is past its expiry at now.
func (r Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

// Store is keyed storage with expiry.
type Store interface {
	// Get returns the live record for key or ErrNotFound.
	Get(ctx context.Context, key string) (Record, error)
	// Set stores value under key, replacing any record, expiring after ttl.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Issue stores value under key unless a live record exists. Either way the
	// record's expiry is reset to now+ttl, and the record now stored is returned.
	Issue(ctx context.Context, key, value string, ttl time.Duration) (Record, error)
	// Increment adds one to the counter under key and returns the new count.
	// A missing or expired counter starts at 1 and expires after ttl; later
	// increments keep the original expiry.
	Increment(ctx context.Context, key string, ttl time.Duration) (count int64, expiresAt time.Time, err error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
