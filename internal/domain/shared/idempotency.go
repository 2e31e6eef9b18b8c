package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers request keys and the response they produced,
// so a retried request replays the first answer instead of mutating twice.
type IdempotencyStore interface {
	// Reserve claims key for ttl. It returns false if the key is already taken.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Complete stores the response for a reserved key.
	Complete(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Lookup returns the stored response. found is false when the key is
	// unknown; an empty response with found true means the first request is
	// still in flight.
	Lookup(ctx context.Context, key string) (response []byte, found bool, err error)
	// Release drops a reservation so the request can be retried.
	Release(ctx context.Context, key string) error
	Close() error
}
