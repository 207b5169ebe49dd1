package ports

import "context"

// IDGenerator hands out unique entity ids.
type IDGenerator interface {
	NextID() int64
}

// IdempotencyStore remembers which ad a client-supplied Idempotency-Key produced.
type IdempotencyStore interface {
	// Reserve claims (userID, key) for one request. It reports false when the
	// key is already held or recorded.
	Reserve(ctx context.Context, userID int64, key string) (bool, error)
	// Lookup returns the ad id recorded for (userID, key), if any. A reserved
	// key with no ad yet is found with id 0.
	Lookup(ctx context.Context, userID int64, key string) (int64, bool, error)
	Remember(ctx context.Context, userID int64, key string, adID int64) error
	// Release drops a reservation whose request failed.
	Release(ctx context.Context, userID int64, key string) error
}
