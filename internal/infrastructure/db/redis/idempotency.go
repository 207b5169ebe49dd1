package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultIdempotencyTTL = 24 * time.Hour

// IdempotencyStore remembers the ad created for each client-supplied
// Idempotency-Key. Key format: idem:<user_id>:<key>
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore wraps the given client. A non-positive ttl falls back
// to a day.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// pending marks a key reserved by a request that has not produced an ad yet.
const pending = "0"

// Reserve claims the key with SETNX so only one request per key creates an ad.
func (s *IdempotencyStore) Reserve(ctx context.Context, userID int64, key string) (bool, error) {
	ok, err := s.client.SetNX(ctx, idempotencyKey(userID, key), pending, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("idempotency reserve: %w", err)
	}
	return ok, nil
}

func (s *IdempotencyStore) Lookup(ctx context.Context, userID int64, key string) (int64, bool, error) {
	val, err := s.client.Get(ctx, idempotencyKey(userID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("idempotency lookup: %w", err)
	}

	adID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("idempotency value %q: %w", val, err)
	}
	return adID, true, nil
}

// Remember records adID under the key, replacing the reservation.
func (s *IdempotencyStore) Remember(ctx context.Context, userID int64, key string, adID int64) error {
	err := s.client.Set(ctx, idempotencyKey(userID, key), strconv.FormatInt(adID, 10), s.ttl).Err()
	if err != nil {
		return fmt.Errorf("idempotency remember: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) Release(ctx context.Context, userID int64, key string) error {
	if err := s.client.Del(ctx, idempotencyKey(userID, key)).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

func idempotencyKey(userID int64, key string) string {
	return fmt.Sprintf("idem:%d:%s", userID, key)
}
