package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idempotencyPrefix = "walletledger:idempotency:"

	// placeholder marks a key whose operation is still running.
	placeholder = "processing"
)

// releaseScript deletes a key only while it still holds the placeholder,
// so a stored result is never dropped by a late release.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// IdempotencyStore implements usecase.IdempotencyStore using Redis.
type IdempotencyStore struct {
	client redis.UniversalClient
	prefix string
}

// NewIdempotencyStore creates a new IdempotencyStore.
func NewIdempotencyStore(client redis.UniversalClient) *IdempotencyStore {
	return &IdempotencyStore{
		client: client,
		prefix: idempotencyPrefix,
	}
}

// CheckAndSet atomically reserves key. If the key already exists it returns
// true with the stored value, which is either a result or the placeholder.
// A non-nil response is stored instead of the placeholder.
func (s *IdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	fullKey := s.prefix + key

	var value any = placeholder
	if response != nil {
		value = response
	}

	set, err := s.client.SetNX(ctx, fullKey, value, ttl).Result()
	if err != nil {
		return false, nil, err
	}
	if set {
		return false, nil, nil
	}

	existing, err := s.client.Get(ctx, fullKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// Expired or released between SETNX and GET; treat as in flight.
			return true, []byte(placeholder), nil
		}
		return false, nil, err
	}

	return true, existing, nil
}

// Update replaces the reservation with the final response.
func (s *IdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, response, ttl).Err()
}

// Release drops a reservation so the request can be retried.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return releaseScript.Run(ctx, s.client, []string{s.prefix + key}, placeholder).Err()
}
