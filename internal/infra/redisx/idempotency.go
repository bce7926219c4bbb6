package redisx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// pendingMarker occupies a key between Reserve and Complete.
const pendingMarker = "\x00pending"

type IdempotencyStore struct {
	rdb *redis.Client
}

func NewIdempotencyStore(rdb *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb}
}

func (s *IdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, fmt.Sprintf(keyIdempotency, key), pendingMarker, ttlOrDefault(ttl)).Result()
}

func (s *IdempotencyStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.rdb.Get(ctx, fmt.Sprintf(keyIdempotency, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if string(val) == pendingMarker {
		return nil, false, nil
	}
	return val, true, nil
}

func (s *IdempotencyStore) Complete(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.rdb.Set(ctx, fmt.Sprintf(keyIdempotency, key), value, ttlOrDefault(ttl)).Err()
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, fmt.Sprintf(keyIdempotency, key)).Err()
}

func ttlOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return TTLIdempotency
	}
	return ttl
}
