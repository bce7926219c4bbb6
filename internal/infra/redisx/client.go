// Package redisx keeps short-lived coordination state in Redis: processed
// payment events and checkout idempotency results.
package redisx

import (
	"context"
	"time"

	"checkout-core/internal/pkg/config"

	"github.com/redis/go-redis/v9"
)

const (
	// dedup:{service}:{event_id}
	keyDedup = "dedup:%s:%s"
	// idem:{scope key}
	keyIdempotency = "idem:%s"
)

var (
	TTLDedup       = 48 * time.Hour
	TTLIdempotency = 24 * time.Hour
)

func New(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

func Ping(ctx context.Context, rdb *redis.Client) error {
	return rdb.Ping(ctx).Err()
}
