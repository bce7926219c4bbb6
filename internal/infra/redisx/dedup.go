package redisx

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const paymentsService = "payments"

type EventDeduper struct {
	rdb *redis.Client
}

func NewEventDeduper(rdb *redis.Client) *EventDeduper {
	return &EventDeduper{rdb: rdb}
}

func (d *EventDeduper) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	n, err := d.rdb.Exists(ctx, fmt.Sprintf(keyDedup, paymentsService, eventID)).Result()
	return n > 0, err
}

func (d *EventDeduper) MarkProcessed(ctx context.Context, eventID string) error {
	return d.rdb.Set(ctx, fmt.Sprintf(keyDedup, paymentsService, eventID), "1", TTLDedup).Err()
}
