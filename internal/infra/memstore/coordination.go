package memstore

import (
	"context"
	"sync"
	"time"

	"checkout-core/internal/pkg/clock"
)

const dedupTTL = 48 * time.Hour

type expiringValue struct {
	value     []byte
	done      bool
	expiresAt time.Time
}

// IdempotencyStore mirrors the Redis store for single-process runs.
type IdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]expiringValue
	clock   clock.Clock
}

func NewIdempotencyStore(clk clock.Clock) *IdempotencyStore {
	return &IdempotencyStore{entries: make(map[string]expiringValue), clock: clk}
}

func (s *IdempotencyStore) live(key string) (expiringValue, bool) {
	e, ok := s.entries[key]
	if ok && !s.clock.Now().Before(e.expiresAt) {
		delete(s.entries, key)
		return expiringValue{}, false
	}
	return e, ok
}

func (s *IdempotencyStore) Reserve(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.live(key); ok {
		return false, nil
	}
	s.entries[key] = expiringValue{expiresAt: s.clock.Now().Add(ttl)}
	return true, nil
}

func (s *IdempotencyStore) Load(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key)
	if !ok || !e.done {
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

func (s *IdempotencyStore) Complete(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = expiringValue{
		value:     append([]byte(nil), value...),
		done:      true,
		expiresAt: s.clock.Now().Add(ttl),
	}
	return nil
}

func (s *IdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

type EventDeduper struct {
	mu    sync.Mutex
	seen  map[string]time.Time
	clock clock.Clock
}

func NewEventDeduper(clk clock.Clock) *EventDeduper {
	return &EventDeduper{seen: make(map[string]time.Time), clock: clk}
}

func (d *EventDeduper) IsProcessed(_ context.Context, eventID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	expiresAt, ok := d.seen[eventID]
	if !ok {
		return false, nil
	}
	if !d.clock.Now().Before(expiresAt) {
		delete(d.seen, eventID)
		return false, nil
	}
	return true, nil
}

func (d *EventDeduper) MarkProcessed(_ context.Context, eventID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[eventID] = d.clock.Now().Add(dedupTTL)
	return nil
}
