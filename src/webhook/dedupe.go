package webhook

import (
	"context"
	"time"

	"linebot_responder/src/storage"
)

// Deduper claims webhook event ids so redelivered events are answered once
type Deduper interface {
	Claim(ctx context.Context, eventID string) (bool, error)
}

type RedisDeduper struct {
	store *storage.RedisStorage
	ttl   time.Duration
}

func NewRedisDeduper(store *storage.RedisStorage, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{store: store, ttl: ttl}
}

func (d *RedisDeduper) Claim(ctx context.Context, eventID string) (bool, error) {
	return d.store.Claim(ctx, eventID, d.ttl)
}
