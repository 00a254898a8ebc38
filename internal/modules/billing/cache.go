// README: Read-through bill cache in Redis, keyed by bill id.
package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ridebook/internal/types"
)

// Cache holds bills by id. A hit with a nil bill means the bill is known to
// be deleted.
type Cache interface {
	Get(ctx context.Context, id types.ID) (*Bill, bool, error)
	// Fill stores b only when nothing is cached for its id, so a reader that
	// loaded an older row cannot overwrite a newer write.
	Fill(ctx context.Context, b *Bill) error
	// Put overwrites whatever is cached with the freshly written row.
	Put(ctx context.Context, b *Bill) error
	// Forget marks the bill as deleted.
	Forget(ctx context.Context, id types.ID) error
}

var tombstone = []byte("-")

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCache{client: client, ttl: ttl}
}

func billKey(id types.ID) string {
	return fmt.Sprintf("bill:%d", id)
}

func (c *RedisCache) Get(ctx context.Context, id types.ID) (*Bill, bool, error) {
	raw, err := c.client.Get(ctx, billKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if bytes.Equal(raw, tombstone) {
		return nil, true, nil
	}
	var b Bill
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, false, err
	}
	return &b, true, nil
}

func (c *RedisCache) Fill(ctx context.Context, b *Bill) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return c.client.SetNX(ctx, billKey(b.ID), raw, c.ttl).Err()
}

func (c *RedisCache) Put(ctx context.Context, b *Bill) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, billKey(b.ID), raw, c.ttl).Err()
}

func (c *RedisCache) Forget(ctx context.Context, id types.ID) error {
	return c.client.Set(ctx, billKey(id), tombstone, c.ttl).Err()
}

// nopCache is used when Redis is not configured.
type nopCache struct{}

func (nopCache) Get(context.Context, types.ID) (*Bill, bool, error) { return nil, false, nil }
func (nopCache) Fill(context.Context, *Bill) error                  { return nil }
func (nopCache) Put(context.Context, *Bill) error                   { return nil }
func (nopCache) Forget(context.Context, types.ID) error             { return nil }
