// Package cache keeps a Redis read-through copy of entity histories.
//
// Every entity has a generation counter. Readers note the generation before
// loading from the store and write the loaded history under that
// generation; writers bump the generation after commit. A history loaded
// before a commit can therefore only land under a generation nobody reads
// anymore, which keeps read-your-writes intact.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ItsLhuis/mxt-sub001/internal/interaction/models"
)

const (
	keyPrefix  = "mxt:interactions:"
	defaultTTL = 10 * time.Minute
)

// RedisHistory caches histories in Redis.
type RedisHistory struct {
	client redis.Cmdable
	ttl    time.Duration
}

// Option configures a RedisHistory.
type Option func(*RedisHistory)

// WithTTL sets how long a cached history lives.
func WithTTL(ttl time.Duration) Option {
	return func(c *RedisHistory) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// NewRedisHistory creates a history cache over client.
func NewRedisHistory(client redis.Cmdable, opts ...Option) *RedisHistory {
	c := &RedisHistory{client: client, ttl: defaultTTL}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func genKey(et models.EntityType, id uuid.UUID) string {
	return keyPrefix + "gen:" + string(et) + ":" + id.String()
}

func dataKey(et models.EntityType, id uuid.UUID, gen int64) string {
	return fmt.Sprintf("%s%s:%s:%d", keyPrefix, et, id, gen)
}

// Get returns the cached history and the generation it was read at. hit is
// false when nothing is cached for the current generation; gen is still
// valid for a following Set.
func (c *RedisHistory) Get(ctx context.Context, et models.EntityType, id uuid.UUID) (records []models.Record, gen int64, hit bool, err error) {
	gen, err = c.client.Get(ctx, genKey(et, id)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, false, fmt.Errorf("read generation: %w", err)
	}
	data, err := c.client.Get(ctx, dataKey(et, id, gen)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, gen, false, fmt.Errorf("read history: %w", err)
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, gen, false, fmt.Errorf("decode history: %w", err)
	}
	return records, gen, true, nil
}

// Set stores records under generation gen.
func (c *RedisHistory) Set(ctx context.Context, et models.EntityType, id uuid.UUID, gen int64, records []models.Record) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := c.client.Set(ctx, dataKey(et, id, gen), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

// Invalidate moves the entity to a new generation.
func (c *RedisHistory) Invalidate(ctx context.Context, et models.EntityType, id uuid.UUID) error {
	if err := c.client.Incr(ctx, genKey(et, id)).Err(); err != nil {
		return fmt.Errorf("bump generation: %w", err)
	}
	return nil
}
