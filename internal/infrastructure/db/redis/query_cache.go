package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// QueryCache stores a visitor's backend GET results in one hash, one field
// per query key, so Clear is a single DEL.
// Key format: portal:cache:<visitor_id>
type QueryCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewQueryCache creates a QueryCache whose entries live for ttl after the
// last write.
func NewQueryCache(client redis.UniversalClient, ttl time.Duration) *QueryCache {
	return &QueryCache{client: client, ttl: ttl}
}

func (c *QueryCache) Get(ctx context.Context, visitorID, key string, dst any) (bool, error) {
	raw, err := c.client.HGet(ctx, c.key(visitorID), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query cache get: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("query cache decode %s: %w", key, err)
	}
	return true, nil
}

func (c *QueryCache) Put(ctx context.Context, visitorID, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("query cache encode %s: %w", key, err)
	}

	hkey := c.key(visitorID)
	_, err = c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, hkey, key, raw)
		if c.ttl > 0 {
			p.Expire(ctx, hkey, c.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("query cache put: %w", err)
	}
	return nil
}

func (c *QueryCache) Invalidate(ctx context.Context, visitorID string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.HDel(ctx, c.key(visitorID), keys...).Err(); err != nil {
		return fmt.Errorf("query cache invalidate: %w", err)
	}
	return nil
}

func (c *QueryCache) Clear(ctx context.Context, visitorID string) error {
	if err := c.client.Del(ctx, c.key(visitorID)).Err(); err != nil {
		return fmt.Errorf("query cache clear: %w", err)
	}
	return nil
}

func (c *QueryCache) key(visitorID string) string {
	return keyPrefix + "cache:" + visitorID
}
