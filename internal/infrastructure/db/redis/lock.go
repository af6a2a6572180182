package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only while it still holds our token, so an
// expired holder cannot release a lock someone else has since taken.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// BootstrapLock is a per-visitor SET NX lock that keeps concurrent requests
// of one visitor from running parallel bootstrap cycles.
// Key format: portal:bootstrap-lock:<visitor_id>
type BootstrapLock struct {
	client redis.UniversalClient
}

// NewBootstrapLock creates a BootstrapLock wrapping the given Redis client.
func NewBootstrapLock(client redis.UniversalClient) *BootstrapLock {
	return &BootstrapLock{client: client}
}

// Acquire takes the lock for ttl. ok is false when another holder owns it.
func (l *BootstrapLock) Acquire(ctx context.Context, visitorID string, ttl time.Duration) (func(context.Context) error, bool, error) {
	key := l.key(visitorID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("bootstrap lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("bootstrap unlock: %w", err)
		}
		return nil
	}
	return release, true, nil
}

func (l *BootstrapLock) key(visitorID string) string {
	return keyPrefix + "bootstrap-lock:" + visitorID
}
