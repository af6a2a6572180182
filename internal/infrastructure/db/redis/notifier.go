package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mediavault/portal/internal/core/domain"
)

const notificationTTL = 10 * time.Minute

// maxPending caps a visitor's queue; older toasts are dropped first.
const maxPending = 20

// Notifier queues toasts in a Redis list per visitor.
// Key format: portal:notify:<visitor_id>
type Notifier struct {
	client redis.UniversalClient
	log    zerolog.Logger
}

// NewNotifier creates a Notifier wrapping the given Redis client.
func NewNotifier(client redis.UniversalClient, log zerolog.Logger) *Notifier {
	return &Notifier{client: client, log: log.With().Str("component", "notifier").Logger()}
}

func (n *Notifier) Push(ctx context.Context, visitorID string, item domain.Notification) error {
	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	key := n.key(visitorID)
	_, err = n.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.RPush(ctx, key, raw)
		p.LTrim(ctx, key, -maxPending, -1)
		p.Expire(ctx, key, notificationTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("push notification: %w", err)
	}
	return nil
}

// Drain returns and removes every pending notification, oldest first.
// Entries that fail to decode are logged and skipped.
func (n *Notifier) Drain(ctx context.Context, visitorID string) ([]domain.Notification, error) {
	key := n.key(visitorID)

	var lrange *redis.StringSliceCmd
	_, err := n.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		lrange = p.LRange(ctx, key, 0, -1)
		p.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("drain notifications: %w", err)
	}

	items := make([]domain.Notification, 0, len(lrange.Val()))
	for _, raw := range lrange.Val() {
		var item domain.Notification
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			n.log.Error().Err(err).Str("visitor", visitorID).Msg("failed to decode notification, dropping it")
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (n *Notifier) key(visitorID string) string {
	return keyPrefix + "notify:" + visitorID
}
