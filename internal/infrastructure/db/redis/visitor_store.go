package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mediavault/portal/internal/core/domain"
)

// VisitorStore keeps visitor records as JSON blobs.
// Key format: portal:visitor:<visitor_id>
type VisitorStore struct {
	client redis.UniversalClient
}

// NewVisitorStore creates a VisitorStore wrapping the given Redis client.
func NewVisitorStore(client redis.UniversalClient) *VisitorStore {
	return &VisitorStore{client: client}
}

// Load returns domain.ErrVisitorNotFound for unknown or expired visitors.
func (s *VisitorStore) Load(ctx context.Context, id string) (*domain.Visitor, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrVisitorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load visitor: %w", err)
	}

	var v domain.Visitor
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode visitor %s: %w", id, err)
	}
	if v.Credentials == nil {
		v.Credentials = domain.Credentials{}
	}
	return &v, nil
}

// Save writes v and resets its expiry to ttl.
func (s *VisitorStore) Save(ctx context.Context, v *domain.Visitor, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode visitor %s: %w", v.ID, err)
	}
	if err := s.client.Set(ctx, s.key(v.ID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("save visitor: %w", err)
	}
	return nil
}

func (s *VisitorStore) key(id string) string {
	return keyPrefix + "visitor:" + id
}
