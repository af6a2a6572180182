// Package memory holds in-process implementations of the portal's stores,
// used by the CLI and when no Redis is configured. State is lost on exit.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mediavault/portal/internal/core/domain"
)

type visitorEntry struct {
	raw       []byte
	expiresAt time.Time
}

// VisitorStore keeps visitor records in a map, encoded as JSON so callers
// never share memory with the stored copy.
type VisitorStore struct {
	mu       sync.RWMutex
	visitors map[string]visitorEntry
	now      func() time.Time
}

func NewVisitorStore() *VisitorStore {
	return &VisitorStore{visitors: make(map[string]visitorEntry), now: time.Now}
}

func (s *VisitorStore) Load(_ context.Context, id string) (*domain.Visitor, error) {
	s.mu.RLock()
	e, ok := s.visitors[id]
	s.mu.RUnlock()
	if !ok || (!e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)) {
		return nil, domain.ErrVisitorNotFound
	}

	var v domain.Visitor
	if err := json.Unmarshal(e.raw, &v); err != nil {
		return nil, fmt.Errorf("decode visitor %s: %w", id, err)
	}
	if v.Credentials == nil {
		v.Credentials = domain.Credentials{}
	}
	return &v, nil
}

func (s *VisitorStore) Save(_ context.Context, v *domain.Visitor, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode visitor %s: %w", v.ID, err)
	}
	e := visitorEntry{raw: raw}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.visitors[v.ID] = e
	s.mu.Unlock()
	return nil
}

type lockEntry struct {
	token     string
	expiresAt time.Time
}

// BootstrapLock is a per-visitor lock with expiry.
type BootstrapLock struct {
	mu    sync.Mutex
	locks map[string]lockEntry
	now   func() time.Time
}

func NewBootstrapLock() *BootstrapLock {
	return &BootstrapLock{locks: make(map[string]lockEntry), now: time.Now}
}

func (l *BootstrapLock) Acquire(_ context.Context, visitorID string, ttl time.Duration) (func(context.Context) error, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.locks[visitorID]; ok && l.now().Before(e.expiresAt) {
		return nil, false, nil
	}
	token := uuid.NewString()
	l.locks[visitorID] = lockEntry{token: token, expiresAt: l.now().Add(ttl)}

	release := func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if e, ok := l.locks[visitorID]; ok && e.token == token {
			delete(l.locks, visitorID)
		}
		return nil
	}
	return release, true, nil
}

type cacheBucket struct {
	fields    map[string][]byte
	expiresAt time.Time
}

// QueryCache mirrors the Redis hash-per-visitor layout.
type QueryCache struct {
	mu      sync.Mutex
	buckets map[string]*cacheBucket
	ttl     time.Duration
	now     func() time.Time
}

func NewQueryCache(ttl time.Duration) *QueryCache {
	return &QueryCache{buckets: make(map[string]*cacheBucket), ttl: ttl, now: time.Now}
}

func (c *QueryCache) Get(_ context.Context, visitorID, key string, dst any) (bool, error) {
	c.mu.Lock()
	b := c.live(visitorID)
	var raw []byte
	if b != nil {
		raw = b.fields[key]
	}
	c.mu.Unlock()

	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("query cache decode %s: %w", key, err)
	}
	return true, nil
}

func (c *QueryCache) Put(_ context.Context, visitorID, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("query cache encode %s: %w", key, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.live(visitorID)
	if b == nil {
		b = &cacheBucket{fields: make(map[string][]byte)}
		c.buckets[visitorID] = b
	}
	b.fields[key] = raw
	if c.ttl > 0 {
		b.expiresAt = c.now().Add(c.ttl)
	}
	return nil
}

func (c *QueryCache) Invalidate(_ context.Context, visitorID string, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b := c.buckets[visitorID]; b != nil {
		for _, k := range keys {
			delete(b.fields, k)
		}
	}
	return nil
}

func (c *QueryCache) Clear(_ context.Context, visitorID string) error {
	c.mu.Lock()
	delete(c.buckets, visitorID)
	c.mu.Unlock()
	return nil
}

// live returns the visitor's bucket, dropping it first if expired. Callers
// hold c.mu.
func (c *QueryCache) live(visitorID string) *cacheBucket {
	b := c.buckets[visitorID]
	if b != nil && !b.expiresAt.IsZero() && !c.now().Before(b.expiresAt) {
		delete(c.buckets, visitorID)
		return nil
	}
	return b
}

const maxPending = 20

// Notifier queues toasts per visitor.
type Notifier struct {
	mu      sync.Mutex
	pending map[string][]domain.Notification
}

func NewNotifier() *Notifier {
	return &Notifier{pending: make(map[string][]domain.Notification)}
}

func (n *Notifier) Push(_ context.Context, visitorID string, item domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	q := append(n.pending[visitorID], item)
	if len(q) > maxPending {
		q = q[len(q)-maxPending:]
	}
	n.pending[visitorID] = q
	return nil
}

func (n *Notifier) Drain(_ context.Context, visitorID string) ([]domain.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.pending[visitorID]
	delete(n.pending, visitorID)
	return out, nil
}

// ActivityLog keeps the most recent activity entries in a ring.
type ActivityLog struct {
	mu      sync.Mutex
	entries []domain.Activity
	next    int
	full    bool
}

func NewActivityLog(size int) *ActivityLog {
	if size <= 0 {
		size = 256
	}
	return &ActivityLog{entries: make([]domain.Activity, size)}
}

func (l *ActivityLog) Insert(_ context.Context, a *domain.Activity) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[l.next] = *a
	l.next = (l.next + 1) % len(l.entries)
	if l.next == 0 {
		l.full = true
	}
	return nil
}

// Recent returns up to limit entries of the visitor still in the ring,
// newest first. A non-positive limit returns all of them.
func (l *ActivityLog) Recent(_ context.Context, visitorID string, limit int64) ([]domain.Activity, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := l.next
	if l.full {
		n = len(l.entries)
	}
	out := []domain.Activity{}
	for i := 1; i <= n; i++ {
		e := l.entries[(l.next-i+len(l.entries))%len(l.entries)]
		if e.VisitorID != visitorID {
			continue
		}
		out = append(out, e)
		if limit > 0 && int64(len(out)) == limit {
			break
		}
	}
	return out, nil
}
