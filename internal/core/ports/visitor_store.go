package ports

import (
	"context"
	"time"

	"github.com/mediavault/portal/internal/core/domain"
)

// VisitorStore persists visitor records between requests.
type VisitorStore interface {
	// Load returns domain.ErrVisitorNotFound when id is unknown or expired.
	Load(ctx context.Context, id string) (*domain.Visitor, error)
	Save(ctx context.Context, v *domain.Visitor, ttl time.Duration) error
}

// BootstrapLock coalesces concurrent bootstrap cycles for one visitor.
type BootstrapLock interface {
	// Acquire reports ok=false when another holder owns the lock. The
	// returned release func is nil unless ok is true.
	Acquire(ctx context.Context, visitorID string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}
