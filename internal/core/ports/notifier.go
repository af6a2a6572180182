package ports

import (
	"context"

	"github.com/mediavault/portal/internal/core/domain"
)

// Notifier queues transient notifications (toasts) for a visitor.
type Notifier interface {
	Push(ctx context.Context, visitorID string, n domain.Notification) error
	// Drain returns and removes every pending notification, oldest first.
	Drain(ctx context.Context, visitorID string) ([]domain.Notification, error)
}
