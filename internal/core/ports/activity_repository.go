package ports

import (
	"context"

	"github.com/mediavault/portal/internal/core/domain"
)

// ActivityRepository is the audit trail of user-initiated actions.
type ActivityRepository interface {
	Insert(ctx context.Context, a *domain.Activity) error
	// Recent returns up to limit entries of the visitor, newest first.
	Recent(ctx context.Context, visitorID string, limit int64) ([]domain.Activity, error)
}
