package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/mediavault/portal/internal/core/domain"
	"github.com/mediavault/portal/internal/core/ports"
	"github.com/mediavault/portal/internal/metrics"
)

// Redirect targets handed back to the transport layer.
const (
	PathHome      = "/"
	PathLogin     = "/login"
	PathRateLimit = "/rate-limit"
)

const rateLimitedMessage = "Too many requests. Please wait a moment before trying again."

// actionRecorder surfaces the outcome of user-initiated actions: a
// notification for the visitor, an audit record and a metric. Failures to
// notify or record are logged and never fail the action itself.
type actionRecorder struct {
	notifier ports.Notifier
	activity ports.ActivityRepository
	log      zerolog.Logger
	now      func() time.Time
}

func (a actionRecorder) notify(ctx context.Context, st *SessionState, level domain.NotificationLevel, msg string) {
	n := domain.Notification{Level: level, Message: msg, At: a.now().UTC()}
	if err := a.notifier.Push(ctx, st.ID(), n); err != nil {
		a.log.Warn().Err(err).Str("visitor", st.ID()).Msg("failed to queue notification")
	}
}

func (a actionRecorder) succeeded(ctx context.Context, st *SessionState, action, msg string) {
	metrics.UserActionsTotal.WithLabelValues(action, domain.OutcomeSuccess).Inc()
	if msg != "" {
		a.notify(ctx, st, domain.NotifySuccess, msg)
	}
	a.record(ctx, st, action, domain.OutcomeSuccess, msg)
}

// failed notifies the visitor of err and returns the redirect the
// transport should follow, if any.
func (a actionRecorder) failed(ctx context.Context, st *SessionState, action string, err error) string {
	metrics.UserActionsTotal.WithLabelValues(action, domain.OutcomeFailure).Inc()

	redirect := ""
	msg := domain.MessageOf(err)
	if errors.Is(err, domain.ErrRateLimited) {
		metrics.RateLimitedTotal.Inc()
		msg = rateLimitedMessage
		redirect = PathRateLimit
	}
	a.notify(ctx, st, domain.NotifyError, msg)
	a.record(ctx, st, action, domain.OutcomeFailure, msg)

	a.log.Info().Err(err).Str("visitor", st.ID()).Str("action", action).Msg("user action failed")
	return redirect
}

func (a actionRecorder) record(ctx context.Context, st *SessionState, action, outcome, msg string) {
	entry := &domain.Activity{
		VisitorID: st.ID(),
		Action:    action,
		Outcome:   outcome,
		Message:   msg,
		At:        a.now().UTC(),
	}
	if u := st.Snapshot().User; u != nil {
		entry.UserID = u.ID
	}
	if err := a.activity.Insert(ctx, entry); err != nil {
		a.log.Warn().Err(err).Str("visitor", st.ID()).Str("action", action).Msg("failed to insert activity")
	}
}
