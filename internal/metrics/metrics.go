// Package metrics defines and registers all custom Prometheus metrics for the
// mediavault portal. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "portal"

// ── Session metrics ───────────────────────────────────────────────────────────

// BootstrapTotal counts bootstrap cycles that reached a terminal state.
// Label:
//   - outcome: "authenticated", "unauthenticated" or "rate_limited"
var BootstrapTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bootstrap_total",
		Help:      "Total number of session bootstrap cycles, by terminal state.",
	},
	[]string{"outcome"},
)

// TokenRefreshTotal counts refresh-token calls made by bootstrap cycles.
// Label:
//   - result: "ok", "failed" or "rate_limited"
var TokenRefreshTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_refresh_total",
		Help:      "Total number of token refresh attempts, by result.",
	},
	[]string{"result"},
)

// BootstrapInFlight tracks bootstrap cycles currently running in this process.
var BootstrapInFlight = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "bootstrap_in_flight",
		Help:      "Number of session bootstrap cycles currently running.",
	},
)

// BootstrapCoalescedTotal counts requests that found another cycle for the
// same visitor already running and were served a loading session instead.
var BootstrapCoalescedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bootstrap_coalesced_total",
		Help:      "Total number of requests that joined a bootstrap cycle already in progress.",
	},
)

// ── Action metrics ────────────────────────────────────────────────────────────

// UserActionsTotal counts user-initiated actions.
// Labels:
//   - action: e.g. "login", "logout", "upload"
//   - outcome: "success" or "failure"
var UserActionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "user_actions_total",
		Help:      "Total number of user-initiated actions, by action and outcome.",
	},
	[]string{"action", "outcome"},
)

// RateLimitedTotal counts backend 429 responses that redirected a visitor.
var RateLimitedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of backend rate-limit responses surfaced to visitors.",
	},
)

// ── Backend metrics ───────────────────────────────────────────────────────────

// BackendRequestDuration measures backend round trips.
// Labels:
//   - op: the backend operation, e.g. "get_user", "refresh_token"
//   - code: HTTP status code, or "error" when no response was received
var BackendRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_request_duration_seconds",
		Help:      "Duration of requests made to the media backend.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"op", "code"},
)
