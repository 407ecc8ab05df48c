// Package metrics defines and registers all custom Prometheus metrics for the
// sb-ecom auth API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sbecom/sb-ecom/internal/core/domain"
	"github.com/sbecom/sb-ecom/internal/core/ports"
)

const namespace = "sbecom"

// ── Authentication metrics ────────────────────────────────────────────────────

// AuthenticationsTotal counts authentication passes run by the filter.
// Label:
//   - outcome: "authenticated" or the failure reason (e.g. "expired", "absent")
var AuthenticationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authentications_total",
		Help:      "Total number of request authentication passes, by outcome.",
	},
	[]string{"outcome"},
)

// PolicyDecisionsTotal counts authorization decisions.
// Labels:
//   - access: "public", "authenticated" or "role(NAME)"
//   - decision: "allow", "unauthenticated" or "forbidden"
var PolicyDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "policy_decisions_total",
		Help:      "Total number of authorization policy decisions.",
	},
	[]string{"access", "decision"},
)

// PrincipalLoadDuration measures user-store reads done while authenticating.
// Label:
//   - result: "found", "not_found" or "error"
var PrincipalLoadDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "principal_load_duration_seconds",
		Help:      "Duration of principal lookups against the user store.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)

// SigninsTotal counts credential exchanges.
// Label:
//   - result: "success", "bad_credentials" or "error"
var SigninsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signins_total",
		Help:      "Total number of sign-in attempts, by result.",
	},
	[]string{"result"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditEventsTotal counts audit events written or failed by the dispatcher.
// Label:
//   - result: "recorded", "failed" or "dropped"
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of audit events handled by the dispatcher, by result.",
	},
	[]string{"result"},
)

// AuditQueueDepth tracks the number of audit events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// InstrumentLoader wraps a PrincipalLoader so every lookup is timed.
func InstrumentLoader(next ports.PrincipalLoader) ports.PrincipalLoader {
	return instrumentedLoader{next: next}
}

type instrumentedLoader struct {
	next ports.PrincipalLoader
}

func (l instrumentedLoader) Load(ctx context.Context, username string) (domain.Principal, error) {
	start := time.Now()
	p, err := l.next.Load(ctx, username)
	result := "found"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrPrincipalNotFound):
		result = "not_found"
	default:
		result = "error"
	}
	PrincipalLoadDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	return p, err
}
