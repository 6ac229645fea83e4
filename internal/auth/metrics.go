package auth

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	decisionAllow = "allow"
	decisionDeny  = "deny"
	decisionError = "error"
)

var (
	// decisionsTotal counts authorization decisions by strategy and outcome.
	decisionsTotal = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Name: "authz_decisions_total",
			Help: "Total number of authorization decisions, by strategy and outcome.",
		},
		[]string{"strategy", "decision"},
	)

	// decisionDuration tracks the latency of authorization decisions.
	decisionDuration = promauto.NewHistogramVec( //nolint:gochecknoglobals
		prometheus.HistogramOpts{
			Name:    "authz_decision_duration_seconds",
			Help:    "Duration of authorization decisions in seconds.",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{"strategy"},
	)

	// permissionCacheTotal counts role permission cache lookups by result.
	permissionCacheTotal = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Name: "authz_permission_cache_total",
			Help: "Role permission cache lookups, by result (hit or miss).",
		},
		[]string{"result"},
	)
)

func observeDecision(strategy Strategy, d Decision, err error, elapsed time.Duration) {
	outcome := decisionDeny

	switch {
	case err != nil:
		outcome = decisionError
	case d.Allowed:
		outcome = decisionAllow
	}

	decisionsTotal.WithLabelValues(string(strategy), outcome).Inc()
	decisionDuration.WithLabelValues(string(strategy)).Observe(elapsed.Seconds())
}
