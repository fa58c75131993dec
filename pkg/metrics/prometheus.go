// Package metrics provides Prometheus metrics for the campus engagement engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector the engine registers.
type Manager struct {
	namespace string
	subsystem string
	registry  prometheus.Registerer

	// Ledger metrics
	pointsAwarded   prometheus.Counter
	pointsRevoked   prometheus.Counter
	duplicateAwards prometheus.Counter
	revokeMisses    prometheus.Counter

	// Leaderboard metrics
	leaderboardRebuilds        prometheus.Counter
	leaderboardRebuildDuration prometheus.Histogram
	leaderboardSize            prometheus.Gauge

	// Badge metrics
	badgeUnlocks *prometheus.CounterVec

	// Matcher metrics
	matchComputations prometheus.Counter
	recommendations   prometheus.Counter
	alertDismissals   prometheus.Counter
	alertExpiries     prometheus.Counter

	// Storage metrics
	storeOps    *prometheus.CounterVec
	storeErrors *prometheus.CounterVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace overrides the metric namespace.
func WithNamespace(ns string) Option {
	return func(m *Manager) {
		if ns != "" {
			m.namespace = ns
		}
	}
}

// WithRegistry sets the registerer used for all collectors.
func WithRegistry(r prometheus.Registerer) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}

// Global manager backed by a custom registry so the default Go collectors
// never leak into our scrape output.
var (
	customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry
	globalManager  *Manager                   //nolint:gochecknoglobals // singleton manager
)

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers all collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "engage",
		subsystem: "engine",
		registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initialize()
	return m
}

func (m *Manager) initialize() {
	factory := promauto.With(m.registry)

	m.pointsAwarded = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "points_awarded_total",
		Help:      "Total number of point awards appended to student ledgers.",
	})
	m.pointsRevoked = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "points_revoked_total",
		Help:      "Total number of ledger entries removed by corrections.",
	})
	m.duplicateAwards = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duplicate_awards_total",
		Help:      "Award attempts skipped because the event was already credited.",
	})
	m.revokeMisses = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "revoke_misses_total",
		Help:      "Revoke attempts that found no matching ledger entry.",
	})

	m.leaderboardRebuilds = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboard_rebuilds_total",
		Help:      "Total number of leaderboard rebuilds.",
	})
	m.leaderboardRebuildDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboard_rebuild_duration_ms",
		Help:      "Duration of leaderboard rebuilds in milliseconds.",
		Buckets:   prometheus.DefBuckets,
	})
	m.leaderboardSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboard_size",
		Help:      "Number of students in the current leaderboard view.",
	})

	m.badgeUnlocks = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "badge_unlocks_total",
		Help:      "Badge tiers unlocked, labelled by tier.",
	}, []string{"tier"})

	m.matchComputations = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "match_computations_total",
		Help:      "Total number of event/student match computations.",
	})
	m.recommendations = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recommendations_total",
		Help:      "Match computations that crossed the recommendation threshold.",
	})
	m.alertDismissals = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "alert_dismissals_total",
		Help:      "Total number of dismissed opportunity alerts.",
	})
	m.alertExpiries = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "alert_expiries_total",
		Help:      "Times the dismissed-alert set was cleared by the expiry policy.",
	})

	m.storeOps = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_ops_total",
		Help:      "Key-value store operations, labelled by op.",
	}, []string{"op"})
	m.storeErrors = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_errors_total",
		Help:      "Key-value store operation failures, labelled by op.",
	}, []string{"op"})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests, labelled by endpoint, method and status.",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request duration in milliseconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint", "method", "status"})
}

// Package-level helpers delegating to the global manager.

func RecordPointsAwarded() {
	globalManager.pointsAwarded.Inc()
}

func RecordPointsRevoked() {
	globalManager.pointsRevoked.Inc()
}

func RecordDuplicateAward() {
	globalManager.duplicateAwards.Inc()
}

func RecordRevokeMiss() {
	globalManager.revokeMisses.Inc()
}

func RecordLeaderboardRebuild(durationMs float64, size int) {
	globalManager.leaderboardRebuilds.Inc()
	globalManager.leaderboardRebuildDuration.Observe(durationMs)
	globalManager.leaderboardSize.Set(float64(size))
}

func RecordBadgeUnlock(tier string) {
	globalManager.badgeUnlocks.WithLabelValues(tier).Inc()
}

func RecordMatchComputation(recommended bool) {
	globalManager.matchComputations.Inc()
	if recommended {
		globalManager.recommendations.Inc()
	}
}

func RecordAlertDismissal() {
	globalManager.alertDismissals.Inc()
}

func RecordAlertExpiry() {
	globalManager.alertExpiries.Inc()
}

func RecordStoreOp(op string) {
	globalManager.storeOps.WithLabelValues(op).Inc()
}

func RecordStoreError(op string) {
	globalManager.storeErrors.WithLabelValues(op).Inc()
}

func RecordHTTPRequest(endpoint, method, status string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(durationMs)
}

// GetRegistry exposes the custom registry for the metrics endpoint.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
