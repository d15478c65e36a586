// killwatch - Hell Let Loose kill-rate watcher
// Copyright 2026 The killwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Watch Cycle Metrics
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "killwatch_cycles_total",
			Help: "Total number of watch cycles",
		},
		[]string{"state", "result"}, // state: idle, evaluating; result: success, error
	)

	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "killwatch_cycle_duration_seconds",
			Help:    "Duration of one watch cycle in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	CycleState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "killwatch_cycle_state",
			Help: "Current watch loop state (0=idle, 1=evaluating)",
		},
	)

	LastCycleTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "killwatch_last_cycle_timestamp_seconds",
			Help: "Unix timestamp of the last completed watch cycle",
		},
	)

	PlayersConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "killwatch_players_connected",
			Help: "Players connected at the last cycle",
		},
	)

	// Detection Metrics
	PlayersEvaluated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "killwatch_players_evaluated_total",
			Help: "Total number of players with an evaluable kill rate",
		},
	)

	PlayersTriggered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "killwatch_players_triggered_total",
			Help: "Total number of players whose kill rate exceeded the threshold",
		},
	)

	PlayersSuppressed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "killwatch_players_suppressed_total",
			Help: "Total number of triggering players suppressed by a whitelist rule",
		},
		[]string{"reason"}, // flag, armor, artillery, machine-gun, no-weapon
	)

	KillRate = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "killwatch_kill_rate",
			Help:    "Kill rates (kills per minute) of evaluated players",
			Buckets: []float64{.1, .25, .5, .75, 1, 1.25, 1.5, 2, 3, 5},
		},
	)

	CollaboratorFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "killwatch_collaborator_failures_total",
			Help: "Total number of degraded lookups during evaluation",
		},
		[]string{"source"}, // profile, weapon_log
	)

	// Notification Metrics
	AlertsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "killwatch_alerts_dispatched_total",
			Help: "Total number of alerts delivered",
		},
		[]string{"notifier"},
	)

	AlertsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "killwatch_alerts_skipped_total",
			Help: "Total number of alerts not sent because notifications are disabled",
		},
	)

	DeliveryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "killwatch_delivery_failures_total",
			Help: "Total number of failed alert deliveries",
		},
		[]string{"notifier"},
	)

	// CRCON Client Metrics
	CRCONRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "killwatch_crcon_request_duration_seconds",
			Help:    "Duration of CRCON API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	CRCONRequestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "killwatch_crcon_request_errors_total",
			Help: "Total number of failed CRCON API requests",
		},
		[]string{"endpoint"},
	)

	ProfileCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "killwatch_profile_cache_lookups_total",
			Help: "Whitelist flag lookups served by the profile cache, by result (hit, miss)",
		},
		[]string{"result"},
	)

	ProfileCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "killwatch_profile_cache_entries",
			Help: "Whitelist flag results currently held by the profile cache",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "killwatch_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "killwatch_circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "killwatch_circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "killwatch_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// HTTP Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "killwatch_http_requests_total",
			Help: "Total number of status API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "killwatch_http_request_duration_seconds",
			Help:    "Status API request latency in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"method", "endpoint"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "killwatch_app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordCycle records a finished watch cycle.
func RecordCycle(state string, duration time.Duration, population int, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	CyclesTotal.WithLabelValues(state, result).Inc()
	CycleDuration.Observe(duration.Seconds())
	PlayersConnected.Set(float64(population))
	LastCycleTimestamp.Set(float64(time.Now().Unix()))
}

// SetCycleState records the current watch loop state.
func SetCycleState(evaluating bool) {
	if evaluating {
		CycleState.Set(1)
	} else {
		CycleState.Set(0)
	}
}

// RecordEvaluation records one evaluable player and its rate.
func RecordEvaluation(rate float64, triggered bool) {
	PlayersEvaluated.Inc()
	KillRate.Observe(rate)
	if triggered {
		PlayersTriggered.Inc()
	}
}

// RecordSuppression records a triggering player muted by a whitelist rule.
func RecordSuppression(reason string) {
	PlayersSuppressed.WithLabelValues(reason).Inc()
}

// RecordCollaboratorFailure records a degraded profile or weapon lookup.
func RecordCollaboratorFailure(source string) {
	CollaboratorFailures.WithLabelValues(source).Inc()
}

// RecordDispatch records the outcome of one alert delivery.
func RecordDispatch(notifier string, err error) {
	if err != nil {
		DeliveryFailures.WithLabelValues(notifier).Inc()
		return
	}
	AlertsDispatched.WithLabelValues(notifier).Inc()
}

// RecordAlertSkipped records an alert dropped because delivery is disabled.
func RecordAlertSkipped() {
	AlertsSkipped.Inc()
}

// RecordCRCONRequest records a CRCON API call.
func RecordCRCONRequest(endpoint string, duration time.Duration, err error) {
	CRCONRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
	if err != nil {
		CRCONRequestErrors.WithLabelValues(endpoint).Inc()
	}
}

// RecordProfileCacheLookup records a profile cache hit or miss.
func RecordProfileCacheLookup(hit bool) {
	if hit {
		ProfileCacheLookups.WithLabelValues("hit").Inc()
		return
	}
	ProfileCacheLookups.WithLabelValues("miss").Inc()
}

// SetProfileCacheEntries records the profile cache size.
func SetProfileCacheEntries(n int) {
	ProfileCacheEntries.Set(float64(n))
}

// RecordAPIRequest records a status API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
