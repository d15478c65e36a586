// killwatch - Hell Let Loose kill-rate watcher
// Copyright 2026 The killwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package metrics provides Prometheus metrics for the kill-rate watcher.

All collectors are registered on the default registry through promauto and
are exposed by the status server at /metrics:

	curl http://localhost:9102/metrics

# Available Metrics

Watch cycle:
  - killwatch_cycles_total: Cycles run (counter)
    Labels: state (idle, evaluating), result (success, error)
  - killwatch_cycle_duration_seconds: Cycle latency (histogram)
  - killwatch_cycle_state: 0 idle, 1 evaluating (gauge)
  - killwatch_last_cycle_timestamp_seconds: Last finished cycle (gauge)
  - killwatch_players_connected: Population at last cycle (gauge)

Detection:
  - killwatch_players_evaluated_total: Players with an evaluable rate
  - killwatch_players_triggered_total: Players above the threshold
  - killwatch_players_suppressed_total: Whitelisted triggers
    Labels: reason
  - killwatch_kill_rate: Distribution of evaluated rates (histogram)
  - killwatch_collaborator_failures_total: Degraded lookups
    Labels: source (profile, weapon_log)

Notification:
  - killwatch_alerts_dispatched_total, killwatch_delivery_failures_total
    Labels: notifier
  - killwatch_alerts_skipped_total: Alerts dropped because delivery is disabled

CRCON:
  - killwatch_crcon_request_duration_seconds, killwatch_crcon_request_errors_total
    Labels: endpoint
  - killwatch_circuit_breaker_*: Breaker state, requests, failures, transitions

# Usage

Components call the Record* helpers rather than touching collectors:

	metrics.RecordCycle("evaluating", time.Since(start), len(players), err)
	metrics.RecordSuppression("artillery")

# Testing

Tests read collector values with prometheus/testutil and compare deltas,
since collectors are process-global.
*/
package metrics
