// killwatch - Hell Let Loose kill-rate watcher
// Copyright 2026 The killwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package crcon is the HTTP client for the CRCON game-server management API.

It supplies the three collaborators the watcher needs:

  - Snapshot: get_team_view flattened into player snapshots, plus the match
    clock derived from the latest MATCH START log line
  - RecentKills: KILL log lines of one player since a point in time
  - HasAnyFlag: moderator flags stored on a player profile

Every response is wrapped as {result, command, failed, error}; a failed
wrapper or a non-200 status is returned as *APIError.

Resilience:

  - Requests are paced by a token bucket (golang.org/x/time/rate)
  - HTTP 429 is retried with exponential backoff, honoring Retry-After
  - CircuitBreakerClient stops calling CRCON after repeated failures and
    returns ErrCircuitOpen until the breaker half-opens again
  - ProfileCache reuses flag lookups for a TTL so a player who stays above
    the threshold does not cost a profile request every cycle

Usage:

	client := crcon.NewClient(crcon.Config{URL: cfg.CRCON.URL, APIKey: cfg.CRCON.APIKey}, logger)
	source := crcon.NewCircuitBreakerClient(client, crcon.BreakerSettings{}, logger)
	snapshot, err := source.Snapshot(ctx)
*/
package crcon
