// killwatch - Hell Let Loose kill-rate watcher
// Copyright 2026 The killwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package api serves the killwatch status surface.

The router is built on chi and exposes three endpoints:

	GET /healthz        liveness of the watch loop
	GET /metrics        Prometheus exposition
	GET /api/v1/status  current loop state and the last cycle report

/api/v1 is rate limited per client IP with httprate. CORS is handled by
go-chi/cors and only admits origins listed in http.cors_allowed_origins.

All JSON bodies except /metrics use the APIResponse envelope:

	{"success": true, "data": {...}, "meta": {"request_id": "...", "timestamp": "..."}}

/healthz reports 503 when the last finished cycle is older than three watch
intervals, which means the watcher goroutine is stuck or crash-looping.
*/
package api
