// killwatch - Hell Let Loose kill-rate watcher
// Copyright 2026 The killwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package config loads and validates the killwatch configuration.

Configuration is read once at process start and is immutable afterwards.
Sources are layered with koanf, later layers overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. Optional YAML file (CONFIG_PATH, ./config.yaml, /etc/killwatch/config.yaml)
 3. Environment variables

# Environment Variables

Server and CRCON:
  - SERVER_NUMBER: which notification entry this process uses (default: 1)
  - CRCON_URL: CRCON base URL (required)
  - CRCON_API_KEY: CRCON API key (required)
  - CRCON_TIMEOUT: per-request timeout (default: 15s)
  - CRCON_REQUESTS_PER_SECOND: client-side request budget (default: 5)

Detection:
  - KILLRATE_THRESHOLD: kills per minute that triggers evaluation (default: 1.4)
  - KILLRATE_MIN_KILLS: minimum kill count before a player is evaluated (default: 5)
  - KILLRATE_MAX_RATE: rate rendered as pure red (default: 2.0)
  - KILLRATE_RATE_BASIS: min, on_map or connected (default: min)
  - WATCH_INTERVAL: time between watch cycles (default: 2m, minimum 2m)
  - WATCH_STARTUP_DELAY: pause before the first cycle (default: 60s)

Whitelist:
  - WHITELIST_FLAGS: comma-separated profile flags (default: 🔕)
  - WHITELIST_FLAG, WHITELIST_ARMOR, WHITELIST_ARTILLERY,
    WHITELIST_MACHINE_GUN, WHITELIST_NO_WEAPON: category toggles

Notifications:
  - NOTIFY_BOT_NAME: author shown on alerts (default: killwatch)
  - NOTIFY_SERVER_<N>_URL, NOTIFY_SERVER_<N>_KIND, NOTIFY_SERVER_<N>_ENABLED:
    notification endpoint for server number N (kind: discord or webhook)

HTTP and logging:
  - HTTP_ENABLED, HTTP_ADDR: status/metrics listener (default: true, :9102)
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER
*/
package config
