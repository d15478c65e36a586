// killwatch - Hell Let Loose kill-rate watcher
// Copyright 2026 The killwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging provides the zerolog-based logger shared by killwatch.
//
// The package keeps one process-wide logger configured at startup with
// Init. Long-lived components do not log through the package-level helpers
// directly; they receive a child logger built with Component so that tests
// can inject a buffer-backed logger and assert on decisions:
//
//	watcher := detection.NewWatcher(cfg, deps, logging.Component("watcher"))
//
//	var buf bytes.Buffer
//	watcher := detection.NewWatcher(cfg, deps, logging.NewTestLogger(&buf))
//
// Environment variables recognised through the config package:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false (default: false)
//
// Always terminate log chains with Msg or Send:
//
//	logging.Info().Str("player", name).Msg("suppressed")
package logging
