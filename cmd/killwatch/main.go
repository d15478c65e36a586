// killwatch - Hell Let Loose kill-rate watcher
// Copyright 2026 The killwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package main is the entry point for killwatch.
//
// killwatch polls a Hell Let Loose server through its CRCON API, computes
// each player's kills per active minute, and posts an alert to Discord or a
// generic webhook when a player exceeds the configured threshold. Players
// whose kills are explained by their role or weapons (tanks, artillery,
// machine guns) or who carry a whitelist flag on their CRCON profile are not
// reported.
//
// # Commands
//
//	killwatch serve   run the watch loop and the status server (default)
//	killwatch cycle   run a single watch cycle and print its report
//
// # Configuration
//
// Configuration is loaded via koanf with layered sources (highest priority wins):
//   - Environment variables (CRCON_URL, CRCON_API_KEY, KILLRATE_THRESHOLD, ...)
//   - Config file (--config, CONFIG_PATH, ./config.yaml or /etc/killwatch/config.yaml)
//   - Built-in defaults
//
// # Signal Handling
//
// serve shuts down on SIGINT and SIGTERM. A cycle in progress is abandoned
// before its next player is evaluated; the status server drains its open
// requests.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
