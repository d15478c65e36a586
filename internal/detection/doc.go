// killwatch - Hell Let Loose kill-rate watcher
// Copyright 2026 The killwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package detection implements the kill-rate watch cycle: it samples live
// player statistics, computes a per-player kill rate, filters explainable
// high rates and dispatches a severity-colored alert for the rest.
//
// Detection Architecture:
//
//	SnapshotSource -> RateCalculator -> WeaponLogSource -> WhitelistEvaluator
//	                                                            |
//	                                                            v
//	                                  Notifier <- Dispatcher <- SeverityMapper
//
// The Watcher drives one cycle per watch interval. A cycle with fewer than
// two qualifying players stays idle and evaluates nobody.
//
// Rate Calculation:
//
// A player is evaluable only once the match has run for MatchWarmup, the
// player has on-map time, has been connected for a full watch interval and
// has reached the configured minimum kill count. The rate is kills divided
// by active minutes, where the denominator is selected by RateBasis. A rate
// triggers only when strictly above the threshold.
//
// Whitelist Precedence:
//
// Suppression rules are checked in a fixed order and the first match wins:
// profile flag, armor (crew role or tank weapon), artillery, machine gun,
// no weapon recorded. Every rule can be disabled. Suppressed players are
// logged with their reason but never notified.
//
// Collaborator failures never abort a cycle. A failed profile lookup counts
// as "no flag", and a failed weapon query skips the weapon-based rules. Only
// a failed snapshot fetch fails the cycle, and the watcher retries at the
// next interval.
package detection
