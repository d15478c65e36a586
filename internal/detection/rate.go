// killwatch - Hell Let Loose kill-rate watcher
// Copyright 2026 The killwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package detection

import (
	"fmt"
	"math"
	"time"
)

const (
	// MatchWarmup is the opening period of a match during which counters
	// are too noisy to evaluate.
	MatchWarmup = 2 * time.Minute

	// TicksPerMinute converts offense and defense score ticks to minutes.
	TicksPerMinute = 20
)

// RateBasis selects the active-minutes denominator.
type RateBasis string

const (
	// RateBasisMin uses the smaller of on-map minutes and minutes since
	// match start.
	RateBasisMin RateBasis = "min"

	// RateBasisOnMap uses on-map minutes alone.
	RateBasisOnMap RateBasis = "on_map"

	// RateBasisConnected uses minutes since the player connected.
	RateBasisConnected RateBasis = "connected"
)

// ParseRateBasis converts a configuration value to a RateBasis.
func ParseRateBasis(s string) (RateBasis, error) {
	switch b := RateBasis(s); b {
	case RateBasisMin, RateBasisOnMap, RateBasisConnected:
		return b, nil
	case "":
		return RateBasisMin, nil
	default:
		return "", fmt.Errorf("unknown rate basis %q", s)
	}
}

// RateConfig configures the RateCalculator.
type RateConfig struct {
	// Threshold in kills per minute. Only a strictly greater rate triggers.
	Threshold float64

	// MinKills is the smallest kill count that is evaluated.
	MinKills int

	// Interval is the watch interval. Players connected for less are skipped.
	Interval time.Duration

	Basis RateBasis
}

// RateResult is the outcome of a rate computation.
type RateResult struct {
	Rate          float64
	MinutesActive float64
}

// RateCalculator converts a player's counters into kills per minute.
type RateCalculator struct {
	config RateConfig
}

// NewRateCalculator creates a RateCalculator. An empty basis selects RateBasisMin.
func NewRateCalculator(config RateConfig) *RateCalculator {
	if config.Basis == "" {
		config.Basis = RateBasisMin
	}
	return &RateCalculator{config: config}
}

// Compute returns the player's kill rate, or false when the player is not
// evaluable. Guards are checked in order and the first failing guard wins:
// match warmup, on-map time, connection time, minimum kills.
func (c *RateCalculator) Compute(p PlayerSnapshot, clock MatchClock) (RateResult, bool) {
	if clock.Elapsed() <= MatchWarmup {
		return RateResult{}, false
	}

	onMap := p.OnMapMinutes()
	if onMap <= 0 {
		return RateResult{}, false
	}

	if p.ConnectedSeconds < c.config.Interval.Seconds() {
		return RateResult{}, false
	}

	if p.Kills < c.config.MinKills || p.Kills <= 0 {
		return RateResult{}, false
	}

	minutes := c.activeMinutes(p, clock, onMap)
	if minutes <= 0 {
		return RateResult{}, false
	}

	return RateResult{
		Rate:          float64(p.Kills) / minutes,
		MinutesActive: minutes,
	}, true
}

func (c *RateCalculator) activeMinutes(p PlayerSnapshot, clock MatchClock, onMap float64) float64 {
	switch c.config.Basis {
	case RateBasisOnMap:
		return onMap
	case RateBasisConnected:
		return p.ConnectedSeconds / 60
	default:
		return math.Min(onMap, clock.ElapsedSeconds/60)
	}
}

// Triggers reports whether rate is strictly above the threshold.
func (c *RateCalculator) Triggers(rate float64) bool {
	return rate > c.config.Threshold
}

// Threshold returns the configured trigger threshold.
func (c *RateCalculator) Threshold() float64 {
	return c.config.Threshold
}
