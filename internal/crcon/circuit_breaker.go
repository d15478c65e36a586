// killwatch - Hell Let Loose kill-rate watcher
// Copyright 2026 The killwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package crcon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/killwatch/killwatch/internal/detection"
	"github.com/killwatch/killwatch/internal/metrics"
)

// ErrCircuitOpen is returned while the breaker rejects calls to CRCON.
var ErrCircuitOpen = errors.New("crcon circuit breaker open")

// BreakerSettings tunes the circuit breaker. Zero fields take defaults.
type BreakerSettings struct {
	// MaxRequests is the number of trial requests allowed while half-open.
	MaxRequests uint32

	// Interval is the closed-state window after which counts reset.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration

	// MinRequests and FailureRatio decide when the breaker trips.
	MinRequests  uint32
	FailureRatio float64
}

func (s BreakerSettings) withDefaults() BreakerSettings {
	if s.MaxRequests == 0 {
		s.MaxRequests = 3
	}
	if s.Interval <= 0 {
		s.Interval = time.Minute
	}
	if s.Timeout <= 0 {
		s.Timeout = 2 * time.Minute
	}
	if s.MinRequests == 0 {
		s.MinRequests = 10
	}
	if s.FailureRatio <= 0 {
		s.FailureRatio = 0.6
	}
	return s
}

// CircuitBreakerClient wraps Client with a circuit breaker. It implements
// detection.SnapshotSource, detection.WeaponLogSource and
// detection.ProfileStore.
//
// The breaker uses wall-clock time for its interval and timeout; tests
// exercise it with short settings rather than a fake clock.
type CircuitBreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[any]
	name   string
	logger zerolog.Logger
}

var (
	_ detection.SnapshotSource  = (*CircuitBreakerClient)(nil)
	_ detection.WeaponLogSource = (*CircuitBreakerClient)(nil)
	_ detection.ProfileStore    = (*CircuitBreakerClient)(nil)
)

// NewCircuitBreakerClient wraps client. Context cancellation does not count
// as an upstream failure.
func NewCircuitBreakerClient(client *Client, settings BreakerSettings, logger zerolog.Logger) *CircuitBreakerClient {
	settings = settings.withDefaults()
	name := "crcon-api"

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	cbc := &CircuitBreakerClient{client: client, name: name, logger: logger}
	cbc.cb = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= settings.FailureRatio {
				logger.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", ratio*100).
					Msg("opening crcon circuit")
				return true
			}
			return false
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logger.Info().Str("from", fromStr).Str("to", toStr).Msg("crcon circuit state changed")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},

		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return cbc
}

// State returns the breaker state as "closed", "half-open" or "open".
func (cbc *CircuitBreakerClient) State() string {
	return stateToString(cbc.cb.State())
}

func (cbc *CircuitBreakerClient) execute(fn func() (any, error)) (any, error) {
	result, err := cbc.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "rejected").Inc()
			cbc.logger.Warn().Err(err).Msg("crcon request rejected by circuit breaker")
			return nil, fmt.Errorf("%w: %w", ErrCircuitOpen, err)
		}
		metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "failure").Inc()
		counts := cbc.cb.Counts()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbc.name).Set(float64(counts.ConsecutiveFailures))
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbc.name).Set(0)
	return result, nil
}

// castResult type-asserts a breaker result.
func castResult[T any](result any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Snapshot fetches the team view and match clock as one breaker call.
func (cbc *CircuitBreakerClient) Snapshot(ctx context.Context) (*detection.Snapshot, error) {
	return castResult[*detection.Snapshot](cbc.execute(func() (any, error) {
		return cbc.client.Snapshot(ctx)
	}))
}

// RecentKills queries the weapon log with breaker protection.
func (cbc *CircuitBreakerClient) RecentKills(ctx context.Context, q detection.WeaponQuery) ([]detection.WeaponLogEntry, error) {
	return castResult[[]detection.WeaponLogEntry](cbc.execute(func() (any, error) {
		return cbc.client.RecentKills(ctx, q)
	}))
}

// HasAnyFlag checks profile flags with breaker protection.
func (cbc *CircuitBreakerClient) HasAnyFlag(ctx context.Context, playerID string, flags []string) (bool, error) {
	return castResult[bool](cbc.execute(func() (any, error) {
		return cbc.client.HasAnyFlag(ctx, playerID, flags)
	}))
}
