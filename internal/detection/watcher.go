// killwatch - Hell Let Loose kill-rate watcher
// Copyright 2026 The killwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package detection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"github.com/rs/zerolog"

	"github.com/killwatch/killwatch/internal/metrics"
)

// DefaultMinPopulation is the number of qualifying players needed before a
// cycle evaluates anyone.
const DefaultMinPopulation = 2

const (
	eventActivate = "activate"
	eventPause    = "pause"
)

// WatcherConfig configures the watch loop.
type WatcherConfig struct {
	// Interval is the wait between cycles and the length of the weapon window.
	Interval time.Duration

	// StartupDelay is waited once before the first cycle.
	StartupDelay time.Duration

	// WeaponLogLimit caps the kill records fetched per triggering player.
	WeaponLogLimit int

	// MinPopulation is the qualifying player count needed to evaluate.
	MinPopulation int
}

// Watcher runs the kill-rate watch cycle. Cycles never overlap.
type Watcher struct {
	config     WatcherConfig
	snapshots  SnapshotSource
	weapons    WeaponLogSource
	rates      *RateCalculator
	whitelist  *WhitelistEvaluator
	dispatcher *Dispatcher
	logger     zerolog.Logger
	now        func() time.Time

	state *fsm.FSM

	mu   sync.RWMutex
	last *CycleReport
}

// NewWatcher creates a Watcher in the idle state.
func NewWatcher(
	config WatcherConfig,
	snapshots SnapshotSource,
	weapons WeaponLogSource,
	rates *RateCalculator,
	whitelist *WhitelistEvaluator,
	dispatcher *Dispatcher,
	logger zerolog.Logger,
) *Watcher {
	if config.MinPopulation <= 0 {
		config.MinPopulation = DefaultMinPopulation
	}
	if config.WeaponLogLimit <= 0 {
		config.WeaponLogLimit = 500
	}

	w := &Watcher{
		config:     config,
		snapshots:  snapshots,
		weapons:    weapons,
		rates:      rates,
		whitelist:  whitelist,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}

	w.state = fsm.NewFSM(
		string(StateIdle),
		fsm.Events{
			{Name: eventActivate, Src: []string{string(StateIdle)}, Dst: string(StateEvaluating)},
			{Name: eventPause, Src: []string{string(StateEvaluating)}, Dst: string(StateIdle)},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				w.logger.Info().Str("from", e.Src).Str("to", e.Dst).Msg("watch state changed")
				metrics.SetCycleState(e.Dst == string(StateEvaluating))
			},
		},
	)

	return w
}

// State returns the current watch loop state.
func (w *Watcher) State() CycleState {
	return CycleState(w.state.Current())
}

// LastReport returns a copy of the most recent cycle report.
func (w *Watcher) LastReport() (CycleReport, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.last == nil {
		return CycleReport{}, false
	}
	report := *w.last
	report.Suppressed = make(map[Reason]int, len(w.last.Suppressed))
	for k, v := range w.last.Suppressed {
		report.Suppressed[k] = v
	}
	return report, true
}

// RunWithContext waits for the startup delay, then runs one cycle per
// interval until ctx is canceled. A failed cycle is logged and the loop
// continues. It returns ctx.Err() on shutdown.
func (w *Watcher) RunWithContext(ctx context.Context) error {
	w.logger.Info().
		Dur("interval", w.config.Interval).
		Dur("startup_delay", w.config.StartupDelay).
		Msg("kill rate watcher starting")

	if w.config.StartupDelay > 0 {
		timer := time.NewTimer(w.config.StartupDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		// Errors are already logged and recorded in the report.
		_, _ = w.RunCycle(ctx)

		select {
		case <-ctx.Done():
			w.logger.Info().Msg("kill rate watcher stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunCycle runs one watch cycle. It returns an error when the snapshot
// could not be obtained or ctx ended; in the latter case the players not yet
// evaluated are skipped and the partial report is kept as the last report.
func (w *Watcher) RunCycle(ctx context.Context) (*CycleReport, error) {
	start := w.now()
	report := &CycleReport{
		ID:         uuid.New(),
		StartedAt:  start,
		State:      w.State(),
		Suppressed: make(map[Reason]int),
	}
	logger := w.logger.With().Str("cycle_id", report.ID.String()).Logger()

	err := w.runCycle(ctx, report, logger)

	report.Duration = w.now().Sub(start)
	if err != nil {
		report.Error = err.Error()
		if errors.Is(err, context.Canceled) {
			logger.Debug().Err(err).Msg("watch cycle canceled")
		} else {
			logger.Error().Err(err).Msg("watch cycle failed")
		}
	}
	metrics.RecordCycle(string(report.State), report.Duration, report.Population, err)

	w.mu.Lock()
	w.last = report
	w.mu.Unlock()

	return report, err
}

func (w *Watcher) runCycle(ctx context.Context, report *CycleReport, logger zerolog.Logger) error {
	snapshot, err := w.snapshots.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("fetch snapshot: %w", err)
	}

	report.Population = len(snapshot.Players)
	report.Qualifying = qualifyingPopulation(snapshot.Players)
	report.State = w.transition(ctx, report.Qualifying, logger)

	if report.State == StateIdle {
		logger.Info().
			Int("population", report.Population).
			Int("qualifying", report.Qualifying).
			Int("required", w.config.MinPopulation).
			Msg("not enough players, waiting")
		return nil
	}

	for _, p := range snapshot.Players {
		if err := ctx.Err(); err != nil {
			return err
		}
		eval := w.evaluate(ctx, p, snapshot.Clock, logger)
		report.add(eval)
	}

	logger.Debug().
		Int("population", report.Population).
		Int("evaluated", report.Evaluated).
		Int("triggered", report.Triggered).
		Int("dispatched", report.Dispatched).
		Msg("watch cycle complete")
	return nil
}

// transition moves the state machine to match the current population.
func (w *Watcher) transition(ctx context.Context, qualifying int, logger zerolog.Logger) CycleState {
	event := eventPause
	if qualifying >= w.config.MinPopulation {
		event = eventActivate
	}
	if w.state.Can(event) {
		if err := w.state.Event(ctx, event); err != nil {
			logger.Warn().Err(err).Str("event", event).Msg("watch state transition failed")
		}
	}
	return w.State()
}

// evaluate runs one player through the rate, whitelist and dispatch pipeline.
func (w *Watcher) evaluate(ctx context.Context, p PlayerSnapshot, clock MatchClock, logger zerolog.Logger) Evaluation {
	eval := Evaluation{Player: p}

	result, ok := w.rates.Compute(p, clock)
	if !ok {
		return eval
	}
	eval.Evaluable = true
	eval.Rate = result.Rate
	eval.MinutesActive = result.MinutesActive
	eval.Triggered = w.rates.Triggers(result.Rate)
	metrics.RecordEvaluation(result.Rate, eval.Triggered)

	if !eval.Triggered {
		return eval
	}

	eval.Weapons = w.weaponWindow(ctx, p, logger)
	eval.Reason = w.whitelist.Evaluate(ctx, p, eval.Weapons)

	if eval.Reason != ReasonNone {
		metrics.RecordSuppression(string(eval.Reason))
		logger.Info().
			Str("player_id", p.PlayerID).
			Str("player", p.Name).
			Str("role", p.Role).
			Int("kills", p.Kills).
			Float64("minutes", result.MinutesActive).
			Float64("rate", result.Rate).
			Strs("weapons", eval.Weapons.Weapons).
			Str("reason", string(eval.Reason)).
			Msg("kill rate above threshold, suppressed by whitelist")
		return eval
	}

	alert := w.dispatcher.BuildAlert(p, result, eval.Weapons)
	logger.Info().
		Str("player_id", p.PlayerID).
		Str("player", p.Name).
		Float64("rate", result.Rate).
		Msg(alert.Summary)

	eval.Dispatched, eval.Err = w.dispatcher.Dispatch(ctx, alert)
	return eval
}

// weaponWindow fetches the distinct weapons p used during the last interval.
// A query failure marks the window unavailable.
func (w *Watcher) weaponWindow(ctx context.Context, p PlayerSnapshot, logger zerolog.Logger) WeaponWindow {
	if w.weapons == nil {
		return WeaponWindow{}
	}

	entries, err := w.weapons.RecentKills(ctx, WeaponQuery{
		PlayerName: p.Name,
		Since:      w.now().Add(-w.config.Interval),
		Limit:      w.config.WeaponLogLimit,
	})
	if err != nil {
		metrics.RecordCollaboratorFailure("weapon_log")
		logger.Warn().
			Err(err).
			Str("player", p.Name).
			Msg("weapon log unavailable, skipping weapon whitelist rules")
		return WeaponWindow{}
	}

	return WeaponWindow{
		Weapons:   DistinctWeapons(entries, p.Name),
		Available: true,
	}
}

func (r *CycleReport) add(e Evaluation) {
	if e.Evaluable {
		r.Evaluated++
	}
	if e.Triggered {
		r.Triggered++
	}
	if e.Reason != ReasonNone {
		r.Suppressed[e.Reason]++
	}
	if e.Dispatched {
		r.Dispatched++
	}
	if e.Err != nil {
		r.DeliveryFailures++
	}
}

// qualifyingPopulation counts players outside vehicle crew roles.
func qualifyingPopulation(players []PlayerSnapshot) int {
	n := 0
	for _, p := range players {
		if !IsCrewRole(p.Role) {
			n++
		}
	}
	return n
}
