// killwatch - Hell Let Loose kill-rate watcher
// Copyright 2026 The killwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package detection

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

// bystander is a second qualifying player who never triggers.
func bystander() PlayerSnapshot {
	return infantry("2", "Baker", 6, 30)
}

func TestWatcher_DispatchesAlert(t *testing.T) {
	setup := newTestSetup(infantry("1", "Able", 12, 6), bystander())
	setup.weapons.entries["Able"] = killsWith("Able", "M1 GARAND", "M1 GARAND", "MK2 GRENADE")
	w := setup.build()

	report, err := w.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle() error = %v", err)
	}

	alerts := setup.notifier.Alerts()
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	alert := alerts[0]
	if alert.Rate != 2.0 {
		t.Errorf("alert rate = %v, want 2.0", alert.Rate)
	}
	if alert.Player.Name != "Able" {
		t.Errorf("alert player = %q, want Able", alert.Player.Name)
	}
	if want := []string{"M1 GARAND", "MK2 GRENADE"}; !reflect.DeepEqual(alert.Weapons, want) {
		t.Errorf("alert weapons = %v, want %v", alert.Weapons, want)
	}

	if report.State != StateEvaluating {
		t.Errorf("State = %q, want evaluating", report.State)
	}
	if report.Population != 2 || report.Evaluated != 2 || report.Triggered != 1 || report.Dispatched != 1 {
		t.Errorf("report = %+v", report)
	}
}

func TestWatcher_WeaponQuery(t *testing.T) {
	setup := newTestSetup(infantry("1", "Able", 12, 6), bystander())
	w := setup.build()

	if _, err := w.RunCycle(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Only the triggering player is queried.
	if len(setup.weapons.queries) != 1 {
		t.Fatalf("expected 1 weapon query, got %d", len(setup.weapons.queries))
	}
	q := setup.weapons.queries[0]
	if q.PlayerName != "Able" {
		t.Errorf("PlayerName = %q, want Able", q.PlayerName)
	}
	if want := testNow.Add(-2 * time.Minute); !q.Since.Equal(want) {
		t.Errorf("Since = %v, want %v", q.Since, want)
	}
	if q.Limit != 500 {
		t.Errorf("Limit = %d, want 500", q.Limit)
	}
}

func TestWatcher_FlaggedPlayerSuppressed(t *testing.T) {
	setup := newTestSetup(infantry("1", "Able", 12, 6), bystander())
	setup.profiles.flagged["1"] = true
	setup.weapons.entries["Able"] = killsWith("Able", "155MM HOWITZER [M114]")
	w := setup.build()

	report, err := w.RunCycle(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if n := len(setup.notifier.Alerts()); n != 0 {
		t.Errorf("expected no alert, got %d", n)
	}
	if report.Suppressed[ReasonFlag] != 1 {
		t.Errorf("Suppressed = %v, want flag=1", report.Suppressed)
	}
	if report.Suppressed[ReasonArtillery] != 0 {
		t.Error("artillery must not be reported when the flag rule matched first")
	}

	logs := setup.logs.String()
	if !strings.Contains(logs, `"reason":"flag"`) {
		t.Errorf("expected suppression log with reason flag, got %q", logs)
	}
	if !strings.Contains(logs, "suppressed by whitelist") {
		t.Errorf("expected suppression message, got %q", logs)
	}
}

func TestWatcher_MinKillsNeverEvaluated(t *testing.T) {
	setup := newTestSetup(infantry("1", "Able", 3, 0.5), bystander())
	setup.rate.MinKills = 10
	w := setup.build()

	report, err := w.RunCycle(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if report.Evaluated != 0 || report.Triggered != 0 {
		t.Errorf("report = %+v, want nobody evaluated", report)
	}
	if len(setup.weapons.queries) != 0 {
		t.Error("weapon log must not be queried for non-evaluable players")
	}
	if len(setup.notifier.Alerts()) != 0 {
		t.Error("no alert expected")
	}
}

func TestWatcher_NoWeaponRule(t *testing.T) {
	t.Run("enabled suppresses", func(t *testing.T) {
		setup := newTestSetup(infantry("1", "Able", 12, 6), bystander())
		setup.whitelist.NoWeapon = true
		w := setup.build()

		report, err := w.RunCycle(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if report.Suppressed[ReasonNoWeapon] != 1 {
			t.Errorf("Suppressed = %v, want no-weapon=1", report.Suppressed)
		}
		if len(setup.notifier.Alerts()) != 0 {
			t.Error("no alert expected")
		}
	})

	t.Run("disabled dispatches with placeholder", func(t *testing.T) {
		setup := newTestSetup(infantry("1", "Able", 12, 6), bystander())
		setup.whitelist.NoWeapon = false
		w := setup.build()

		if _, err := w.RunCycle(context.Background()); err != nil {
			t.Fatal(err)
		}
		alerts := setup.notifier.Alerts()
		if len(alerts) != 1 {
			t.Fatalf("expected 1 alert, got %d", len(alerts))
		}
		if want := []string{NoWeaponPlaceholder}; !reflect.DeepEqual(alerts[0].Weapons, want) {
			t.Errorf("weapons = %v, want %v", alerts[0].Weapons, want)
		}
	})
}

func TestWatcher_IdleBelowMinPopulation(t *testing.T) {
	crew := infantry("3", "Charlie", 50, 5)
	crew.Role = "crewman"

	setup := newTestSetup(infantry("1", "Able", 12, 6), crew)
	w := setup.build()

	report, err := w.RunCycle(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if report.State != StateIdle {
		t.Errorf("State = %q, want idle", report.State)
	}
	if report.Population != 2 || report.Qualifying != 1 {
		t.Errorf("population = %d qualifying = %d, want 2 and 1", report.Population, report.Qualifying)
	}
	if report.Evaluated != 0 || len(setup.notifier.Alerts()) != 0 {
		t.Error("idle cycle must not evaluate")
	}
	if !strings.Contains(setup.logs.String(), "not enough players") {
		t.Errorf("expected idle log, got %q", setup.logs.String())
	}
}

func TestWatcher_StateTransitions(t *testing.T) {
	setup := newTestSetup(infantry("1", "Able", 1, 6))
	w := setup.build()

	if w.State() != StateIdle {
		t.Fatalf("initial state = %q, want idle", w.State())
	}

	steps := []struct {
		players []PlayerSnapshot
		want    CycleState
	}{
		{[]PlayerSnapshot{infantry("1", "Able", 1, 6)}, StateIdle},
		{[]PlayerSnapshot{infantry("1", "Able", 1, 6), bystander()}, StateEvaluating},
		{[]PlayerSnapshot{infantry("1", "Able", 1, 6), bystander()}, StateEvaluating},
		{nil, StateIdle},
		{[]PlayerSnapshot{infantry("1", "Able", 1, 6), bystander()}, StateEvaluating},
	}

	for i, step := range steps {
		setup.snapshots.snapshot = &Snapshot{Players: step.players, Clock: MatchClock{ElapsedSeconds: 1800}}
		report, err := w.RunCycle(context.Background())
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if report.State != step.want || w.State() != step.want {
			t.Errorf("step %d: state = %q, want %q", i, report.State, step.want)
		}
	}

	if !strings.Contains(setup.logs.String(), "watch state changed") {
		t.Error("expected state change log")
	}
}

func TestWatcher_SnapshotFailure(t *testing.T) {
	setup := newTestSetup()
	setup.snapshots.err = errors.New("crcon unreachable")
	w := setup.build()

	report, err := w.RunCycle(context.Background())
	if err == nil {
		t.Fatal("expected error from failed snapshot")
	}
	if !errors.Is(err, setup.snapshots.err) {
		t.Errorf("error = %v, want wrapped snapshot error", err)
	}
	if report.Error == "" {
		t.Error("report must carry the error")
	}

	last, ok := w.LastReport()
	if !ok || last.ID != report.ID {
		t.Error("failed cycle must still be stored as last report")
	}
}

func TestWatcher_WeaponQueryFailure(t *testing.T) {
	t.Run("infantry still alerted", func(t *testing.T) {
		setup := newTestSetup(infantry("1", "Able", 12, 6), bystander())
		setup.weapons.err = errors.New("log query timeout")
		setup.whitelist.NoWeapon = true
		w := setup.build()

		if _, err := w.RunCycle(context.Background()); err != nil {
			t.Fatalf("weapon failure must not fail the cycle: %v", err)
		}
		alerts := setup.notifier.Alerts()
		if len(alerts) != 1 {
			t.Fatalf("expected 1 alert, got %d", len(alerts))
		}
		if want := []string{WeaponsUnavailablePlaceholder}; !reflect.DeepEqual(alerts[0].Weapons, want) {
			t.Errorf("weapons = %v, want %v", alerts[0].Weapons, want)
		}
		if !strings.Contains(setup.logs.String(), "weapon log unavailable") {
			t.Error("expected weapon failure warning")
		}
	})

	t.Run("crew role still suppressed", func(t *testing.T) {
		tanker := infantry("1", "Able", 12, 6)
		tanker.Role = "tankcommander"
		setup := newTestSetup(tanker, bystander(), infantry("3", "Charlie", 1, 10))
		setup.weapons.err = errors.New("log query timeout")
		w := setup.build()

		report, err := w.RunCycle(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if report.Suppressed[ReasonArmor] != 1 {
			t.Errorf("Suppressed = %v, want armor=1", report.Suppressed)
		}
		if len(setup.notifier.Alerts()) != 0 {
			t.Error("no alert expected")
		}
	})
}

func TestWatcher_DeliveryFailureContinues(t *testing.T) {
	setup := newTestSetup(infantry("1", "Able", 12, 6), infantry("2", "Baker", 30, 10))
	setup.notifier.err = errors.New("status 500")
	setup.weapons.entries["Able"] = killsWith("Able", "M1 GARAND")
	setup.weapons.entries["Baker"] = killsWith("Baker", "THOMPSON")
	w := setup.build()

	report, err := w.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("delivery failure must not fail the cycle: %v", err)
	}
	if report.DeliveryFailures != 2 || report.Dispatched != 0 {
		t.Errorf("report = %+v, want 2 delivery failures", report)
	}
	if n := len(setup.notifier.Alerts()); n != 2 {
		t.Errorf("notifier called %d times, want 2", n)
	}
}

func TestWatcher_DisabledDelivery(t *testing.T) {
	setup := newTestSetup(infantry("1", "Able", 12, 6), bystander())
	setup.dispatch.Enabled = false
	w := setup.build()

	report, err := w.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("disabled delivery is not an error: %v", err)
	}
	if report.Triggered != 1 || report.Dispatched != 0 || report.DeliveryFailures != 0 {
		t.Errorf("report = %+v", report)
	}
	if len(setup.notifier.Alerts()) != 0 {
		t.Error("notifier must not be called")
	}
}

func TestWatcher_CancelAbandonsCycle(t *testing.T) {
	setup := newTestSetup(
		infantry("1", "Able", 12, 6),
		infantry("3", "Charlie", 14, 6),
		bystander(),
	)
	setup.weapons.entries["Able"] = killsWith("Able", "M1 GARAND")
	setup.weapons.entries["Charlie"] = killsWith("Charlie", "THOMPSON")
	w := setup.build()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setup.notifier.onSend = cancel

	report, err := w.RunCycle(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("RunCycle() error = %v, want context.Canceled", err)
	}

	if got := len(setup.notifier.Alerts()); got != 1 {
		t.Errorf("alerts = %d, want 1: players after the cancellation must not be evaluated", got)
	}
	if report.Evaluated != 1 || report.Dispatched != 1 {
		t.Errorf("report = %+v, want one evaluated and dispatched player", report)
	}
	if report.Error == "" {
		t.Error("abandoned cycle should record its error")
	}
	if last, ok := w.LastReport(); !ok || last.Evaluated != 1 {
		t.Errorf("LastReport() = %+v, %v", last, ok)
	}
}

func TestWatcher_LastReport(t *testing.T) {
	setup := newTestSetup(infantry("1", "Able", 12, 6), bystander())
	setup.profiles.flagged["1"] = true
	w := setup.build()

	if _, ok := w.LastReport(); ok {
		t.Fatal("no report expected before the first cycle")
	}

	report, err := w.RunCycle(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	last, ok := w.LastReport()
	if !ok {
		t.Fatal("expected last report")
	}
	if last.ID != report.ID {
		t.Error("LastReport returned a different cycle")
	}

	// The copy must not alias the stored map.
	last.Suppressed[ReasonFlag] = 99
	again, _ := w.LastReport()
	if again.Suppressed[ReasonFlag] != 1 {
		t.Errorf("stored report mutated through copy: %v", again.Suppressed)
	}
}

func TestWatcher_RunWithContext(t *testing.T) {
	setup := newTestSetup(infantry("1", "Able", 12, 6), bystander())
	setup.watch.Interval = time.Hour
	w := setup.build()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setup.snapshots.onCall = cancel

	done := make(chan error, 1)
	go func() { done <- w.RunWithContext(ctx) }()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("RunWithContext() = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("RunWithContext did not return after cancel")
	}

	if got := setup.snapshots.Calls(); got != 1 {
		t.Errorf("snapshot calls = %d, want 1", got)
	}
}

func TestWatcher_RunWithContext_StartupDelay(t *testing.T) {
	setup := newTestSetup(infantry("1", "Able", 12, 6), bystander())
	setup.watch.StartupDelay = time.Hour
	w := setup.build()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := w.RunWithContext(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("RunWithContext() = %v, want deadline exceeded", err)
	}
	if got := setup.snapshots.Calls(); got != 0 {
		t.Errorf("no cycle may run during the startup delay, got %d", got)
	}
}

func TestWatcher_RunWithContext_ContinuesAfterFailure(t *testing.T) {
	setup := newTestSetup()
	setup.snapshots.err = errors.New("crcon unreachable")
	setup.watch.Interval = 10 * time.Millisecond
	w := setup.build()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	setup.snapshots.onCall = func() {
		calls++
		if calls == 3 {
			cancel()
		}
	}

	done := make(chan error, 1)
	go func() { done <- w.RunWithContext(ctx) }()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("RunWithContext() = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not keep cycling after failures")
	}

	if got := setup.snapshots.Calls(); got != 3 {
		t.Errorf("snapshot calls = %d, want 3", got)
	}
}
