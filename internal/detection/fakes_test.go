// killwatch - Hell Let Loose kill-rate watcher
// Copyright 2026 The killwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package detection

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/killwatch/killwatch/internal/logging"
)

var testNow = time.Date(2026, 3, 14, 20, 30, 0, 0, time.UTC)

type fakeSnapshots struct {
	mu       sync.Mutex
	snapshot *Snapshot
	err      error
	calls    int
	onCall   func()
}

func (f *fakeSnapshots) Snapshot(_ context.Context) (*Snapshot, error) {
	f.mu.Lock()
	f.calls++
	onCall := f.onCall
	f.mu.Unlock()
	if onCall != nil {
		onCall()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.snapshot, nil
}

func (f *fakeSnapshots) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeWeapons struct {
	entries map[string][]WeaponLogEntry
	err     error
	queries []WeaponQuery
}

func (f *fakeWeapons) RecentKills(_ context.Context, q WeaponQuery) ([]WeaponLogEntry, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	return f.entries[q.PlayerName], nil
}

// killsWith returns one kill record per weapon for name.
func killsWith(name string, weapons ...string) []WeaponLogEntry {
	entries := make([]WeaponLogEntry, 0, len(weapons))
	for i, w := range weapons {
		entries = append(entries, WeaponLogEntry{
			PlayerName: name,
			Weapon:     w,
			Timestamp:  testNow.Add(-time.Duration(i) * time.Second),
		})
	}
	return entries
}

type fakeProfiles struct {
	flagged map[string]bool
	err     error
	calls   int
}

func (f *fakeProfiles) HasAnyFlag(_ context.Context, playerID string, _ []string) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.flagged[playerID], nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	alerts   []*Alert
	err      error
	disabled bool
	onSend   func()
}

func (n *recordingNotifier) Send(_ context.Context, alert *Alert) error {
	n.mu.Lock()
	n.alerts = append(n.alerts, alert)
	onSend := n.onSend
	n.mu.Unlock()
	if onSend != nil {
		onSend()
	}
	return n.err
}

func (n *recordingNotifier) Name() string  { return "recording" }
func (n *recordingNotifier) Enabled() bool { return !n.disabled }

func (n *recordingNotifier) Alerts() []*Alert {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*Alert, len(n.alerts))
	copy(out, n.alerts)
	return out
}

// infantry returns an evaluable rifleman: connected for an hour with
// onMapMinutes of score ticks.
func infantry(id, name string, kills int, onMapMinutes float64) PlayerSnapshot {
	return PlayerSnapshot{
		PlayerID:         id,
		Name:             name,
		Team:             TeamAllies,
		Unit:             "able",
		Role:             "rifleman",
		Level:            120,
		Kills:            kills,
		OffenseTicks:     int(onMapMinutes * TicksPerMinute),
		ConnectedSeconds: 3600,
	}
}

// testSetup collects the collaborators and configuration of a test Watcher.
type testSetup struct {
	rate      RateConfig
	whitelist WhitelistConfig
	dispatch  DispatcherConfig
	watch     WatcherConfig

	snapshots *fakeSnapshots
	weapons   *fakeWeapons
	profiles  *fakeProfiles
	notifier  *recordingNotifier
	logs      *bytes.Buffer
}

func newTestSetup(players ...PlayerSnapshot) *testSetup {
	return &testSetup{
		rate: RateConfig{
			Threshold: 1.4,
			MinKills:  5,
			Interval:  2 * time.Minute,
			Basis:     RateBasisMin,
		},
		whitelist: WhitelistConfig{
			Flags:      []string{"🔕"},
			Flag:       true,
			Armor:      true,
			Artillery:  true,
			MachineGun: true,
		},
		dispatch: DispatcherConfig{
			ServerNumber:       1,
			Enabled:            true,
			BotName:            "killwatch",
			ProfileURLTemplate: "https://steamcommunity.com/profiles/%s",
		},
		watch: WatcherConfig{
			Interval:       2 * time.Minute,
			WeaponLogLimit: 500,
		},
		snapshots: &fakeSnapshots{snapshot: &Snapshot{
			Players: players,
			Clock:   MatchClock{ElapsedSeconds: 30 * 60},
		}},
		weapons:  &fakeWeapons{entries: map[string][]WeaponLogEntry{}},
		profiles: &fakeProfiles{flagged: map[string]bool{}},
		notifier: &recordingNotifier{},
		logs:     &bytes.Buffer{},
	}
}

func (s *testSetup) build() *Watcher {
	logger := logging.NewTestLogger(s.logs)
	whitelist := NewWhitelistEvaluator(s.whitelist, NewWeaponCatalog(nil, nil, nil), s.profiles, logger)
	dispatcher := NewDispatcher(s.dispatch, s.notifier, NewSeverityMapper(s.rate.Threshold, 2.0), logger)
	dispatcher.now = func() time.Time { return testNow }

	w := NewWatcher(s.watch, s.snapshots, s.weapons, NewRateCalculator(s.rate), whitelist, dispatcher, logger)
	w.now = func() time.Time { return testNow }
	return w
}
