// killwatch - Hell Let Loose kill-rate watcher
// Copyright 2026 The killwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package detection

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNoMatchStart is returned by snapshot sources that cannot determine when
// the current match began.
var ErrNoMatchStart = errors.New("no match start found")

// Team is the faction a player fights for.
type Team string

const (
	TeamAllies Team = "allies"
	TeamAxis   Team = "axis"
)

// Symbol returns the colored square used to mark the team in notifications.
func (t Team) Symbol() string {
	switch t {
	case TeamAxis:
		return "🟥"
	case TeamAllies:
		return "🟦"
	default:
		return "⬜"
	}
}

// PlayerSnapshot holds one player's counters as of the current cycle.
// It is read-only input.
type PlayerSnapshot struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Team     Team   `json:"team"`
	Unit     string `json:"unit"`
	Role     string `json:"role"`
	Level    int    `json:"level"`
	Kills    int    `json:"kills"`

	// OffenseTicks and DefenseTicks are the game's score ticks, awarded
	// while the player is actively on the map.
	OffenseTicks int `json:"offense_ticks"`
	DefenseTicks int `json:"defense_ticks"`

	ConnectedSeconds float64 `json:"connected_seconds"`
}

// OnMapMinutes converts the offense and defense ticks to minutes.
func (p PlayerSnapshot) OnMapMinutes() float64 {
	return float64(p.OffenseTicks+p.DefenseTicks) / TicksPerMinute
}

// MatchClock is the time elapsed since the current match began.
type MatchClock struct {
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

// Elapsed returns the elapsed match time as a duration.
func (c MatchClock) Elapsed() time.Duration {
	return time.Duration(c.ElapsedSeconds * float64(time.Second))
}

// Snapshot is the per-cycle view of the server.
type Snapshot struct {
	Players []PlayerSnapshot `json:"players"`
	Clock   MatchClock       `json:"clock"`
}

// WeaponLogEntry is one kill event from the game log.
type WeaponLogEntry struct {
	PlayerName string    `json:"player_name"`
	Weapon     string    `json:"weapon"`
	Timestamp  time.Time `json:"timestamp"`
}

// WeaponQuery selects the kill events of one player. Name matching is exact
// and only kill events are returned.
type WeaponQuery struct {
	PlayerName string
	Since      time.Time
	Limit      int
}

// Reason names the whitelist rule that suppressed an alert.
type Reason string

const (
	ReasonNone       Reason = ""
	ReasonFlag       Reason = "flag"
	ReasonArmor      Reason = "armor"
	ReasonArtillery  Reason = "artillery"
	ReasonMachineGun Reason = "machine-gun"
	ReasonNoWeapon   Reason = "no-weapon"
)

// Reasons lists every suppression reason in precedence order.
var Reasons = []Reason{ReasonFlag, ReasonArmor, ReasonArtillery, ReasonMachineGun, ReasonNoWeapon}

// Weapon list placeholders used when the alert has no concrete weapon.
const (
	NoWeaponPlaceholder           = "no weapon found"
	WeaponsUnavailablePlaceholder = "weapons unavailable"
)

// Alert is the notification built for one triggering, non-suppressed player.
// It lives only for the duration of one dispatch.
type Alert struct {
	ID            uuid.UUID      `json:"id"`
	ServerNumber  int            `json:"server_number"`
	Player        PlayerSnapshot `json:"player"`
	Rate          float64        `json:"rate"`
	MinutesActive float64        `json:"minutes_active"`
	Weapons       []string       `json:"weapons"`
	Color         int            `json:"color"`
	Summary       string         `json:"summary"`
	ProfileURL    string         `json:"profile_url"`
	AvatarURL     string         `json:"avatar_url,omitempty"`
	BotName       string         `json:"bot_name"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Evaluation is the outcome of one player in one cycle.
type Evaluation struct {
	Player        PlayerSnapshot
	Evaluable     bool
	Rate          float64
	MinutesActive float64
	Triggered     bool
	Weapons       WeaponWindow
	Reason        Reason
	Dispatched    bool
	Err           error
}

// CycleState is the watch loop state.
type CycleState string

const (
	StateIdle       CycleState = "idle"
	StateEvaluating CycleState = "evaluating"
)

// CycleReport summarizes one watch cycle.
type CycleReport struct {
	ID               uuid.UUID      `json:"id"`
	StartedAt        time.Time      `json:"started_at"`
	Duration         time.Duration  `json:"duration"`
	State            CycleState     `json:"state"`
	Population       int            `json:"population"`
	Qualifying       int            `json:"qualifying"`
	Evaluated        int            `json:"evaluated"`
	Triggered        int            `json:"triggered"`
	Suppressed       map[Reason]int `json:"suppressed"`
	Dispatched       int            `json:"dispatched"`
	DeliveryFailures int            `json:"delivery_failures"`
	Error            string         `json:"error,omitempty"`
}

// SnapshotSource supplies the live player list and match clock.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// WeaponLogSource supplies recent kill events.
type WeaponLogSource interface {
	RecentKills(ctx context.Context, query WeaponQuery) ([]WeaponLogEntry, error)
}

// ProfileStore answers whether a player's persistent profile carries any of
// the given flags.
type ProfileStore interface {
	HasAnyFlag(ctx context.Context, playerID string, flags []string) (bool, error)
}

// Notifier delivers alerts to an external channel.
type Notifier interface {
	// Send delivers an alert.
	Send(ctx context.Context, alert *Alert) error

	// Name returns the notifier name for logging.
	Name() string

	// Enabled returns whether this notifier is active.
	Enabled() bool
}
