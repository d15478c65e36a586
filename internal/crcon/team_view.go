// killwatch - Hell Let Loose kill-rate watcher
// Copyright 2026 The killwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package crcon

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/killwatch/killwatch/internal/detection"
)

const (
	endpointTeamView   = "get_team_view"
	endpointRecentLogs = "get_recent_logs"
	endpointProfile    = "get_player_profile"

	actionMatchStart = "MATCH START"
	actionKill       = "KILL"
)

// TeamView fetches the raw team view.
func (c *Client) TeamView(ctx context.Context) (*TeamView, error) {
	view, err := call[*TeamView](ctx, c, endpointTeamView, nil, nil)
	if err != nil {
		return nil, err
	}
	if view == nil {
		view = &TeamView{}
	}
	return view, nil
}

// MatchClock returns the time elapsed since the most recent MATCH START log
// line. It returns detection.ErrNoMatchStart when no such line exists.
func (c *Client) MatchClock(ctx context.Context) (detection.MatchClock, error) {
	logs, err := call[*RecentLogs](ctx, c, endpointRecentLogs, nil, LogsQuery{
		End:          1,
		ActionFilter: []string{actionMatchStart},
		ExactAction:  true,
	})
	if err != nil {
		return detection.MatchClock{}, err
	}
	if logs == nil || len(logs.Logs) == 0 {
		return detection.MatchClock{}, detection.ErrNoMatchStart
	}

	started := time.UnixMilli(logs.Logs[0].TimestampMs)
	elapsed := c.now().Sub(started).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	return detection.MatchClock{ElapsedSeconds: elapsed}, nil
}

// Snapshot implements detection.SnapshotSource.
func (c *Client) Snapshot(ctx context.Context) (*detection.Snapshot, error) {
	view, err := c.TeamView(ctx)
	if err != nil {
		return nil, err
	}
	clock, err := c.MatchClock(ctx)
	if err != nil {
		return nil, fmt.Errorf("match clock: %w", err)
	}
	return &detection.Snapshot{
		Players: view.Players(),
		Clock:   clock,
	}, nil
}

// Players flattens the team view into player snapshots, allies first, then
// axis, each with the commander ahead of the squads in name order.
func (v *TeamView) Players() []detection.PlayerSnapshot {
	var players []detection.PlayerSnapshot
	players = v.Allies.appendPlayers(players, detection.TeamAllies)
	players = v.Axis.appendPlayers(players, detection.TeamAxis)
	return players
}

func (t *TeamViewTeam) appendPlayers(dst []detection.PlayerSnapshot, team detection.Team) []detection.PlayerSnapshot {
	if t == nil {
		return dst
	}
	if t.Commander != nil {
		dst = append(dst, t.Commander.snapshot(team, "command"))
	}

	names := make([]string, 0, len(t.Squads))
	for name := range t.Squads {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, p := range t.Squads[name].Players {
			dst = append(dst, p.snapshot(team, name))
		}
	}
	return dst
}

func (p TeamViewPlayer) snapshot(team detection.Team, squad string) detection.PlayerSnapshot {
	if p.Team != "" {
		team = detection.Team(p.Team)
	}
	unit := p.UnitName
	if unit == "" {
		unit = squad
	}
	var connected float64
	if p.Profile != nil {
		connected = p.Profile.CurrentPlaytimeSeconds
	}
	return detection.PlayerSnapshot{
		PlayerID:         p.PlayerID,
		Name:             p.Name,
		Team:             team,
		Unit:             unit,
		Role:             p.Role,
		Level:            p.Level,
		Kills:            p.Kills,
		OffenseTicks:     p.Offense,
		DefenseTicks:     p.Defense,
		ConnectedSeconds: connected,
	}
}
