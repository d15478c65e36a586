// killwatch - Hell Let Loose kill-rate watcher
// Copyright 2026 The killwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package crcon

// TeamView is the result of get_team_view, keyed by faction.
type TeamView struct {
	Allies *TeamViewTeam `json:"allies"`
	Axis   *TeamViewTeam `json:"axis"`
}

// TeamViewTeam is one faction of the team view.
type TeamViewTeam struct {
	Commander *TeamViewPlayer          `json:"commander"`
	Squads    map[string]TeamViewSquad `json:"squads"`
}

// TeamViewSquad is one unit of a faction.
type TeamViewSquad struct {
	Type    string           `json:"type"`
	Players []TeamViewPlayer `json:"players"`
}

// TeamViewPlayer holds the per-player counters reported by the game server.
type TeamViewPlayer struct {
	Name     string          `json:"name"`
	PlayerID string          `json:"player_id"`
	Team     string          `json:"team"`
	UnitName string          `json:"unit_name"`
	Role     string          `json:"role"`
	Level    int             `json:"level"`
	Kills    int             `json:"kills"`
	Deaths   int             `json:"deaths"`
	Offense  int             `json:"offense"`
	Defense  int             `json:"defense"`
	Profile  *PlayerPlaytime `json:"profile"`
}

// PlayerPlaytime is the part of the embedded profile carrying session time.
type PlayerPlaytime struct {
	CurrentPlaytimeSeconds float64 `json:"current_playtime_seconds"`
}

// LogsQuery is the request body of get_recent_logs.
type LogsQuery struct {
	End              int      `json:"end"`
	PlayerSearch     string   `json:"player_search,omitempty"`
	ActionFilter     []string `json:"action_filter,omitempty"`
	MinTimestamp     int64    `json:"min_timestamp,omitempty"`
	ExactPlayerMatch bool     `json:"exact_player_match"`
	ExactAction      bool     `json:"exact_action"`
}

// RecentLogs is the result of get_recent_logs.
type RecentLogs struct {
	Logs []LogEntry `json:"logs"`
}

// LogEntry is one structured game log line.
type LogEntry struct {
	TimestampMs int64  `json:"timestamp_ms"`
	Action      string `json:"action"`
	PlayerName1 string `json:"player_name_1"`
	PlayerID1   string `json:"player_id_1"`
	PlayerName2 string `json:"player_name_2"`
	PlayerID2   string `json:"player_id_2"`
	Weapon      string `json:"weapon"`
	Message     string `json:"message"`
}

// PlayerProfile is the result of get_player_profile.
type PlayerProfile struct {
	PlayerID string       `json:"player_id"`
	Flags    []PlayerFlag `json:"flags"`
}

// PlayerFlag is one moderator-assigned marker on a profile.
type PlayerFlag struct {
	Flag    string `json:"flag"`
	Comment string `json:"comment"`
}
