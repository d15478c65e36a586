// killwatch - Hell Let Loose kill-rate watcher
// Copyright 2026 The killwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package crcon

import (
	"context"
	"time"

	"github.com/killwatch/killwatch/internal/detection"
)

// RecentLogs fetches structured log lines matching q.
func (c *Client) RecentLogs(ctx context.Context, q LogsQuery) ([]LogEntry, error) {
	logs, err := call[*RecentLogs](ctx, c, endpointRecentLogs, nil, q)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		return nil, nil
	}
	return logs.Logs, nil
}

// RecentKills implements detection.WeaponLogSource. Only KILL lines with
// the queried player as the killer are returned.
func (c *Client) RecentKills(ctx context.Context, q detection.WeaponQuery) ([]detection.WeaponLogEntry, error) {
	query := LogsQuery{
		End:              q.Limit,
		PlayerSearch:     q.PlayerName,
		ActionFilter:     []string{actionKill},
		ExactPlayerMatch: true,
		ExactAction:      true,
	}
	if !q.Since.IsZero() {
		query.MinTimestamp = q.Since.Unix()
	}

	logs, err := c.RecentLogs(ctx, query)
	if err != nil {
		return nil, err
	}

	entries := make([]detection.WeaponLogEntry, 0, len(logs))
	for _, l := range logs {
		if l.PlayerName1 != q.PlayerName {
			continue
		}
		entries = append(entries, detection.WeaponLogEntry{
			PlayerName: l.PlayerName1,
			Weapon:     l.Weapon,
			Timestamp:  timeFromMillis(l.TimestampMs),
		})
	}
	return entries, nil
}

func timeFromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
