// killwatch - Hell Let Loose kill-rate watcher
// Copyright 2026 The killwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package crcon

import (
	"context"
	"net/url"
)

// PlayerProfile fetches the stored profile of playerID. A nil profile means
// the player is unknown to CRCON.
func (c *Client) PlayerProfile(ctx context.Context, playerID string) (*PlayerProfile, error) {
	params := url.Values{}
	params.Set("player_id", playerID)
	return call[*PlayerProfile](ctx, c, endpointProfile, params, nil)
}

// HasAnyFlag implements detection.ProfileStore.
func (c *Client) HasAnyFlag(ctx context.Context, playerID string, flags []string) (bool, error) {
	if len(flags) == 0 {
		return false, nil
	}
	profile, err := c.PlayerProfile(ctx, playerID)
	if err != nil {
		return false, err
	}
	return profile.hasAnyFlag(flags), nil
}

func (p *PlayerProfile) hasAnyFlag(flags []string) bool {
	if p == nil {
		return false
	}
	for _, have := range p.Flags {
		for _, want := range flags {
			if have.Flag == want {
				return true
			}
		}
	}
	return false
}
