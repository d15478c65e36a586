// killwatch - Hell Let Loose kill-rate watcher
// Copyright 2026 The killwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package crcon

import (
	"context"
	"strings"
	"time"

	"github.com/killwatch/killwatch/internal/cache"
	"github.com/killwatch/killwatch/internal/detection"
	"github.com/killwatch/killwatch/internal/metrics"
)

// profileCacheCapacity bounds the cache to a few full servers worth of players.
const profileCacheCapacity = 512

// ProfileCache reuses whitelist flag lookups for ttl. A player who keeps a
// high rate is re-checked every cycle, and flags rarely change within a
// match. Failed lookups are not cached.
type ProfileCache struct {
	store   detection.ProfileStore
	results *cache.LRU[bool]
}

var _ detection.ProfileStore = (*ProfileCache)(nil)

// NewProfileCache wraps store.
func NewProfileCache(store detection.ProfileStore, ttl time.Duration) *ProfileCache {
	return &ProfileCache{
		store:   store,
		results: cache.NewLRU[bool](profileCacheCapacity, ttl),
	}
}

// HasAnyFlag implements detection.ProfileStore.
func (p *ProfileCache) HasAnyFlag(ctx context.Context, playerID string, flags []string) (bool, error) {
	if len(flags) == 0 {
		return false, nil
	}

	key := playerID + "\x00" + strings.Join(flags, "\x1f")
	if flagged, ok := p.results.Get(key); ok {
		metrics.RecordProfileCacheLookup(true)
		return flagged, nil
	}
	metrics.RecordProfileCacheLookup(false)

	flagged, err := p.store.HasAnyFlag(ctx, playerID, flags)
	if err != nil {
		return false, err
	}
	p.results.Add(key, flagged)
	metrics.SetProfileCacheEntries(p.results.Len())
	return flagged, nil
}
