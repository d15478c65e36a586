// killwatch - Hell Let Loose kill-rate watcher
// Copyright 2026 The killwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package detection

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/killwatch/killwatch/internal/metrics"
)

// WhitelistConfig toggles the suppression rules. A disabled rule never
// suppresses.
type WhitelistConfig struct {
	// Flags are the profile flags that mute notifications.
	Flags []string

	Flag       bool
	Armor      bool
	Artillery  bool
	MachineGun bool
	NoWeapon   bool
}

// WeaponWindow is the set of distinct weapons a player used during the
// last watch interval. Available is false when the weapon query failed.
type WeaponWindow struct {
	Weapons   []string
	Available bool
}

// WhitelistEvaluator decides whether a triggering player is suppressed.
type WhitelistEvaluator struct {
	config   WhitelistConfig
	catalog  *WeaponCatalog
	profiles ProfileStore
	logger   zerolog.Logger
}

// NewWhitelistEvaluator creates a WhitelistEvaluator. profiles may be nil,
// which disables the flag rule.
func NewWhitelistEvaluator(config WhitelistConfig, catalog *WeaponCatalog, profiles ProfileStore, logger zerolog.Logger) *WhitelistEvaluator {
	if catalog == nil {
		catalog = NewWeaponCatalog(nil, nil, nil)
	}
	return &WhitelistEvaluator{
		config:   config,
		catalog:  catalog,
		profiles: profiles,
		logger:   logger,
	}
}

// Evaluate returns the first matching suppression reason in precedence
// order, or ReasonNone. Weapon-based rules are skipped when the window is
// unavailable; the crew-role half of the armor rule still applies.
func (e *WhitelistEvaluator) Evaluate(ctx context.Context, p PlayerSnapshot, window WeaponWindow) Reason {
	if e.config.Flag && e.hasFlag(ctx, p) {
		return ReasonFlag
	}

	if e.config.Armor {
		if IsCrewRole(p.Role) {
			return ReasonArmor
		}
		if window.Available && e.catalog.Contains(window.Weapons, CategoryArmor) {
			return ReasonArmor
		}
	}

	if !window.Available {
		return ReasonNone
	}

	if e.config.Artillery && e.catalog.Contains(window.Weapons, CategoryArtillery) {
		return ReasonArtillery
	}

	if e.config.MachineGun && e.catalog.Contains(window.Weapons, CategoryMachineGun) {
		return ReasonMachineGun
	}

	if e.config.NoWeapon && len(window.Weapons) == 0 {
		return ReasonNoWeapon
	}

	return ReasonNone
}

// hasFlag checks the profile store. A lookup failure is logged and treated
// as flag absent.
func (e *WhitelistEvaluator) hasFlag(ctx context.Context, p PlayerSnapshot) bool {
	if e.profiles == nil || len(e.config.Flags) == 0 {
		return false
	}

	flagged, err := e.profiles.HasAnyFlag(ctx, p.PlayerID, e.config.Flags)
	if err != nil {
		metrics.RecordCollaboratorFailure("profile")
		e.logger.Warn().
			Err(err).
			Str("player_id", p.PlayerID).
			Str("player", p.Name).
			Msg("profile flag check unavailable, treating as not flagged")
		return false
	}
	return flagged
}
