// killwatch - Hell Let Loose kill-rate watcher
// Copyright 2026 The killwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"strconv"
	"time"
)

// MinWatchInterval is the shortest accepted watch interval. Every cycle pulls
// full statistics for the whole server, so shorter intervals load CRCON for
// no gain.
const MinWatchInterval = 2 * time.Minute

// Config holds all killwatch configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	CRCON     CRCONConfig     `koanf:"crcon"`
	Detection DetectionConfig `koanf:"detection"`
	Watch     WatchConfig     `koanf:"watch"`
	Whitelist WhitelistConfig `koanf:"whitelist"`
	Notify    NotifyConfig    `koanf:"notify"`
	HTTP      HTTPConfig      `koanf:"http"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig identifies the game server instance this process watches.
type ServerConfig struct {
	// Number selects the notification entry in Notify.Servers.
	Number int `koanf:"number" validate:"min=1"`
}

// CRCONConfig holds the CRCON API connection settings.
type CRCONConfig struct {
	URL     string        `koanf:"url" validate:"required,url"`
	APIKey  string        `koanf:"api_key" validate:"required"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`

	// RequestsPerSecond bounds the client-side request rate. Burst is the
	// token bucket size.
	RequestsPerSecond float64 `koanf:"requests_per_second" validate:"gt=0"`
	Burst             int     `koanf:"burst" validate:"min=1"`

	// ProfileCacheTTL is how long a player's whitelist flag lookup is reused.
	// Zero disables the cache.
	ProfileCacheTTL time.Duration `koanf:"profile_cache_ttl" validate:"min=0"`
}

// DetectionConfig tunes the kill-rate rule.
type DetectionConfig struct {
	// Threshold in kills per minute. A rate strictly above it triggers.
	Threshold float64 `koanf:"threshold" validate:"gt=0"`

	// MinKills is the kill count a player needs before being evaluated.
	MinKills int `koanf:"min_kills" validate:"min=1"`

	// SeverityMaxRate is the rate rendered as pure red.
	SeverityMaxRate float64 `koanf:"severity_max_rate" validate:"gt=0"`

	// RateBasis selects the active-minutes denominator: min, on_map or connected.
	RateBasis string `koanf:"rate_basis" validate:"oneof=min on_map connected"`

	// WeaponLogLimit caps the kill records fetched per triggering player.
	WeaponLogLimit int `koanf:"weapon_log_limit" validate:"min=1,max=10000"`
}

// WatchConfig controls the watch loop cadence.
type WatchConfig struct {
	Interval     time.Duration `koanf:"interval"`
	StartupDelay time.Duration `koanf:"startup_delay" validate:"min=0"`
}

// WhitelistConfig toggles the suppression rules.
type WhitelistConfig struct {
	// Flags are profile flags (usually emoji) that mute notifications.
	Flags []string `koanf:"flags"`

	Flag       bool `koanf:"flag"`
	Armor      bool `koanf:"armor"`
	Artillery  bool `koanf:"artillery"`
	MachineGun bool `koanf:"machine_gun"`
	NoWeapon   bool `koanf:"no_weapon"`

	// Extra weapon names appended to the built-in category tables.
	ExtraArmorWeapons      []string `koanf:"extra_armor_weapons"`
	ExtraArtilleryWeapons  []string `koanf:"extra_artillery_weapons"`
	ExtraMachineGunWeapons []string `koanf:"extra_machine_gun_weapons"`
}

// NotifyConfig holds the alert presentation and per-server delivery settings.
type NotifyConfig struct {
	BotName string `koanf:"bot_name" validate:"required"`

	// ProfileURLTemplate receives the player ID through a single %s verb.
	ProfileURLTemplate string `koanf:"profile_url_template" validate:"required"`

	// AvatarURLTemplate receives the player ID through a single %s verb. Optional.
	AvatarURLTemplate string `koanf:"avatar_url_template"`

	// Servers maps a server number ("1", "2", ...) to its endpoint.
	Servers map[string]NotifyServerConfig `koanf:"servers" validate:"dive"`
}

// NotifyServerConfig is the notification endpoint of one server instance.
type NotifyServerConfig struct {
	Kind        string            `koanf:"kind" validate:"omitempty,oneof=discord webhook"`
	URL         string            `koanf:"url"`
	Enabled     bool              `koanf:"enabled"`
	Headers     map[string]string `koanf:"headers"`
	RateLimitMs int               `koanf:"rate_limit_ms" validate:"min=0"`
}

// HTTPConfig controls the status and metrics listener.
type HTTPConfig struct {
	Enabled           bool          `koanf:"enabled"`
	Addr              string        `koanf:"addr" validate:"required_if=Enabled true"`
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"min=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"min=0"`

	// CORSAllowedOrigins lists dashboard origins allowed to read the status API.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// NotifyServer returns the notification entry for the configured server number.
// The boolean is false when no entry exists.
func (c *Config) NotifyServer() (NotifyServerConfig, bool) {
	s, ok := c.Notify.Servers[strconv.Itoa(c.Server.Number)]
	return s, ok
}
