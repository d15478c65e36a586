// killwatch - Hell Let Loose kill-rate watcher
// Copyright 2026 The killwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations searched in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/killwatch/config.yaml",
	"/etc/killwatch/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Number: 1,
		},
		CRCON: CRCONConfig{
			Timeout:           15 * time.Second,
			RequestsPerSecond: 5,
			Burst:             5,
			ProfileCacheTTL:   5 * time.Minute,
		},
		Detection: DetectionConfig{
			Threshold:       1.4,
			MinKills:        5,
			SeverityMaxRate: 2.0,
			RateBasis:       "min",
			WeaponLogLimit:  500,
		},
		Watch: WatchConfig{
			Interval:     2 * time.Minute,
			StartupDelay: 60 * time.Second,
		},
		Whitelist: WhitelistConfig{
			Flags:      []string{"🔕"},
			Flag:       true,
			Armor:      true,
			Artillery:  true,
			MachineGun: true,
			NoWeapon:   false,
		},
		Notify: NotifyConfig{
			BotName:            "killwatch",
			ProfileURLTemplate: "https://steamcommunity.com/profiles/%s",
			Servers:            map[string]NotifyServerConfig{},
		},
		HTTP: HTTPConfig{
			Enabled:           true,
			Addr:              ":9102",
			RateLimitRequests: 60,
			RateLimitWindow:   time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from defaults, the optional config file and the
// environment, then validates it. Precedence: ENV > file > defaults.
func Load() (*Config, error) {
	return LoadFile(findConfigFile())
}

// LoadFile is Load with an explicit config file path. An empty path skips
// the file layer.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are keys that accept comma-separated strings from env.
var sliceConfigPaths = []string{
	"whitelist.flags",
	"whitelist.extra_armor_weapons",
	"whitelist.extra_artillery_weapons",
	"whitelist.extra_machine_gun_weapons",
	"http.cors_allowed_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	"server_number": "server.number",

	"crcon_url":                 "crcon.url",
	"crcon_api_key":             "crcon.api_key",
	"crcon_timeout":             "crcon.timeout",
	"crcon_requests_per_second": "crcon.requests_per_second",
	"crcon_burst":               "crcon.burst",
	"crcon_profile_cache_ttl":   "crcon.profile_cache_ttl",

	"killrate_threshold":        "detection.threshold",
	"killrate_min_kills":        "detection.min_kills",
	"killrate_max_rate":         "detection.severity_max_rate",
	"killrate_rate_basis":       "detection.rate_basis",
	"killrate_weapon_log_limit": "detection.weapon_log_limit",

	"watch_interval":      "watch.interval",
	"watch_startup_delay": "watch.startup_delay",

	"whitelist_flags":                     "whitelist.flags",
	"whitelist_flag":                      "whitelist.flag",
	"whitelist_armor":                     "whitelist.armor",
	"whitelist_artillery":                 "whitelist.artillery",
	"whitelist_machine_gun":               "whitelist.machine_gun",
	"whitelist_no_weapon":                 "whitelist.no_weapon",
	"whitelist_extra_armor_weapons":       "whitelist.extra_armor_weapons",
	"whitelist_extra_artillery_weapons":   "whitelist.extra_artillery_weapons",
	"whitelist_extra_machine_gun_weapons": "whitelist.extra_machine_gun_weapons",

	"notify_bot_name":             "notify.bot_name",
	"notify_profile_url_template": "notify.profile_url_template",
	"notify_avatar_url_template":  "notify.avatar_url_template",

	"http_enabled":              "http.enabled",
	"http_addr":                 "http.addr",
	"http_rate_limit_requests":  "http.rate_limit_requests",
	"http_rate_limit_window":    "http.rate_limit_window",
	"http_cors_allowed_origins": "http.cors_allowed_origins",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// notifyServerEnv matches NOTIFY_SERVER_<N>_<FIELD>.
var notifyServerEnv = regexp.MustCompile(`^notify_server_(\d+)_(url|kind|enabled|rate_limit_ms)$`)

// envTransformFunc maps an environment variable name to its koanf path.
// Unknown variables return "" and are ignored.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	if m := notifyServerEnv.FindStringSubmatch(key); m != nil {
		return "notify.servers." + m[1] + "." + m[2]
	}
	return ""
}
