// killwatch - Hell Let Loose kill-rate watcher
// Copyright 2026 The killwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.CRCON.URL = "http://crcon.local:8010"
	cfg.CRCON.APIKey = "secret"
	cfg.Notify.Servers["1"] = NotifyServerConfig{
		Kind:    "discord",
		URL:     "https://discord.com/api/webhooks/1/abc",
		Enabled: true,
	}
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing CRCON URL",
			mutate:  func(c *Config) { c.CRCON.URL = "" },
			wantErr: "CRCON.URL",
		},
		{
			name:    "missing API key",
			mutate:  func(c *Config) { c.CRCON.APIKey = "" },
			wantErr: "APIKey",
		},
		{
			name:    "zero threshold",
			mutate:  func(c *Config) { c.Detection.Threshold = 0 },
			wantErr: "Threshold",
		},
		{
			name:    "zero min kills",
			mutate:  func(c *Config) { c.Detection.MinKills = 0 },
			wantErr: "MinKills",
		},
		{
			name:    "unknown rate basis",
			mutate:  func(c *Config) { c.Detection.RateBasis = "average" },
			wantErr: "RateBasis",
		},
		{
			name:    "max rate not above threshold",
			mutate:  func(c *Config) { c.Detection.SeverityMaxRate = 1.4 },
			wantErr: "severity_max_rate",
		},
		{
			name:    "interval below floor",
			mutate:  func(c *Config) { c.Watch.Interval = 30 * time.Second },
			wantErr: "watch.interval",
		},
		{
			name: "enabled server without URL",
			mutate: func(c *Config) {
				c.Notify.Servers["2"] = NotifyServerConfig{Kind: "discord", Enabled: true}
			},
			wantErr: "notify.servers.2.url",
		},
		{
			name: "disabled server without URL",
			mutate: func(c *Config) {
				c.Notify.Servers["2"] = NotifyServerConfig{Kind: "discord"}
			},
		},
		{
			name: "bad server kind",
			mutate: func(c *Config) {
				c.Notify.Servers["1"] = NotifyServerConfig{Kind: "slack", URL: "https://x.example", Enabled: true}
			},
			wantErr: "Kind",
		},
		{
			name: "non-http webhook",
			mutate: func(c *Config) {
				c.Notify.Servers["1"] = NotifyServerConfig{Kind: "webhook", URL: "ftp://x.example", Enabled: true}
			},
			wantErr: "scheme",
		},
		{
			name:    "profile template without verb",
			mutate:  func(c *Config) { c.Notify.ProfileURLTemplate = "https://example.com/" },
			wantErr: "profile_url_template",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "loud" },
			wantErr: "Level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestNotifyServer(t *testing.T) {
	cfg := validConfig()

	if _, ok := cfg.NotifyServer(); !ok {
		t.Error("expected entry for server 1")
	}

	cfg.Server.Number = 4
	if _, ok := cfg.NotifyServer(); ok {
		t.Error("expected no entry for server 4")
	}
}
