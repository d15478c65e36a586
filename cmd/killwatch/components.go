// killwatch - Hell Let Loose kill-rate watcher
// Copyright 2026 The killwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/killwatch/killwatch/internal/api"
	"github.com/killwatch/killwatch/internal/config"
	"github.com/killwatch/killwatch/internal/crcon"
	"github.com/killwatch/killwatch/internal/detection"
	"github.com/killwatch/killwatch/internal/logging"
)

// components is the object graph built from one configuration.
type components struct {
	crcon   *crcon.CircuitBreakerClient
	watcher *detection.Watcher
}

// buildComponents wires the CRCON client, the detection pipeline and the
// notifier for the configured server number.
func buildComponents(cfg *config.Config) (*components, error) {
	basis, err := detection.ParseRateBasis(cfg.Detection.RateBasis)
	if err != nil {
		return nil, fmt.Errorf("detection.rate_basis: %w", err)
	}

	crconLogger := logging.Component("crcon")
	client := crcon.NewClient(crcon.Config{
		URL:               cfg.CRCON.URL,
		APIKey:            cfg.CRCON.APIKey,
		Timeout:           cfg.CRCON.Timeout,
		RequestsPerSecond: cfg.CRCON.RequestsPerSecond,
		Burst:             cfg.CRCON.Burst,
	}, crconLogger)
	breaker := crcon.NewCircuitBreakerClient(client, crcon.BreakerSettings{}, crconLogger)

	var profiles detection.ProfileStore = breaker
	if cfg.CRCON.ProfileCacheTTL > 0 {
		profiles = crcon.NewProfileCache(breaker, cfg.CRCON.ProfileCacheTTL)
	}

	catalog := detection.NewWeaponCatalog(
		cfg.Whitelist.ExtraArmorWeapons,
		cfg.Whitelist.ExtraArtilleryWeapons,
		cfg.Whitelist.ExtraMachineGunWeapons,
	)
	whitelist := detection.NewWhitelistEvaluator(detection.WhitelistConfig{
		Flags:      cfg.Whitelist.Flags,
		Flag:       cfg.Whitelist.Flag,
		Armor:      cfg.Whitelist.Armor,
		Artillery:  cfg.Whitelist.Artillery,
		MachineGun: cfg.Whitelist.MachineGun,
		NoWeapon:   cfg.Whitelist.NoWeapon,
	}, catalog, profiles, logging.Component("whitelist"))

	rates := detection.NewRateCalculator(detection.RateConfig{
		Threshold: cfg.Detection.Threshold,
		MinKills:  cfg.Detection.MinKills,
		Interval:  cfg.Watch.Interval,
		Basis:     basis,
	})

	server, found := cfg.NotifyServer()
	if !found {
		logging.Info().Int("server_number", cfg.Server.Number).Msg("no notification endpoint configured for this server")
	}
	severity := detection.NewSeverityMapper(cfg.Detection.Threshold, cfg.Detection.SeverityMaxRate)
	dispatcher := detection.NewDispatcher(detection.DispatcherConfig{
		ServerNumber:       cfg.Server.Number,
		Enabled:            found && server.Enabled,
		BotName:            cfg.Notify.BotName,
		ProfileURLTemplate: cfg.Notify.ProfileURLTemplate,
		AvatarURLTemplate:  cfg.Notify.AvatarURLTemplate,
	}, buildNotifier(server, found), severity, logging.Component("dispatcher"))

	watcher := detection.NewWatcher(detection.WatcherConfig{
		Interval:       cfg.Watch.Interval,
		StartupDelay:   cfg.Watch.StartupDelay,
		WeaponLogLimit: cfg.Detection.WeaponLogLimit,
	}, breaker, breaker, rates, whitelist, dispatcher, logging.Component("watcher"))

	return &components{
		crcon:   breaker,
		watcher: watcher,
	}, nil
}

// buildNotifier returns the notifier for a server entry, or nil when the
// entry is missing or has no URL. An empty kind means discord.
func buildNotifier(server config.NotifyServerConfig, found bool) detection.Notifier {
	if !found || server.URL == "" {
		return nil
	}

	switch server.Kind {
	case "webhook":
		return detection.NewWebhookNotifier(detection.WebhookConfig{
			WebhookURL:  server.URL,
			Headers:     server.Headers,
			Enabled:     server.Enabled,
			RateLimitMs: server.RateLimitMs,
		})
	default:
		return detection.NewDiscordNotifier(detection.DiscordConfig{
			WebhookURL:  server.URL,
			Enabled:     server.Enabled,
			RateLimitMs: server.RateLimitMs,
		})
	}
}

// newStatusServer builds the HTTP server for /healthz, /metrics and
// /api/v1/status.
func newStatusServer(cfg *config.Config, c *components) *http.Server {
	handler := api.NewHandler(c.watcher, c.crcon, api.Info{
		ServerNumber: cfg.Server.Number,
		Threshold:    cfg.Detection.Threshold,
		Interval:     cfg.Watch.Interval,
		Version:      version,
	})
	mw := api.NewChiMiddleware(&api.ChiMiddlewareConfig{
		CORSAllowedOrigins: cfg.HTTP.CORSAllowedOrigins,
		CORSMaxAge:         86400,
		RateLimitRequests:  cfg.HTTP.RateLimitRequests,
		RateLimitWindow:    cfg.HTTP.RateLimitWindow,
	})

	return &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.NewRouter(handler, mw),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
