// killwatch - Hell Let Loose kill-rate watcher
// Copyright 2026 The killwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package detection

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/killwatch/killwatch/internal/metrics"
)

// DispatcherConfig configures alert presentation and delivery for the
// current server instance.
type DispatcherConfig struct {
	ServerNumber int

	// Enabled is the per-server delivery switch. A disabled server skips
	// delivery without error.
	Enabled bool

	BotName string

	// ProfileURLTemplate and AvatarURLTemplate receive the player ID
	// through a single %s verb. An empty template leaves the link out.
	ProfileURLTemplate string
	AvatarURLTemplate  string
}

// Dispatcher builds alerts and hands them to a Notifier.
type Dispatcher struct {
	config   DispatcherConfig
	notifier Notifier
	severity SeverityMapper
	logger   zerolog.Logger
	now      func() time.Time
}

// NewDispatcher creates a Dispatcher. notifier may be nil when no endpoint
// is configured for this server.
func NewDispatcher(config DispatcherConfig, notifier Notifier, severity SeverityMapper, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		config:   config,
		notifier: notifier,
		severity: severity,
		logger:   logger,
		now:      time.Now,
	}
}

// Enabled reports whether alerts are delivered for this server.
func (d *Dispatcher) Enabled() bool {
	return d.config.Enabled && d.notifier != nil && d.notifier.Enabled()
}

// BuildAlert assembles the alert for a triggering, non-suppressed player.
func (d *Dispatcher) BuildAlert(p PlayerSnapshot, result RateResult, window WeaponWindow) *Alert {
	weapons := alertWeapons(window)

	alert := &Alert{
		ID:            uuid.New(),
		ServerNumber:  d.config.ServerNumber,
		Player:        p,
		Rate:          result.Rate,
		MinutesActive: result.MinutesActive,
		Weapons:       weapons,
		Color:         d.severity.Color(result.Rate),
		ProfileURL:    formatPlayerURL(d.config.ProfileURLTemplate, p.PlayerID),
		AvatarURL:     formatPlayerURL(d.config.AvatarURLTemplate, p.PlayerID),
		BotName:       d.config.BotName,
		CreatedAt:     d.now(),
	}
	alert.Summary = summarize(alert)
	return alert
}

func alertWeapons(window WeaponWindow) []string {
	switch {
	case !window.Available:
		return []string{WeaponsUnavailablePlaceholder}
	case len(window.Weapons) == 0:
		return []string{NoWeaponPlaceholder}
	default:
		weapons := make([]string, len(window.Weapons))
		copy(weapons, window.Weapons)
		return weapons
	}
}

func formatPlayerURL(template, playerID string) string {
	if template == "" || playerID == "" {
		return ""
	}
	return fmt.Sprintf(template, playerID)
}

// summarize renders the one-line human-readable form of an alert.
func summarize(a *Alert) string {
	p := a.Player
	return fmt.Sprintf("%s %s (%s/%s, level %d): %d kills in %.1f min = %.2f kills/min, weapons: %s",
		p.Team.Symbol(), p.Name, p.Unit, p.Role, p.Level,
		p.Kills, a.MinutesActive, a.Rate, strings.Join(a.Weapons, ", "))
}

// Dispatch delivers alert. It returns true when the notifier accepted it.
// Disabled delivery is a no-op and returns false with no error. Delivery
// failures are logged and returned; they are not retried.
func (d *Dispatcher) Dispatch(ctx context.Context, alert *Alert) (bool, error) {
	if !d.Enabled() {
		d.logger.Info().
			Int("server_number", d.config.ServerNumber).
			Str("player", alert.Player.Name).
			Float64("rate", alert.Rate).
			Msg("notifications disabled for this server, alert not sent")
		metrics.RecordAlertSkipped()
		return false, nil
	}

	name := d.notifier.Name()
	err := d.notifier.Send(ctx, alert)
	metrics.RecordDispatch(name, err)
	if err != nil {
		d.logger.Error().
			Err(err).
			Str("notifier", name).
			Str("alert_id", alert.ID.String()).
			Str("player", alert.Player.Name).
			Msg("alert delivery failed")
		return false, fmt.Errorf("%s delivery: %w", name, err)
	}

	d.logger.Info().
		Str("notifier", name).
		Str("alert_id", alert.ID.String()).
		Str("player_id", alert.Player.PlayerID).
		Str("player", alert.Player.Name).
		Float64("rate", alert.Rate).
		Str("color", ColorHex(alert.Color)).
		Msg("kill rate alert sent")
	return true, nil
}
