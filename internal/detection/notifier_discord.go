// killwatch - Hell Let Loose kill-rate watcher
// Copyright 2026 The killwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package detection

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

// DiscordNotifier posts alerts as embeds to a Discord webhook.
type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
	enabled    bool
	limiter    *rate.Limiter
}

// DiscordConfig configures the Discord notifier.
type DiscordConfig struct {
	WebhookURL  string `json:"webhook_url"`
	Enabled     bool   `json:"enabled"`
	RateLimitMs int    `json:"rate_limit_ms"` // Minimum ms between messages
}

// NewDiscordNotifier creates a new Discord notifier.
func NewDiscordNotifier(config DiscordConfig) *DiscordNotifier {
	interval := time.Duration(config.RateLimitMs) * time.Millisecond
	if interval == 0 {
		interval = 1 * time.Second // Discord allows ~30 webhook posts per minute
	}

	return &DiscordNotifier{
		webhookURL: config.WebhookURL,
		enabled:    config.Enabled,
		limiter:    rate.NewLimiter(rate.Every(interval), 1),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Name returns the notifier name.
func (n *DiscordNotifier) Name() string {
	return "discord"
}

// Enabled returns whether this notifier is enabled.
func (n *DiscordNotifier) Enabled() bool {
	return n.enabled && n.webhookURL != ""
}

// Send delivers an alert to Discord.
func (n *DiscordNotifier) Send(ctx context.Context, alert *Alert) error {
	if !n.Enabled() {
		return nil
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("discord rate limit wait: %w", err)
	}

	payload := discordgo.WebhookParams{
		Username: alert.BotName,
		Embeds:   []*discordgo.MessageEmbed{buildEmbed(alert)},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal Discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create Discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send Discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("discord webhook returned status %d", resp.StatusCode)
	}

	return nil
}

// buildEmbed creates a Discord embed from an alert.
func buildEmbed(alert *Alert) *discordgo.MessageEmbed {
	p := alert.Player

	description := strings.Join([]string{
		fmt.Sprintf("%s %s / %s", p.Team.Symbol(), orDash(p.Unit), orDash(p.Role)),
		fmt.Sprintf("**%d** kills / **%.1f** min (**%.2f** kills/min)", p.Kills, alert.MinutesActive, alert.Rate),
		fmt.Sprintf("Level **%d**", p.Level),
	}, "\n")

	embed := &discordgo.MessageEmbed{
		Title:       p.Name,
		URL:         alert.ProfileURL,
		Description: description,
		Color:       alert.Color,
		Timestamp:   alert.CreatedAt.Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  "Last used weapons",
				Value: truncate(strings.Join(alert.Weapons, "\n"), 1024),
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Server %d | %s", alert.ServerNumber, p.PlayerID),
		},
	}

	if alert.BotName != "" {
		embed.Author = &discordgo.MessageEmbedAuthor{Name: alert.BotName}
	}
	if alert.AvatarURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: alert.AvatarURL}
	}
	return embed
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncate cuts s to at most limit characters, Discord's field length
// unit, without splitting a multi-byte rune.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-3]) + "..."
}
