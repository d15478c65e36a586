// killwatch - Hell Let Loose kill-rate watcher
// Copyright 2026 The killwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package detection

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

// Webhook payload identifiers.
const (
	WebhookEventType = "killrate_alert"
	WebhookSource    = "killwatch"
)

// WebhookNotifier posts alerts as JSON to an arbitrary endpoint, for
// integrations that are not Discord (chat bridges, log collectors).
type WebhookNotifier struct {
	webhookURL string
	headers    map[string]string
	client     *http.Client
	enabled    bool
	limiter    *rate.Limiter
}

// WebhookConfig configures the generic webhook notifier.
type WebhookConfig struct {
	WebhookURL  string            `json:"webhook_url"`
	Headers     map[string]string `json:"headers,omitempty"`
	Enabled     bool              `json:"enabled"`
	RateLimitMs int               `json:"rate_limit_ms"`
}

// WebhookPayload is the JSON document posted for one alert. The flat fields
// let receivers route or filter without walking the nested alert.
type WebhookPayload struct {
	EventType      string    `json:"event_type"`
	Source         string    `json:"source"`
	ServerNumber   int       `json:"server_number"`
	PlayerID       string    `json:"player_id"`
	PlayerName     string    `json:"player_name"`
	Team           string    `json:"team"`
	KillsPerMinute float64   `json:"kills_per_minute"`
	SeverityColor  string    `json:"severity_color"`
	Summary        string    `json:"summary"`
	Timestamp      time.Time `json:"timestamp"`
	Alert          *Alert    `json:"alert"`
}

// NewWebhookPayload flattens alert into the posted document.
func NewWebhookPayload(alert *Alert) WebhookPayload {
	return WebhookPayload{
		EventType:      WebhookEventType,
		Source:         WebhookSource,
		ServerNumber:   alert.ServerNumber,
		PlayerID:       alert.Player.PlayerID,
		PlayerName:     alert.Player.Name,
		Team:           string(alert.Player.Team),
		KillsPerMinute: alert.Rate,
		SeverityColor:  ColorHex(alert.Color),
		Summary:        alert.Summary,
		Timestamp:      alert.CreatedAt,
		Alert:          alert,
	}
}

// NewWebhookNotifier creates a generic webhook notifier. Headers are copied.
func NewWebhookNotifier(config WebhookConfig) *WebhookNotifier {
	interval := time.Duration(config.RateLimitMs) * time.Millisecond
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	headers := make(map[string]string, len(config.Headers))
	for k, v := range config.Headers {
		headers[k] = v
	}

	return &WebhookNotifier{
		webhookURL: config.WebhookURL,
		headers:    headers,
		enabled:    config.Enabled,
		limiter:    rate.NewLimiter(rate.Every(interval), 1),
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Name returns the notifier name.
func (n *WebhookNotifier) Name() string {
	return "webhook"
}

// Enabled reports whether the notifier is enabled and has a URL.
func (n *WebhookNotifier) Enabled() bool {
	return n.enabled && n.webhookURL != ""
}

// Send posts alert. Any status of 400 or above is an error.
func (n *WebhookNotifier) Send(ctx context.Context, alert *Alert) error {
	if !n.Enabled() {
		return nil
	}
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("webhook rate limit wait: %w", err)
	}

	body, err := json.Marshal(NewWebhookPayload(alert))
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range n.headers {
		req.Header.Set(key, value)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook for %s returned status %d", alert.Player.Name, resp.StatusCode)
	}
	return nil
}
