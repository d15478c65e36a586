// killwatch - Hell Let Loose kill-rate watcher
// Copyright 2026 The killwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package detection

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestNewWebhookNotifier(t *testing.T) {
	notifier := NewWebhookNotifier(WebhookConfig{
		WebhookURL: "https://hooks.example.com/killrate",
		Enabled:    true,
	})

	if notifier.Name() != "webhook" {
		t.Errorf("Name() = %q, want webhook", notifier.Name())
	}
	if !notifier.Enabled() {
		t.Error("notifier should be enabled")
	}
	if notifier.limiter.Limit() != rate.Every(500*time.Millisecond) {
		t.Errorf("default limit = %v, want one per 500ms", notifier.limiter.Limit())
	}
}

func TestWebhookNotifier_Enabled(t *testing.T) {
	tests := []struct {
		name     string
		config   WebhookConfig
		expected bool
	}{
		{"enabled with URL", WebhookConfig{WebhookURL: "https://hooks.example.com", Enabled: true}, true},
		{"disabled", WebhookConfig{WebhookURL: "https://hooks.example.com", Enabled: false}, false},
		{"enabled but no URL", WebhookConfig{Enabled: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewWebhookNotifier(tt.config).Enabled(); got != tt.expected {
				t.Errorf("Enabled() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestNewWebhookPayload(t *testing.T) {
	alert := testAlert()
	alert.Color = 0x7F8000

	payload := NewWebhookPayload(alert)

	if payload.EventType != WebhookEventType || payload.Source != WebhookSource {
		t.Errorf("event_type/source = %q/%q", payload.EventType, payload.Source)
	}
	if payload.ServerNumber != 1 {
		t.Errorf("server_number = %d, want 1", payload.ServerNumber)
	}
	if payload.PlayerID != "76561198000000001" || payload.PlayerName != "Able" || payload.Team != "axis" {
		t.Errorf("player = %q %q %q", payload.PlayerID, payload.PlayerName, payload.Team)
	}
	if payload.KillsPerMinute != 2.0 {
		t.Errorf("kills_per_minute = %v, want 2", payload.KillsPerMinute)
	}
	if payload.SeverityColor != "#7F8000" {
		t.Errorf("severity_color = %q, want #7F8000", payload.SeverityColor)
	}
	if payload.Summary != alert.Summary {
		t.Errorf("summary = %q", payload.Summary)
	}
	if !payload.Timestamp.Equal(testNow) {
		t.Errorf("timestamp = %v, want alert creation time %v", payload.Timestamp, testNow)
	}
	if payload.Alert != alert {
		t.Error("payload must carry the full alert")
	}
}

func TestWebhookNotifier_Send_Success(t *testing.T) {
	var received WebhookPayload
	var requestCount int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requestCount, 1)

		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		if r.Header.Get("X-Token") != "secret" {
			t.Errorf("X-Token = %q, want secret", r.Header.Get("X-Token"))
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(WebhookConfig{
		WebhookURL:  server.URL,
		Headers:     map[string]string{"X-Token": "secret"},
		Enabled:     true,
		RateLimitMs: 10,
	})

	if err := notifier.Send(context.Background(), testAlert()); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if atomic.LoadInt32(&requestCount) != 1 {
		t.Errorf("expected 1 request, got %d", requestCount)
	}
	if received.EventType != "killrate_alert" {
		t.Errorf("event_type = %q, want killrate_alert", received.EventType)
	}
	if received.Source != "killwatch" {
		t.Errorf("source = %q, want killwatch", received.Source)
	}
	if received.SeverityColor != "#FF0000" {
		t.Errorf("severity_color = %q, want #FF0000", received.SeverityColor)
	}
	if received.KillsPerMinute != 2.0 || received.PlayerName != "Able" {
		t.Errorf("flat fields = %v %q", received.KillsPerMinute, received.PlayerName)
	}
	if received.Alert == nil || received.Alert.Player.Name != "Able" || received.Alert.Rate != 2.0 {
		t.Errorf("alert = %+v", received.Alert)
	}
}

func TestWebhookNotifier_Send_Disabled(t *testing.T) {
	var requestCount int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requestCount, 1)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(WebhookConfig{WebhookURL: server.URL, Enabled: false})
	if err := notifier.Send(context.Background(), testAlert()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if atomic.LoadInt32(&requestCount) != 0 {
		t.Error("disabled notifier must not send")
	}
}

func TestWebhookNotifier_Send_ErrorStatus(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusInternalServerError} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
			}))
			defer server.Close()

			notifier := NewWebhookNotifier(WebhookConfig{WebhookURL: server.URL, Enabled: true, RateLimitMs: 10})
			if err := notifier.Send(context.Background(), testAlert()); err == nil {
				t.Errorf("expected error for status %d", status)
			}
		})
	}
}

func TestWebhookNotifier_HeadersCopy(t *testing.T) {
	headers := map[string]string{"X-Token": "secret"}
	notifier := NewWebhookNotifier(WebhookConfig{WebhookURL: "https://hooks.example.com", Headers: headers, Enabled: true})

	headers["X-Token"] = "changed"
	if notifier.headers["X-Token"] != "secret" {
		t.Error("notifier must copy headers at construction")
	}
}

func TestWebhookNotifier_ConcurrentSend(t *testing.T) {
	var requestCount int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requestCount, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(WebhookConfig{WebhookURL: server.URL, Enabled: true, RateLimitMs: 1})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := notifier.Send(context.Background(), testAlert()); err != nil {
				t.Errorf("Send() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&requestCount); got != 5 {
		t.Errorf("expected 5 requests, got %d", got)
	}
}
