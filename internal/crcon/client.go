// killwatch - Hell Let Loose kill-rate watcher
// Copyright 2026 The killwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
client.go - Core CRCON API Client

This file provides the Client struct and the HTTP communication layer for
the CRCON REST API.

Client Features:
  - Bearer API key authentication
  - Token-bucket request pacing (golang.org/x/time/rate)
  - Automatic HTTP 429 handling with exponential backoff
  - Decoding of the {result, command, failed, error} response wrapper
  - Context support for cancellation and timeouts

Related Files:
  - team_view.go: player snapshot and match clock
  - logs.go: weapon log queries
  - profile.go: player profile flags
  - circuit_breaker.go: gobreaker protection around all of the above
*/

//nolint:staticcheck // File documentation, not package doc
package crcon

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/killwatch/killwatch/internal/metrics"
)

// maxErrorBodySize limits how much of an error response body is read.
const maxErrorBodySize = 64 * 1024

// readBodyForError reads at most maxErrorBodySize bytes of r for error
// reporting.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

// Config configures a Client.
type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration

	// RequestsPerSecond and Burst bound the outgoing request rate.
	RequestsPerSecond float64
	Burst             int
}

// APIError is returned when CRCON answers with a non-200 status or a
// response wrapper marked as failed.
type APIError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode != http.StatusOK {
		return fmt.Sprintf("crcon %s: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("crcon %s: %s", e.Endpoint, e.Message)
}

// response is the wrapper CRCON puts around every result.
type response[T any] struct {
	Result  T       `json:"result"`
	Command string  `json:"command"`
	Failed  bool    `json:"failed"`
	Error   *string `json:"error"`
}

// Client talks to the CRCON HTTP API. It is safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
	now     func() time.Time

	maxRetries     int
	retryBaseDelay time.Duration
}

// NewClient creates a CRCON client.
//
// Defaults: 15s timeout, 5 requests per second with a burst of 5, up to 3
// retries on HTTP 429 starting at a 1s delay.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 5
	}

	return &Client{
		baseURL:        strings.TrimRight(cfg.URL, "/"),
		apiKey:         cfg.APIKey,
		client:         &http.Client{Timeout: timeout},
		limiter:        rate.NewLimiter(rate.Limit(rps), burst),
		logger:         logger,
		now:            time.Now,
		maxRetries:     3,
		retryBaseDelay: time.Second,
	}
}

// doRequest sends one API request, retrying with exponential backoff while
// the server answers 429. A Retry-After header in seconds overrides the
// computed delay.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, params url.Values, body []byte) (*http.Response, error) {
	reqURL := fmt.Sprintf("%s/api/%s", c.baseURL, endpoint)
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		var reqBody io.Reader = http.NoBody
		if body != nil {
			reqBody = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("HTTP request failed: %w", err)
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}
		_ = resp.Body.Close()

		if attempt == c.maxRetries {
			return nil, &APIError{
				Endpoint:   endpoint,
				StatusCode: http.StatusTooManyRequests,
				Message:    fmt.Sprintf("rate limit exceeded after %d retries", c.maxRetries),
			}
		}

		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if d, err := time.ParseDuration(retryAfter + "s"); err == nil {
				delay = d
			}
		}
		c.logger.Debug().
			Str("endpoint", endpoint).
			Dur("delay", delay).
			Int("attempt", attempt+1).
			Msg("crcon rate limited, backing off")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// call performs a request against endpoint and unwraps the result. payload,
// when non-nil, is sent as a JSON POST body; otherwise a GET is issued.
func call[T any](ctx context.Context, c *Client, endpoint string, params url.Values, payload any) (result T, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordCRCONRequest(endpoint, time.Since(start), err)
	}()

	method := http.MethodGet
	var body []byte
	if payload != nil {
		method = http.MethodPost
		body, err = json.Marshal(payload)
		if err != nil {
			return result, fmt.Errorf("encode %s request: %w", endpoint, err)
		}
	}

	resp, err := c.doRequest(ctx, method, endpoint, params, body)
	if err != nil {
		return result, fmt.Errorf("crcon %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return result, &APIError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    string(readBodyForError(resp.Body)),
		}
	}

	var wrapped response[T]
	if err := json.NewDecoder(resp.Body).Decode(&wrapped); err != nil {
		return result, fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	if wrapped.Failed {
		msg := "request failed"
		if wrapped.Error != nil && *wrapped.Error != "" {
			msg = *wrapped.Error
		}
		return result, &APIError{Endpoint: endpoint, StatusCode: http.StatusOK, Message: msg}
	}
	return wrapped.Result, nil
}
