// killwatch - Hell Let Loose kill-rate watcher
// Copyright 2026 The killwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/killwatch/killwatch/internal/detection"
)

// staleAfterIntervals is how many watch intervals may pass without a
// finished cycle before /healthz reports unhealthy.
const staleAfterIntervals = 3

// StatusSource exposes the watcher's loop state.
type StatusSource interface {
	State() detection.CycleState
	LastReport() (detection.CycleReport, bool)
}

// BreakerStatus exposes the CRCON circuit breaker state.
type BreakerStatus interface {
	State() string
}

// Info is the static configuration echoed by /api/v1/status.
type Info struct {
	ServerNumber int
	Threshold    float64
	Interval     time.Duration
	Version      string
}

// HealthResponse is the /healthz payload.
type HealthResponse struct {
	Status      string     `json:"status"`
	LastCycleAt *time.Time `json:"last_cycle_at,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}

// StatusResponse is the /api/v1/status payload.
type StatusResponse struct {
	State           detection.CycleState   `json:"state"`
	LastCycle       *detection.CycleReport `json:"last_cycle,omitempty"`
	Stale           bool                   `json:"stale"`
	CRCONCircuit    string                 `json:"crcon_circuit,omitempty"`
	ServerNumber    int                    `json:"server_number"`
	Threshold       float64                `json:"threshold"`
	IntervalSeconds float64                `json:"interval_seconds"`
	Version         string                 `json:"version"`
	UptimeSeconds   float64                `json:"uptime_seconds"`
}

// Handler serves the status endpoints.
type Handler struct {
	status    StatusSource
	breaker   BreakerStatus
	info      Info
	startTime time.Time
	now       func() time.Time
}

// NewHandler creates a handler. breaker may be nil.
func NewHandler(status StatusSource, breaker BreakerStatus, info Info) *Handler {
	return &Handler{
		status:    status,
		breaker:   breaker,
		info:      info,
		startTime: time.Now(),
		now:       time.Now,
	}
}

// Health reports "starting" before the first cycle, "ok" while cycles keep
// finishing, and 503 once the last cycle is stale.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	report, ok := h.status.LastReport()
	if !ok {
		rw.Success(HealthResponse{Status: "starting"})
		return
	}

	finished := report.StartedAt.Add(report.Duration)
	health := HealthResponse{
		Status:      "ok",
		LastCycleAt: &finished,
		LastError:   report.Error,
	}
	if h.stale(report) {
		health.Status = "stale"
		rw.ErrorWithData(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "last watch cycle is stale", health)
		return
	}
	rw.Success(health)
}

// Status returns the loop state, the last cycle report and the CRCON
// breaker state.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		State:           h.status.State(),
		ServerNumber:    h.info.ServerNumber,
		Threshold:       h.info.Threshold,
		IntervalSeconds: h.info.Interval.Seconds(),
		Version:         h.info.Version,
		UptimeSeconds:   h.now().Sub(h.startTime).Seconds(),
	}
	if report, ok := h.status.LastReport(); ok {
		resp.LastCycle = &report
		resp.Stale = h.stale(report)
	}
	if h.breaker != nil {
		resp.CRCONCircuit = h.breaker.State()
	}

	NewResponseWriter(w, r).Success(resp)
}

func (h *Handler) stale(report detection.CycleReport) bool {
	if h.info.Interval <= 0 {
		return false
	}
	finished := report.StartedAt.Add(report.Duration)
	return h.now().Sub(finished) > staleAfterIntervals*h.info.Interval
}
