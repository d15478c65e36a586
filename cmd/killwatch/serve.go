// killwatch - Hell Let Loose kill-rate watcher
// Copyright 2026 The killwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/killwatch/killwatch/internal/logging"
	"github.com/killwatch/killwatch/internal/metrics"
	"github.com/killwatch/killwatch/internal/supervisor"
	"github.com/killwatch/killwatch/internal/supervisor/services"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the watch loop and the status server",
		Long: `Runs the kill-rate watch loop under a supervisor tree. When http.enabled
is set, the status server is started next to it.

Endpoints:
  GET /healthz         Watch loop liveness
  GET /metrics         Prometheus metrics
  GET /api/v1/status   Loop state and last cycle report`,
		Example: `  killwatch serve
  killwatch serve --config /etc/killwatch/config.yaml
  KILLRATE_THRESHOLD=1.8 killwatch serve --log-level debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(parent context.Context, opts *rootOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	logging.Info().
		Str("version", version).
		Int("server_number", cfg.Server.Number).
		Str("crcon_url", cfg.CRCON.URL).
		Float64("threshold", cfg.Detection.Threshold).
		Dur("interval", cfg.Watch.Interval).
		Msg("Starting killwatch with supervisor tree")

	c, err := buildComponents(cfg)
	if err != nil {
		return err
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(logging.Component("supervisor")), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	tree.AddWatchService(services.NewWatcherService(c.watcher))
	if cfg.HTTP.Enabled {
		server := newStatusServer(cfg, c)
		tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second, logging.Component("http")))
		logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown requested, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
	}

	logging.Info().Msg("killwatch stopped")
	return nil
}
