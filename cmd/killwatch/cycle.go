// killwatch - Hell Let Loose kill-rate watcher
// Copyright 2026 The killwatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func newCycleCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cycle",
		Short: "Run a single watch cycle and print its report",
		Long: `Runs one watch cycle against CRCON without the startup delay, sends any
alerts it raises, and prints the cycle report as JSON. Useful to check a
configuration before running serve.`,
		Example: `  killwatch cycle
  NOTIFY_SERVER_1_ENABLED=false killwatch cycle`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCycle(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}
}

func runCycle(ctx context.Context, opts *rootOptions, out io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	c, err := buildComponents(cfg)
	if err != nil {
		return err
	}

	report, cycleErr := c.watcher.RunCycle(ctx)
	if report != nil {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		if _, err := fmt.Fprintln(out, string(data)); err != nil {
			return err
		}
	}
	return cycleErr
}
